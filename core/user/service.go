package user

import (
	"errors"

	"github.com/shule-project/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrInvalidRole    = errors.New("role must be either admin or student")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username string) error
		// CreateUser persists the User and its Credential together; both rows
		// are written or neither is.
		CreateUser(usr User, cred Credential) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByUsername(username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// User.Username, User.FullName or User.Email.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(usr User) (User, error)
		GetCredential(username string) (Credential, error)
		UpdateCredentialPassword(username, password string) error
		// DeleteUser removes the user row and cascades over the credential,
		// grade and extracurricular collections.
		DeleteUser(username string) error
	}

	Service interface {
		CheckUniqueness(username string) error
		Create(nu NewUser) (User, error)
		QueryAll() ([]User, error)
		GetByUsername(username string) (User, error)
		Filter(filter QueryFilter) ([]User, error)
		Update(username string, uu UpdateUser) (User, error)
		UpdatePassword(username, newPassword string) error
		Delete(username string) error
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(uname string) error {
	if err := svc.repo.CheckUsernameUniqueness(uname); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(nu NewUser) (User, error) {
	if err := nu.Validate(svc); err != nil {
		return User{}, err
	}
	nu.applyDefaults()

	usr := User{
		Username:       nu.Username,
		FullName:       nu.FullName,
		Role:           nu.Role,
		Email:          nu.Email,
		Phone:          nu.Phone,
		Address:        nu.Address,
		Department:     nu.Department,
		YearOfStudy:    nu.YearOfStudy,
		EnrollmentDate: nu.EnrollmentDate,
	}
	cred := Credential{Username: nu.Username, Password: nu.Password}
	return svc.repo.CreateUser(usr, cred)
}

func (svc *service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname))
}

func (svc *service) Filter(filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(filter)
}

func (svc *service) Update(username string, uu UpdateUser) (User, error) {
	if err := uu.Validate(); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByUsername(core.CleanString(username))
	if err != nil {
		return User{}, err
	}
	uu.apply(&usr)
	return svc.repo.UpdateUser(usr)
}

func (svc *service) UpdatePassword(username, newPassword string) error {
	if newPassword == "" {
		return core.NewValidationError(core.ErrRequiredField, core.FieldError{
			Field: "password",
			Error: "this field is required",
		})
	}
	return svc.repo.UpdateCredentialPassword(core.CleanString(username), newPassword)
}

func (svc *service) Delete(username string) error {
	return svc.repo.DeleteUser(core.CleanString(username))
}
