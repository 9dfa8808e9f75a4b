package user

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/shule-project/shule/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

var AllRoles = []string{RoleAdmin, RoleStudent}

// User is an institutional account: an administrator or a student. Username is
// the record key across every collection; comparisons are exact and
// case-sensitive.
type User struct {
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Department     string `json:"department"`
	YearOfStudy    int    `json:"year_of_study"`
	EnrollmentDate string `json:"enrollment_date"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// Credential is the stored login secret for a User. It references the User by
// username only; the account role lives solely on User so the two can never
// disagree.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username       string `json:"username" validate:"required,alphanum_"`
	FullName       string `json:"full_name" validate:"required"`
	Password       string `json:"password" validate:"required"`
	Role           string `json:"role" validate:"required,role"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Department     string `json:"department"`
	YearOfStudy    int    `json:"year_of_study" validate:"gte=0,lte=4"`
	EnrollmentDate string `json:"enrollment_date"`
}

func (nu *NewUser) Validate(svc Service) error {
	nu.Username = core.CleanString(nu.Username)
	nu.FullName = core.CleanString(nu.FullName)
	nu.Role = core.CleanString(nu.Role)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return core.TranslateValidatorError(err, validationSentinels)
	}
	return svc.CheckUniqueness(nu.Username)
}

// applyDefaults fills the profile fields the registrar does not require at
// signup time.
func (nu *NewUser) applyDefaults() {
	if nu.Email == "" {
		nu.Email = fmt.Sprintf("%s@university.edu", nu.Username)
	}
	if nu.Phone == "" {
		nu.Phone = "0000000000"
	}
	if nu.Address == "" {
		nu.Address = "Student Address"
	}
	if nu.Department == "" {
		nu.Department = "General"
	}
	if nu.EnrollmentDate == "" {
		nu.EnrollmentDate = "2023-09-01"
	}
}

// UpdateUser defines what information may be provided to modify an existing
// User: one nullable slot per mutable profile column. Absent slots leave the
// stored value untouched; the whole patch applies or none of it does.
type UpdateUser struct {
	FullName       null.String `json:"full_name"`
	Email          null.String `json:"email"`
	Phone          null.String `json:"phone"`
	Address        null.String `json:"address"`
	Department     null.String `json:"department"`
	YearOfStudy    null.Int    `json:"year_of_study"`
	EnrollmentDate null.String `json:"enrollment_date"`
}

func (uu *UpdateUser) Validate() error {
	if uu.YearOfStudy.Valid && (uu.YearOfStudy.Int < 0 || uu.YearOfStudy.Int > 4) {
		return core.NewValidationError(core.ErrInvalidField, core.FieldError{
			Field: "year_of_study",
			Error: "year of study must be between 0 and 4",
		})
	}
	if uu.Email.Valid {
		uu.Email.String = core.CleanString(uu.Email.String, true /* lower */)
		if err := core.Validate.Var(uu.Email.String, "omitempty,email"); err != nil {
			return core.NewValidationError(core.ErrInvalidField, core.FieldError{
				Field: "email",
				Error: "invalid email address",
			})
		}
	}
	return nil
}

// apply copies every set slot onto usr.
func (uu *UpdateUser) apply(usr *User) {
	if uu.FullName.Valid {
		usr.FullName = core.CleanString(uu.FullName.String)
	}
	if uu.Email.Valid {
		usr.Email = uu.Email.String
	}
	if uu.Phone.Valid {
		usr.Phone = core.CleanString(uu.Phone.String)
	}
	if uu.Address.Valid {
		usr.Address = core.CleanString(uu.Address.String)
	}
	if uu.Department.Valid {
		usr.Department = core.CleanString(uu.Department.String)
	}
	if uu.YearOfStudy.Valid {
		usr.YearOfStudy = uu.YearOfStudy.Int
	}
	if uu.EnrollmentDate.Valid {
		usr.EnrollmentDate = core.CleanString(uu.EnrollmentDate.String)
	}
}

type QueryFilter struct {
	Role   string
	Search string
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Role == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Role = core.CleanString(qf.Role)
	qf.Search = core.CleanString(qf.Search)
}
