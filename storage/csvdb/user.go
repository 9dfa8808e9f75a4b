package csvdb

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shule-project/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func decodeUser(r row) (user.User, error) {
	usr := user.User{
		Username:       r["username"],
		FullName:       r["full_name"],
		Role:           r["role"],
		Email:          r["email"],
		Phone:          r["phone"],
		Address:        r["address"],
		Department:     r["department"],
		EnrollmentDate: r["enrollment_date"],
	}
	if raw := strings.TrimSpace(r["year_of_study"]); raw != "" {
		// legacy files carry pandas floats like "1.0"
		year, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return user.User{}, storageErr("users", "decode", errors.Wrapf(err, "year_of_study %q", raw))
		}
		usr.YearOfStudy = int(year)
	}
	return usr, nil
}

func encodeUser(usr user.User, r row) row {
	if r == nil {
		r = make(row, len(usersHeader))
	}
	r["username"] = usr.Username
	r["full_name"] = usr.FullName
	r["role"] = usr.Role
	r["email"] = usr.Email
	r["phone"] = usr.Phone
	r["address"] = usr.Address
	r["department"] = usr.Department
	r["year_of_study"] = strconv.Itoa(usr.YearOfStudy)
	r["enrollment_date"] = usr.EnrollmentDate
	return r
}

// userTaken reports whether username exists in either the users rows or the
// credentials rows.
func userTaken(username string, userRows, credRows []row) bool {
	for _, r := range userRows {
		if r["username"] == username {
			return true
		}
	}
	for _, r := range credRows {
		if r["username"] == username {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckUsernameUniqueness(username string) error {
	release, err := repo.db.lockTables(repo.db.users, repo.db.credentials)
	if err != nil {
		return err
	}
	defer release()

	_, userRows, err := repo.db.users.load()
	if err != nil {
		return err
	}
	_, credRows, err := repo.db.credentials.load()
	if err != nil {
		return err
	}
	if userTaken(username, userRows, credRows) {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User, cred user.Credential) (user.User, error) {
	release, err := repo.db.lockTables(repo.db.users, repo.db.credentials)
	if err != nil {
		return user.User{}, err
	}
	defer release()

	userHeader, userRows, err := repo.db.users.load()
	if err != nil {
		return user.User{}, err
	}
	credHeader, credRows, err := repo.db.credentials.load()
	if err != nil {
		return user.User{}, err
	}

	// re-checked under the lock: validation ran outside the critical section
	if userTaken(usr.Username, userRows, credRows) {
		return user.User{}, user.ErrUsernameExists
	}

	userRows = append(userRows, encodeUser(usr, nil))
	credRows = append(credRows, row{"username": cred.Username, "password": cred.Password})

	stagedUsers, err := repo.db.users.stage(userHeader, userRows)
	if err != nil {
		return user.User{}, err
	}
	stagedCreds, err := repo.db.credentials.stage(credHeader, credRows)
	if err != nil {
		stagedUsers.discard()
		return user.User{}, err
	}
	if err = stagedUsers.commit(); err != nil {
		stagedCreds.discard()
		return user.User{}, err
	}
	if err = stagedCreds.commit(); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	if err := repo.db.users.lock(); err != nil {
		return nil, err
	}
	defer repo.db.users.unlock()

	_, rows, err := repo.db.users.load()
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		usr, err := decodeUser(r)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	if err := repo.db.users.lock(); err != nil {
		return user.User{}, err
	}
	defer repo.db.users.unlock()

	_, rows, err := repo.db.users.load()
	if err != nil {
		return user.User{}, err
	}
	if username != "" {
		for _, r := range rows {
			if r["username"] == username {
				return decodeUser(r)
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	users, err := repo.QueryAllUsers()
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return users, nil
	}

	filtered := make([]user.User, 0, len(users))
	search := strings.ToLower(filter.Search)
	for _, usr := range users {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(usr.Username), search) &&
			!strings.Contains(strings.ToLower(usr.FullName), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		filtered = append(filtered, usr)
	}
	return filtered, nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	if err := repo.db.users.lock(); err != nil {
		return user.User{}, err
	}
	defer repo.db.users.unlock()

	header, rows, err := repo.db.users.load()
	if err != nil {
		return user.User{}, err
	}
	for _, r := range rows {
		if r["username"] == usr.Username {
			encodeUser(usr, r)
			if err = repo.db.users.save(header, rows); err != nil {
				return user.User{}, err
			}
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetCredential(username string) (user.Credential, error) {
	if err := repo.db.credentials.lock(); err != nil {
		return user.Credential{}, err
	}
	defer repo.db.credentials.unlock()

	_, rows, err := repo.db.credentials.load()
	if err != nil {
		return user.Credential{}, err
	}
	if username != "" {
		for _, r := range rows {
			if r["username"] == username {
				return user.Credential{Username: username, Password: r["password"]}, nil
			}
		}
	}
	return user.Credential{}, user.ErrNotFound
}

func (repo *userRepository) UpdateCredentialPassword(username, password string) error {
	if err := repo.db.credentials.lock(); err != nil {
		return err
	}
	defer repo.db.credentials.unlock()

	header, rows, err := repo.db.credentials.load()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r["username"] == username {
			r["password"] = password
			return repo.db.credentials.save(header, rows)
		}
	}
	return user.ErrNotFound
}

// DeleteUser removes the user row and every credential, grade and
// extracurricular row referencing it. All four collections are locked in the
// fixed global order and every rewrite is staged before any is committed.
func (repo *userRepository) DeleteUser(username string) error {
	release, err := repo.db.lockTables(repo.db.lockOrder()...)
	if err != nil {
		return err
	}
	defer release()

	userHeader, userRows, err := repo.db.users.load()
	if err != nil {
		return err
	}
	found := false
	for _, r := range userRows {
		if r["username"] == username {
			found = true
			break
		}
	}
	if !found {
		return user.ErrNotFound
	}

	staged := make([]*stagedWrite, 0, 4)
	discardAll := func() {
		for _, s := range staged {
			s.discard()
		}
	}

	s, err := repo.db.users.stage(userHeader, dropUsername(userRows, username))
	if err != nil {
		return err
	}
	staged = append(staged, s)

	for _, t := range []*table{repo.db.credentials, repo.db.grades, repo.db.eca} {
		header, rows, err := t.load()
		if err != nil {
			discardAll()
			return err
		}
		if s, err = t.stage(header, dropUsername(rows, username)); err != nil {
			discardAll()
			return err
		}
		staged = append(staged, s)
	}

	for i, s := range staged {
		if err = s.commit(); err != nil {
			for _, rest := range staged[i+1:] {
				rest.discard()
			}
			return err
		}
	}
	return nil
}

func dropUsername(rows []row, username string) []row {
	kept := make([]row, 0, len(rows))
	for _, r := range rows {
		if r["username"] != username {
			kept = append(kept, r)
		}
	}
	return kept
}
