package csvdb

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shule-project/shule/core/student"
	"github.com/shule-project/shule/core/user"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// userExists reports whether username has a users row. The users lock must be
// held by the caller.
func (db *DB) userExists(username string) (bool, error) {
	_, rows, err := db.users.load()
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if r["username"] == username {
			return true, nil
		}
	}
	return false, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func decodeGrade(r row) (student.Grade, bool, error) {
	raw := strings.TrimSpace(r["grade"])
	if raw == "" {
		return student.Grade{}, false, nil // absent value, legacy residue
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return student.Grade{}, false, storageErr("grades", "decode", errors.Wrapf(err, "grade %q", raw))
	}
	return student.Grade{
		Username: r["username"],
		Subject:  r["subject"],
		Score:    score,
	}, true, nil
}

func decodeActivity(r row) (student.Activity, error) {
	act := student.Activity{
		Username:    r["username"],
		Name:        r["activity"],
		Role:        r["role"],
		Description: r["description"],
	}
	if raw := strings.TrimSpace(r["hours_per_week"]); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return student.Activity{}, storageErr("eca", "decode", errors.Wrapf(err, "hours_per_week %q", raw))
		}
		act.HoursPerWeek = hours
	}
	return act, nil
}

// UpsertGrade writes the (username, subject) pair, overwriting a prior score.
// The student's existence is checked under the users lock held for the whole
// cycle, so a concurrent cascade delete can never leave an orphan grade.
func (repo *studentRepository) UpsertGrade(g student.Grade) (student.Grade, error) {
	release, err := repo.db.lockTables(repo.db.users, repo.db.grades)
	if err != nil {
		return student.Grade{}, err
	}
	defer release()

	exists, err := repo.db.userExists(g.Username)
	if err != nil {
		return student.Grade{}, err
	}
	if !exists {
		return student.Grade{}, user.ErrNotFound
	}

	header, rows, err := repo.db.grades.load()
	if err != nil {
		return student.Grade{}, err
	}
	updated := false
	for _, r := range rows {
		if r["username"] == g.Username && r["subject"] == g.Subject {
			r["grade"] = formatFloat(g.Score)
			updated = true
			break
		}
	}
	if !updated {
		rows = append(rows, row{
			"username": g.Username,
			"subject":  g.Subject,
			"grade":    formatFloat(g.Score),
		})
	}
	if err = repo.db.grades.save(header, rows); err != nil {
		return student.Grade{}, err
	}
	return g, nil
}

func (repo *studentRepository) queryGrades(username string) ([]student.Grade, error) {
	if err := repo.db.grades.lock(); err != nil {
		return nil, err
	}
	defer repo.db.grades.unlock()

	_, rows, err := repo.db.grades.load()
	if err != nil {
		return nil, err
	}
	grades := make([]student.Grade, 0, len(rows))
	for _, r := range rows {
		if username != "" && r["username"] != username {
			continue
		}
		g, ok, err := decodeGrade(r)
		if err != nil {
			return nil, err
		}
		if ok {
			grades = append(grades, g)
		}
	}
	return grades, nil
}

func (repo *studentRepository) QueryGrades(username string) ([]student.Grade, error) {
	grades, err := repo.queryGrades(username)
	if err != nil {
		return nil, err
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].Subject < grades[j].Subject })
	return grades, nil
}

func (repo *studentRepository) QueryAllGrades() ([]student.Grade, error) {
	return repo.queryGrades("")
}

// UpsertActivity writes the (username, activity) pair, overwriting a prior
// record, with the same existence guarantee as UpsertGrade.
func (repo *studentRepository) UpsertActivity(a student.Activity) (student.Activity, error) {
	release, err := repo.db.lockTables(repo.db.users, repo.db.eca)
	if err != nil {
		return student.Activity{}, err
	}
	defer release()

	exists, err := repo.db.userExists(a.Username)
	if err != nil {
		return student.Activity{}, err
	}
	if !exists {
		return student.Activity{}, user.ErrNotFound
	}

	header, rows, err := repo.db.eca.load()
	if err != nil {
		return student.Activity{}, err
	}
	updated := false
	for _, r := range rows {
		if r["username"] == a.Username && r["activity"] == a.Name {
			r["role"] = a.Role
			r["hours_per_week"] = formatFloat(a.HoursPerWeek)
			r["description"] = a.Description
			updated = true
			break
		}
	}
	if !updated {
		rows = append(rows, row{
			"username":       a.Username,
			"activity":       a.Name,
			"role":           a.Role,
			"hours_per_week": formatFloat(a.HoursPerWeek),
			"description":    a.Description,
		})
	}
	if err = repo.db.eca.save(header, rows); err != nil {
		return student.Activity{}, err
	}
	return a, nil
}

func (repo *studentRepository) queryActivities(username string) ([]student.Activity, error) {
	if err := repo.db.eca.lock(); err != nil {
		return nil, err
	}
	defer repo.db.eca.unlock()

	_, rows, err := repo.db.eca.load()
	if err != nil {
		return nil, err
	}
	activities := make([]student.Activity, 0, len(rows))
	for _, r := range rows {
		if username != "" && r["username"] != username {
			continue
		}
		act, err := decodeActivity(r)
		if err != nil {
			return nil, err
		}
		activities = append(activities, act)
	}
	return activities, nil
}

func (repo *studentRepository) QueryActivities(username string) ([]student.Activity, error) {
	activities, err := repo.queryActivities(username)
	if err != nil {
		return nil, err
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].Name < activities[j].Name })
	return activities, nil
}

func (repo *studentRepository) QueryAllActivities() ([]student.Activity, error) {
	return repo.queryActivities("")
}
