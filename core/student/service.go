package student

import (
	"errors"
)

var (
	// errors
	ErrInvalidGrade = errors.New("grade must be a number between 0 and 100")
	ErrInvalidHours = errors.New("hours per week must be a non-negative number")

	// validation sentinels per input struct
	gradeSentinels = map[string]error{"gte": ErrInvalidGrade, "lte": ErrInvalidGrade}
	hoursSentinels = map[string]error{"gte": ErrInvalidHours}
)

type (
	Repository interface {
		// UpsertGrade inserts or overwrites the (username, subject) pair. The
		// student's existence is verified inside the same critical section as
		// the write; user.ErrNotFound is returned for unknown students.
		UpsertGrade(g Grade) (Grade, error)
		// QueryGrades returns the student's grades sorted by subject.
		QueryGrades(username string) ([]Grade, error)
		QueryAllGrades() ([]Grade, error)
		// UpsertActivity inserts or overwrites the (username, activity) pair,
		// with the same existence guarantee as UpsertGrade.
		UpsertActivity(a Activity) (Activity, error)
		// QueryActivities returns the student's activities sorted by name.
		QueryActivities(username string) ([]Activity, error)
		QueryAllActivities() ([]Activity, error)
	}

	Service interface {
		UpsertGrade(ng NewGrade) (Grade, error)
		Grades(username string) ([]Grade, error)
		UpsertActivity(na NewActivity) (Activity, error)
		Activities(username string) ([]Activity, error)
	}

	service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) UpsertGrade(ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}
	return svc.repo.UpsertGrade(Grade{
		Username: ng.Username,
		Subject:  ng.Subject,
		Score:    ng.Score,
	})
}

func (svc *service) Grades(username string) ([]Grade, error) {
	return svc.repo.QueryGrades(username)
}

func (svc *service) UpsertActivity(na NewActivity) (Activity, error) {
	if err := na.Validate(); err != nil {
		return Activity{}, err
	}
	return svc.repo.UpsertActivity(Activity{
		Username:     na.Username,
		Name:         na.Name,
		Role:         na.Role,
		HoursPerWeek: na.HoursPerWeek,
		Description:  na.Description,
	})
}

func (svc *service) Activities(username string) ([]Activity, error) {
	return svc.repo.QueryActivities(username)
}
