package student

import (
	"strconv"

	"github.com/shule-project/shule/core"
)

// Grade is one score a student earned in one subject. At most one Grade
// exists per (username, subject) pair; writing the pair again overwrites the
// stored score.
type Grade struct {
	Username string  `json:"username"`
	Subject  string  `json:"subject"`
	Score    float64 `json:"grade"`
}

// Activity is one extracurricular engagement of a student. At most one
// Activity exists per (username, activity) pair.
type Activity struct {
	Username     string  `json:"username"`
	Name         string  `json:"activity"`
	Role         string  `json:"role"`
	HoursPerWeek float64 `json:"hours_per_week"`
	Description  string  `json:"description"`
}

// NewGrade contains information needed to record a grade.
type NewGrade struct {
	Username string  `json:"username" validate:"required"`
	Subject  string  `json:"subject" validate:"required"`
	Score    float64 `json:"grade" validate:"gte=0,lte=100"`
}

func (ng *NewGrade) Validate() error {
	ng.Username = core.CleanString(ng.Username)
	ng.Subject = core.CleanString(ng.Subject)

	if err := core.Validate.Struct(ng); err != nil {
		return core.TranslateValidatorError(err, gradeSentinels)
	}
	return nil
}

// NewActivity contains information needed to record an extracurricular
// activity.
type NewActivity struct {
	Username     string  `json:"username" validate:"required"`
	Name         string  `json:"activity" validate:"required"`
	Role         string  `json:"role"`
	HoursPerWeek float64 `json:"hours_per_week" validate:"gte=0"`
	Description  string  `json:"description"`
}

func (na *NewActivity) Validate() error {
	na.Username = core.CleanString(na.Username)
	na.Name = core.CleanString(na.Name)
	na.Role = core.CleanString(na.Role)
	na.Description = core.CleanString(na.Description)

	if err := core.Validate.Struct(na); err != nil {
		return core.TranslateValidatorError(err, hoursSentinels)
	}
	return nil
}

// ParseScore parses a raw grade value, reporting ErrInvalidGrade on anything
// non-numeric. Range checking happens in NewGrade.Validate.
func ParseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(core.CleanString(s), 64)
	if err != nil {
		return 0, core.NewValidationError(ErrInvalidGrade, core.FieldError{
			Field: "grade",
			Error: ErrInvalidGrade.Error(),
		})
	}
	return v, nil
}

// ParseHours parses a raw hours-per-week value, reporting ErrInvalidHours on
// anything non-numeric.
func ParseHours(s string) (float64, error) {
	v, err := strconv.ParseFloat(core.CleanString(s), 64)
	if err != nil {
		return 0, core.NewValidationError(ErrInvalidHours, core.FieldError{
			Field: "hours_per_week",
			Error: ErrInvalidHours.Error(),
		})
	}
	return v, nil
}
