package testutil

import (
	"testing"
	"time"

	"github.com/shule-project/shule/core"
	"github.com/shule-project/shule/core/student"
	"github.com/shule-project/shule/core/user"
)

// NewConfig returns a Config pointed at a throwaway data directory.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	conf := &core.Config{
		Debug:   true,
		Env:     "TEST",
		AppName: "Shule",
		Build:   "test",
	}
	conf.Storage.DataDir = t.TempDir()
	conf.Storage.LockTimeout = 2 * time.Second
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, fullName, role, email, pwd string,
	year int,
) user.User {
	t.Helper()
	usr := user.User{
		Username:       uname,
		FullName:       fullName,
		Role:           role,
		Email:          email,
		Phone:          "0000000000",
		Address:        "Student Address",
		Department:     "General",
		YearOfStudy:    year,
		EnrollmentDate: "2023-09-01",
	}
	usr, err := repo.CreateUser(usr, user.Credential{Username: uname, Password: pwd})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateGrade(t *testing.T, repo student.Repository, uname, subject string, score float64) student.Grade {
	t.Helper()
	g, err := repo.UpsertGrade(student.Grade{Username: uname, Subject: subject, Score: score})
	if err != nil {
		t.Fatalf("UpsertGrade() failed: %v", err)
	}
	return g
}

func CreateActivity(t *testing.T, repo student.Repository, uname, name, role string, hours float64) student.Activity {
	t.Helper()
	act, err := repo.UpsertActivity(student.Activity{
		Username:     uname,
		Name:         name,
		Role:         role,
		HoursPerWeek: hours,
	})
	if err != nil {
		t.Fatalf("UpsertActivity() failed: %v", err)
	}
	return act
}
