package main

import (
	"github.com/shule-project/shule/core/student"
)

// setGrade records or overwrites one (student, subject) grade. Raw values are
// parsed here so flag parsing stays string-typed and the service sees the same
// validation path as any other caller.
func (cli *commandLine) setGrade(uname, subject, rawGrade string) error {
	score, err := student.ParseScore(rawGrade)
	if err != nil {
		return err
	}
	_, err = cli.stdSvc.UpsertGrade(student.NewGrade{
		Username: uname,
		Subject:  subject,
		Score:    score,
	})
	return err
}

func (cli *commandLine) setECA(uname, activity, role, rawHours, description string) error {
	hours, err := student.ParseHours(rawHours)
	if err != nil {
		return err
	}
	_, err = cli.stdSvc.UpsertActivity(student.NewActivity{
		Username:     uname,
		Name:         activity,
		Role:         role,
		HoursPerWeek: hours,
		Description:  description,
	})
	return err
}
