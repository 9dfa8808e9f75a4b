package main

import (
	"github.com/shule-project/shule/core/user"
)

// addUser creates a user.User together with its credential.
func (cli *commandLine) addUser(uname, fullName, role, email, department, pwd string, year int) error {
	nu := user.NewUser{
		Username:    uname,
		FullName:    fullName,
		Password:    pwd,
		Role:        role,
		Email:       email,
		Department:  department,
		YearOfStudy: year,
	}
	if _, err := cli.usrSvc.Create(nu); err != nil {
		return err
	}
	return nil
}
