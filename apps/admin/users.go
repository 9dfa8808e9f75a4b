package main

import (
	"fmt"

	"github.com/shule-project/shule/core/user"
)

func (cli *commandLine) updateUser(uname string, uu user.UpdateUser) error {
	if _, err := cli.usrSvc.Update(uname, uu); err != nil {
		return err
	}
	return nil
}

func (cli *commandLine) listUsers(filter user.QueryFilter) error {
	users, err := cli.usrSvc.Filter(filter)
	if err != nil {
		return err
	}
	for _, usr := range users {
		fmt.Fprintf(cli.out, "%s\t%s\t%s\t%s\n", usr.Username, usr.Role, usr.FullName, usr.Email)
	}
	fmt.Fprintf(cli.out, "%d user(s)\n", len(users))
	return nil
}
