package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/volatiletech/null/v8"
	"golang.org/x/term"

	"github.com/shule-project/shule/core/auth"
	"github.com/shule-project/shule/core/student"
	"github.com/shule-project/shule/core/user"
	"github.com/shule-project/shule/storage/csvdb"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *csvdb.DB
	usrSvc    user.Service
	stdSvc    student.Service
	authSvc   auth.Service
	analytics *student.Analytics
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -fullname NAME -role ROLE [-email EMAIL] [-department DEPT] [-year N] - create a user; the password will be prompted")
	fmt.Println("  updateuser -username USERNAME [-fullname NAME] [-email EMAIL] [-phone PHONE] [-address ADDR] [-department DEPT] [-year N] - update the given profile fields only")
	fmt.Println("  deleteuser -username USERNAME - delete a user and all their records")
	fmt.Println("  listusers [-role ROLE] [-search TEXT] - list matching users")
	fmt.Println("  resetpassword -username USERNAME - reset a user's password; the password will be prompted")
	fmt.Println("  checklogin -username USERNAME - verify a user's credentials; the password will be prompted")
	fmt.Println("  setgrade -username USERNAME -subject SUBJECT -grade SCORE - record or overwrite a grade")
	fmt.Println("  seteca -username USERNAME -activity NAME [-role ROLE] [-hours N] [-description TEXT] - record or overwrite an extracurricular activity")
	fmt.Println("  report - print population statistics, subject averages, the grade histogram and activity participation")
	fmt.Println("  migrate - convert legacy wide-form grade/eca files to the long form")
}

// promptPassword reads a password without echo. An empty password is a usage
// error for every subcommand that prompts.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "adduser":
		return cli.runAddUser(args[2:])
	case "updateuser":
		return cli.runUpdateUser(args[2:])
	case "deleteuser":
		return cli.runDeleteUser(args[2:])
	case "listusers":
		return cli.runListUsers(args[2:])
	case "resetpassword":
		return cli.runResetPassword(args[2:])
	case "checklogin":
		return cli.runCheckLogin(args[2:])
	case "setgrade":
		return cli.runSetGrade(args[2:])
	case "seteca":
		return cli.runSetECA(args[2:])
	case "report":
		return cli.report()
	case "migrate":
		return cli.migrate()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) runAddUser(args []string) error {
	cmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	uname := cmd.String("username", "", "The new user's username.")
	fullName := cmd.String("fullname", "", "The new user's full name.")
	role := cmd.String("role", "", "Either admin or student.")
	email := cmd.String("email", "", "Optional email address.")
	department := cmd.String("department", "", "Optional department.")
	year := cmd.Int("year", 0, "Optional year of study (0-4).")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *uname == "" || *fullName == "" || *role == "" {
		cmd.Usage()
		return errHelp
	}
	pwd, err := promptPassword()
	if err != nil {
		return err
	}
	if pwd == "" {
		cmd.Usage()
		return errHelp
	}
	return cli.addUser(*uname, *fullName, *role, *email, *department, pwd, *year)
}

func (cli *commandLine) runUpdateUser(args []string) error {
	cmd := flag.NewFlagSet("updateuser", flag.ExitOnError)
	uname := cmd.String("username", "", "The user's username.")
	fullName := cmd.String("fullname", "", "New full name.")
	email := cmd.String("email", "", "New email address.")
	phone := cmd.String("phone", "", "New phone number.")
	address := cmd.String("address", "", "New address.")
	department := cmd.String("department", "", "New department.")
	year := cmd.Int("year", 0, "New year of study (0-4).")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		cmd.Usage()
		return errHelp
	}

	// only flags the caller actually set become part of the patch
	uu := user.UpdateUser{}
	touched := false
	cmd.Visit(func(f *flag.Flag) {
		touched = true
		switch f.Name {
		case "fullname":
			uu.FullName = null.StringFrom(*fullName)
		case "email":
			uu.Email = null.StringFrom(*email)
		case "phone":
			uu.Phone = null.StringFrom(*phone)
		case "address":
			uu.Address = null.StringFrom(*address)
		case "department":
			uu.Department = null.StringFrom(*department)
		case "year":
			uu.YearOfStudy = null.IntFrom(*year)
		}
	})
	if !touched {
		cmd.Usage()
		return errHelp
	}
	return cli.updateUser(*uname, uu)
}

func (cli *commandLine) runDeleteUser(args []string) error {
	cmd := flag.NewFlagSet("deleteuser", flag.ExitOnError)
	uname := cmd.String("username", "", "The user's username.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		cmd.Usage()
		return errHelp
	}
	return cli.usrSvc.Delete(*uname)
}

func (cli *commandLine) runListUsers(args []string) error {
	cmd := flag.NewFlagSet("listusers", flag.ExitOnError)
	role := cmd.String("role", "", "Filter by role.")
	search := cmd.String("search", "", "Case-insensitive match on username, full name or email.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	return cli.listUsers(user.QueryFilter{Role: *role, Search: *search})
}

func (cli *commandLine) runResetPassword(args []string) error {
	cmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	uname := cmd.String("username", "", "The user's username. The password will be prompted next.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		cmd.Usage()
		return errHelp
	}
	pwd, err := promptPassword()
	if err != nil {
		return err
	}
	if pwd == "" {
		cmd.Usage()
		return errHelp
	}
	return cli.resetPassword(*uname, pwd)
}

func (cli *commandLine) runCheckLogin(args []string) error {
	cmd := flag.NewFlagSet("checklogin", flag.ExitOnError)
	uname := cmd.String("username", "", "The user's username. The password will be prompted next.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		cmd.Usage()
		return errHelp
	}
	pwd, err := promptPassword()
	if err != nil {
		return err
	}
	usr, err := cli.authSvc.Authenticate(*uname, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "ok: %s (%s)\n", usr.Username, usr.Role)
	return nil
}

func (cli *commandLine) runSetGrade(args []string) error {
	cmd := flag.NewFlagSet("setgrade", flag.ExitOnError)
	uname := cmd.String("username", "", "The student's username.")
	subject := cmd.String("subject", "", "The subject name.")
	grade := cmd.String("grade", "", "The score, 0 to 100.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *uname == "" || *subject == "" || *grade == "" {
		cmd.Usage()
		return errHelp
	}
	return cli.setGrade(*uname, *subject, *grade)
}

func (cli *commandLine) runSetECA(args []string) error {
	cmd := flag.NewFlagSet("seteca", flag.ExitOnError)
	uname := cmd.String("username", "", "The student's username.")
	activity := cmd.String("activity", "", "The activity name.")
	role := cmd.String("role", "", "The student's role in the activity.")
	hours := cmd.String("hours", "0", "Hours per week spent on the activity.")
	description := cmd.String("description", "", "Optional description.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *uname == "" || *activity == "" {
		cmd.Usage()
		return errHelp
	}
	return cli.setECA(*uname, *activity, *role, *hours, *description)
}
