package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shule-project/shule/core"
	"github.com/shule-project/shule/core/auth"
	"github.com/shule-project/shule/core/student"
	"github.com/shule-project/shule/core/user"
	"github.com/shule-project/shule/storage/csvdb"
	testutil "github.com/shule-project/shule/tests"
)

var (
	usrRepo user.Repository
	stdRepo student.Repository
)

func setup(t *testing.T) (*commandLine, *core.Config) {
	t.Helper()
	conf := testutil.NewConfig(t)
	db, err := csvdb.Open(conf)
	if err != nil {
		t.Fatalf("csvdb.Open() failed: %v", err)
	}
	usrRepo = csvdb.NewUserRepository(db)
	stdRepo = csvdb.NewStudentRepository(db)

	// start CLI
	return &commandLine{
		db:        db,
		usrSvc:    user.NewService(usrRepo),
		stdSvc:    student.NewService(stdRepo),
		authSvc:   auth.NewService(usrRepo),
		analytics: student.NewAnalytics(stdRepo, usrRepo),
		out:       &bytes.Buffer{},
	}, conf
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

type pwdExtra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(pwdExtra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-username", "awe", "-fullname", "Awe Test"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "awe", "-fullname", "Awe Test", "-role", "student"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-username", "awe", "-fullname", "Awe Test", "-role", "teacher"}, extra: pwdExtra{pwd: "mdr"}, wantErr: user.ErrInvalidRole},
		{name: "create student", args: []string{"adduser", "-username", "awe", "-fullname", "Awe Test", "-role", "student", "-year", "2"}, extra: pwdExtra{pwd: "mdr"}},
		{name: "duplicate username", args: []string{"adduser", "-username", "awe", "-fullname", "Awe Again", "-role", "student"}, extra: pwdExtra{pwd: "mdr"}, wantErr: user.ErrUsernameExists},
		{name: "create admin", args: []string{"adduser", "-username", "root", "-fullname", "Root Admin", "-role", "admin", "-email", "root@test.cd"}, extra: pwdExtra{pwd: "s3cret"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUserByUsername("awe")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if usr.YearOfStudy != 2 || usr.Email != "awe@university.edu" {
		t.Errorf("adduser stored %+v", usr)
	}
	cred, err := usrRepo.GetCredential("awe")
	if err != nil {
		t.Fatalf("GetCredential() failed: %v", err)
	}
	if cred.Password != "mdr" {
		t.Errorf("adduser stored password %q, want %q", cred.Password, "mdr")
	}
}

func Test_commandLine_updateUser(t *testing.T) {
	cli, _ := setup(t)
	testutil.CreateUser(t, usrRepo, "awe", "Awe Test", user.RoleStudent, "awe@test.cd", "mdr", 1)

	tests := []cliTest{
		{name: "no args", args: []string{"updateuser"}, wantErr: errHelp},
		{name: "username only", args: []string{"updateuser", "-username", "awe"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"updateuser", "-username", "ghost", "-year", "2"}, wantErr: user.ErrNotFound},
		{name: "invalid year", args: []string{"updateuser", "-username", "awe", "-year", "7"}, wantErr: core.ErrInvalidField},
		{name: "patch department and year", args: []string{"updateuser", "-username", "awe", "-department", "Physics", "-year", "3"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUserByUsername("awe")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if usr.Department != "Physics" || usr.YearOfStudy != 3 {
		t.Errorf("updateuser stored %+v", usr)
	}
	if usr.FullName != "Awe Test" {
		t.Errorf("updateuser touched an absent field: %+v", usr)
	}
}

func Test_commandLine_deleteUser(t *testing.T) {
	cli, _ := setup(t)
	testutil.CreateUser(t, usrRepo, "awe", "Awe Test", user.RoleStudent, "", "mdr", 1)

	tests := []cliTest{
		{name: "no args", args: []string{"deleteuser"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"deleteuser", "-username", "ghost"}, wantErr: user.ErrNotFound},
		{name: "delete", args: []string{"deleteuser", "-username", "awe"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := usrRepo.GetUserByUsername("awe"); !errors.Is(err, user.ErrNotFound) {
		t.Errorf("GetUserByUsername() error = %v, want ErrNotFound", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	testutil.CreateUser(t, usrRepo, "awe", "Awe Test", user.RoleStudent, "", "mdr", 1)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "awe"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "ghost"}, extra: pwdExtra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-username", "awe"}, extra: pwdExtra{pwd: "lol"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	cred, err := usrRepo.GetCredential("awe")
	if err != nil {
		t.Fatalf("GetCredential() failed: %v", err)
	}
	if cred.Password != "lol" {
		t.Errorf("resetpassword stored %q, want %q", cred.Password, "lol")
	}
}

func Test_commandLine_checkLogin(t *testing.T) {
	cli, _ := setup(t)
	testutil.CreateUser(t, usrRepo, "awe", "Awe Test", user.RoleStudent, "", "mdr", 1)

	tests := []cliTest{
		{name: "no args", args: []string{"checklogin"}, wantErr: errHelp},
		{name: "wrong password", args: []string{"checklogin", "-username", "awe"}, extra: pwdExtra{pwd: "nope"}, wantErr: auth.ErrAuthenticationFailed},
		{name: "unknown user", args: []string{"checklogin", "-username", "ghost"}, extra: pwdExtra{pwd: "mdr"}, wantErr: auth.ErrAuthenticationFailed},
		{name: "valid login", args: []string{"checklogin", "-username", "awe"}, extra: pwdExtra{pwd: "mdr"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	out := cli.out.(*bytes.Buffer).String()
	if !strings.Contains(out, "ok: awe (student)") {
		t.Errorf("checklogin output = %q", out)
	}
}

func Test_commandLine_setGrade(t *testing.T) {
	cli, _ := setup(t)
	testutil.CreateUser(t, usrRepo, "awe", "Awe Test", user.RoleStudent, "", "mdr", 1)

	tests := []cliTest{
		{name: "no args", args: []string{"setgrade"}, wantErr: errHelp},
		{name: "missing grade", args: []string{"setgrade", "-username", "awe", "-subject", "Math"}, wantErr: errHelp},
		{name: "non-numeric grade", args: []string{"setgrade", "-username", "awe", "-subject", "Math", "-grade", "lol"}, wantErr: student.ErrInvalidGrade},
		{name: "grade out of range", args: []string{"setgrade", "-username", "awe", "-subject", "Math", "-grade", "150"}, wantErr: student.ErrInvalidGrade},
		{name: "unknown student", args: []string{"setgrade", "-username", "ghost", "-subject", "Math", "-grade", "90"}, wantErr: user.ErrNotFound},
		{name: "record grade", args: []string{"setgrade", "-username", "awe", "-subject", "Math", "-grade", "90"}},
		{name: "overwrite grade", args: []string{"setgrade", "-username", "awe", "-subject", "Math", "-grade", "95.5"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	grades, err := stdRepo.QueryGrades("awe")
	if err != nil {
		t.Fatalf("QueryGrades() failed: %v", err)
	}
	if len(grades) != 1 || grades[0].Score != 95.5 {
		t.Errorf("setgrade stored %+v", grades)
	}
}

func Test_commandLine_setECA(t *testing.T) {
	cli, _ := setup(t)
	testutil.CreateUser(t, usrRepo, "awe", "Awe Test", user.RoleStudent, "", "mdr", 1)

	tests := []cliTest{
		{name: "no args", args: []string{"seteca"}, wantErr: errHelp},
		{name: "non-numeric hours", args: []string{"seteca", "-username", "awe", "-activity", "Chess", "-hours", "lots"}, wantErr: student.ErrInvalidHours},
		{name: "negative hours", args: []string{"seteca", "-username", "awe", "-activity", "Chess", "-hours", "-2"}, wantErr: student.ErrInvalidHours},
		{name: "unknown student", args: []string{"seteca", "-username", "ghost", "-activity", "Chess"}, wantErr: user.ErrNotFound},
		{name: "record activity", args: []string{"seteca", "-username", "awe", "-activity", "Chess", "-role", "member", "-hours", "2.5"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	activities, err := stdRepo.QueryActivities("awe")
	if err != nil {
		t.Fatalf("QueryActivities() failed: %v", err)
	}
	if len(activities) != 1 || activities[0].HoursPerWeek != 2.5 || activities[0].Role != "member" {
		t.Errorf("seteca stored %+v", activities)
	}
}

func Test_commandLine_report(t *testing.T) {
	cli, _ := setup(t)
	testutil.CreateUser(t, usrRepo, "awe", "Awe Test", user.RoleStudent, "", "mdr", 1)
	testutil.CreateGrade(t, stdRepo, "awe", "Math", 90)
	testutil.CreateActivity(t, stdRepo, "awe", "Chess", "member", 2)

	if err := cli.run([]string{"admin", "report"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	out := cli.out.(*bytes.Buffer).String()
	for _, section := range []string{
		"Population",
		"students: 1",
		"Subject averages",
		"Math: 90.00",
		"Grade distribution",
		"Activity participation",
		"Chess: 1",
		"Most active students",
	} {
		if !strings.Contains(out, section) {
			t.Errorf("report output missing %q:\n%s", section, out)
		}
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, conf := setup(t)

	// drop a legacy wide-form grades file behind the open handle
	path := filepath.Join(conf.Storage.DataDir, "grades.csv")
	if err := os.WriteFile(path, []byte("username,Math,Science\nawe,80,90\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
	if out := cli.out.(*bytes.Buffer).String(); !strings.Contains(out, "converted") {
		t.Errorf("migrate output = %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if got := string(data); !strings.HasPrefix(got, "username,subject,grade\n") {
		t.Errorf("migrate left header %q", got)
	}
}
