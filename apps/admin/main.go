package main

import (
	"log"
	"os"

	"github.com/shule-project/shule/core"
	"github.com/shule-project/shule/core/auth"
	"github.com/shule-project/shule/core/student"
	"github.com/shule-project/shule/core/user"
	logsvc "github.com/shule-project/shule/services/logger"
	"github.com/shule-project/shule/storage/csvdb"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()

	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug || conf.Rollbar.Token == "" {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up storage
	db, err := csvdb.Open(conf)
	errAndDie(err)
	usrRepo := csvdb.NewUserRepository(db)
	stdRepo := csvdb.NewStudentRepository(db)

	// start CLI
	cli := commandLine{
		db:        db,
		usrSvc:    user.NewService(usrRepo),
		stdSvc:    student.NewService(stdRepo),
		authSvc:   auth.NewService(usrRepo),
		analytics: student.NewAnalytics(stdRepo, usrRepo),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error())
	}
}
