package main

import (
	"context"
	"os"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	emailsvc "github.com/trezcool/pal/services/email"
	logsvc "github.com/trezcool/pal/services/logger"
	"github.com/trezcool/pal/storage/database"
	"github.com/trezcool/pal/storage/database/sqlxrepos"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf, os.Stdout), conf)

	// set up DB
	ctx := context.Background()
	errAndDie(database.CreateIfNotExist(ctx, conf))
	db, err := database.Open(conf)
	errAndDie(err)
	errAndDie(database.Ping(ctx, db))

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		accSvc: account.NewService(db, sqlxrepos.NewAccountRepository(db), mailSvc),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("setting up database", err)
	}
}
