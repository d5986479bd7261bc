package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/maoni/apps/api/echo"
	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/account"
	"github.com/trezcool/maoni/core/notify"
	"github.com/trezcool/maoni/core/review"
	"github.com/trezcool/maoni/core/session"
	emailsvc "github.com/trezcool/maoni/services/email"
	logsvc "github.com/trezcool/maoni/services/logger"
	"github.com/trezcool/maoni/storage/database"
	sqlxrepos "github.com/trezcool/maoni/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// set up logger
	stdLog := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if core.Conf.RollbarToken != "" && !core.Conf.Debug {
		logger = logsvc.NewRollbarLogger(stdLog, core.Conf)
	} else {
		logger = logsvc.NewStdLogger(stdLog)
	}

	// set up DB
	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	acctSvc := account.NewService(sqlxrepos.NewAccountRepository(db), mailSvc, logger)
	revSvc := review.NewService(
		sqlxrepos.NewTopicRepository(db),
		sqlxrepos.NewFeedbackRepository(db),
		acctSvc,
		logger,
	)

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	server := echoapi.NewServer(&echoapi.Options{
		Address:    core.Conf.Server.Address,
		AccountSvc: acctSvc,
		ReviewSvc:  revSvc,
		NotifySvc:  notify.NewService(),
		Sessions:   session.NewStore(),
		Logger:     logger,
	})
	go server.Start()

	// block until an OS signal or the error handler asks for a shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", s))
	case <-server.ShutdownSignal():
		logger.Info("server: Start shutdown...")
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB() (db *sqlx.DB, err error) {
	if err = database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}
	if db, err = database.Open(core.Conf); err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
