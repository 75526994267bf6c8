package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/fitdeskhq/fitdesk/apps/api/echo"
	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/announcement"
	"github.com/fitdeskhq/fitdesk/core/badge"
	"github.com/fitdeskhq/fitdesk/core/manual"
	"github.com/fitdeskhq/fitdesk/core/notification"
	"github.com/fitdeskhq/fitdesk/core/report"
	"github.com/fitdeskhq/fitdesk/core/schedule"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
	"github.com/fitdeskhq/fitdesk/core/task"
	"github.com/fitdeskhq/fitdesk/core/user"
	emailsvc "github.com/fitdeskhq/fitdesk/services/email"
	logsvc "github.com/fitdeskhq/fitdesk/services/logger"
	"github.com/fitdeskhq/fitdesk/storage/database"
	sqlxrepos "github.com/fitdeskhq/fitdesk/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	sdb := sqlx.NewDb(db, "postgres")

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(logger)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sdb), mailSvc, logger, conf)
	taskSvc := task.NewService(sqlxrepos.NewTaskRepository(sdb))
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(sdb), usrSvc, mailSvc, logger)
	annSvc := announcement.NewService(sqlxrepos.NewAnnouncementRepository(sdb))
	repSvc := report.NewService(sqlxrepos.NewReportRepository(sdb))
	manSvc := manual.NewService(sqlxrepos.NewManualRepository(sdb))
	suggSvc := suggestion.NewService(sqlxrepos.NewSuggestionRepository(sdb))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	badges := badge.NewAggregator(badge.Counters{
		Announcements: annSvc,
		Tasks:         taskSvc,
		Reports:       repSvc,
		Manuals:       manSvc,
		Notifications: notifSvc,
		Suggestions:   suggSvc,
	}, logger)

	scanner := schedule.NewScanner(taskSvc, notifSvc, logger)
	reconciler := schedule.NewReconciler(taskSvc, usrSvc, logger, conf.LegacyCachePath)
	scheduler := schedule.NewScheduler(scanner, badges, reconciler, logger, conf)
	scheduler.Start(context.Background(), systemUserID(usrSvc, logger))

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		TaskSvc:         taskSvc,
		NotificationSvc: notifSvc,
		AnnouncementSvc: annSvc,
		ReportSvc:       repSvc,
		ManualSvc:       manSvc,
		SuggestionSvc:   suggSvc,
		Badges:          badges,
		Scheduler:       scheduler,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load; this also stops the scheduler
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// systemUserID picks the user the background scheduler acts as: the oldest
// active admin account. Legacy cache imports and badge refreshes are billed
// to this user until a real session-scoped scheduler exists.
func systemUserID(svc *user.Service, logger core.Logger) string {
	active := true
	admins, err := svc.Query(context.Background(), &user.QueryFilter{Roles: user.AdminRoles, IsActive: &active})
	if err != nil || len(admins) == 0 {
		logger.Warn("no active admin found; scheduler runs unattributed", err)
		return ""
	}
	return admins[0].ID
}
