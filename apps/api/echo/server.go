// Package echoapi exposes the portal over HTTP.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		UserSvc         *user.Service
		TaskSvc         *task.Service
		NotificationSvc *notification.Service
		AnnouncementSvc *announcement.Service
		ReportSvc       *report.Service
		ManualSvc       *manual.Service
		SuggestionSvc   *suggestion.Service

		Badges    *badge.Aggregator
		Scheduler *schedule.Scheduler

		DisableReqLogs bool
	}

	Server struct {
		deps ServerDeps
		app  *echo.Echo

		errCh      chan error
		shutdownCh chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, s.deps.UserSvc)
	registerTaskAPI(v1, jwt, s.deps.TaskSvc, s.deps.Badges)
	registerNotificationAPI(v1, jwt, s.deps.NotificationSvc, s.deps.Badges)
	registerAnnouncementAPI(v1, jwt, s.deps.AnnouncementSvc, s.deps.Badges)
	registerReportAPI(v1, jwt, s.deps.ReportSvc)
	registerManualAPI(v1, jwt, s.deps.ManualSvc)
	registerSuggestionAPI(v1, jwt, s.deps.SuggestionSvc)
	registerBadgeAPI(v1, jwt, s.deps.Badges, s.deps.Scheduler)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.ServerAddress()); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *Server) Errors() <-chan error            { return s.errCh }
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdownCh }

func (s *Server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.deps.Scheduler != nil {
		s.deps.Scheduler.Stop()
	}
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to FitDesk API!")
}
