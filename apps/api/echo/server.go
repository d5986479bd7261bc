// Package echoapi is the HTTP surface of the portal: authentication, the
// role-gated account and review endpoints and the dashboard dispatch.
package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/account"
	"github.com/trezcool/maoni/core/notify"
	"github.com/trezcool/maoni/core/review"
	"github.com/trezcool/maoni/core/session"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		AccountSvc *account.Service
		ReviewSvc  *review.Service
		NotifySvc  *notify.Service
		Sessions   *session.Store
		Logger     core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		ShutdownSignal() <-chan struct{}
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan struct{}, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	resolver := session.NewResolver(s.opts.AccountSvc, s.opts.Sessions)
	student := guardMiddleware(session.NewGuard(resolver, account.RoleStudent))
	teacher := guardMiddleware(session.NewGuard(resolver, account.RoleTeacher))
	admin := guardMiddleware(session.NewGuard(resolver, account.RoleAdmin))

	registerAccountAPI(v1, jwt, admin, s.opts)
	registerDashboardAPI(v1, jwt, resolver)
	registerReviewAPI(v1, jwt, guards{student: student, teacher: teacher, admin: admin}, s.opts)
}

// ShutdownSignal receives once when the error handler catches a shutdown error.
func (s *server) ShutdownSignal() <-chan struct{} { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- struct{}{}:
	default:
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Maoni API!")
}

type guards struct {
	student echo.MiddlewareFunc
	teacher echo.MiddlewareFunc
	admin   echo.MiddlewareFunc
}
