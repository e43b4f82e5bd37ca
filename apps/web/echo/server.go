package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/course"
	"github.com/trezcool/tutorhub/core/profile"
)

type (
	ServerDeps struct {
		Logger core.Logger
		// NewBackend builds one backend client per browser session, so
		// session-change events stay scoped to their own client.
		NewBackend func() auth.Backend
		Profiles   profile.Repository
		Courses    course.Repository
		EmailSvc   core.EmailService
		StatsSvc   core.StatsService
		Validate   *validator.Validate
		Translator ut.Translator

		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		addr     string
		deps     ServerDeps
		app      *echo.Echo
		sessions *sessionRegistry
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(addr string, deps ServerDeps) Server {
	s := &server{
		addr:     addr,
		deps:     deps,
		app:      echo.New(),
		sessions: newSessionRegistry(deps),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.Use(s.sessions.middleware())

	registerAuthViews(s.app, s.sessions, s.deps)
	registerCourseViews(s.app, s.deps)
	registerDashboardViews(s.app, s.deps)
	registerProfileViews(s.app, s.deps)
	registerMiscViews(s.app, s.deps)

	// every path outside the route table resolves by role; there is no 404 page
	s.app.Any("/*", fallback)
	s.app.GET("/", fallback)
}

func (s *server) Start() {
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func fallback(ctx echo.Context) error {
	cs := contextSession(ctx)
	return ctx.Redirect(http.StatusSeeOther, auth.Fallback(cs.auth.State()))
}
