package echoweb

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/course"
)

const (
	sessionCookieName = "th_session"
	sessionContextKey = "clientSession"
)

// clientSession is the per-browser-session controller pair. The course
// controller uses the auth controller as its actor.
type clientSession struct {
	backend auth.Backend
	auth    *auth.Controller
	courses *course.Controller

	ephemeral bool // not yet promoted to the registry; torn down after the request
}

func (cs *clientSession) close() {
	cs.auth.Close()
	if c, ok := cs.backend.(interface{ Close() }); ok {
		c.Close()
	}
}

// sessionRegistry maps access tokens to live controller pairs. A pair is
// created at login/signup or on the first request carrying an unknown
// token (server restart), and torn down at logout.
type sessionRegistry struct {
	deps ServerDeps

	mutex sync.Mutex
	table map[string]*clientSession
}

func newSessionRegistry(deps ServerDeps) *sessionRegistry {
	return &sessionRegistry{
		deps:  deps,
		table: make(map[string]*clientSession),
	}
}

func (r *sessionRegistry) newSession() *clientSession {
	backend := r.deps.NewBackend()
	authCtl := auth.NewController(backend, r.deps.Profiles, r.deps.Logger)
	return &clientSession{
		backend: backend,
		auth:    authCtl,
		courses: course.NewController(r.deps.Courses, authCtl, r.deps.Logger),
	}
}

// resolve returns the pair for the given token, rebuilding state from the
// token on first sight. An invalid token resolves to a signed-out pair.
func (r *sessionRegistry) resolve(ctx echo.Context, token string) *clientSession {
	r.mutex.Lock()
	cs, ok := r.table[token]
	if !ok {
		cs = r.newSession()
		r.table[token] = cs
	}
	r.mutex.Unlock()

	if !ok {
		_ = cs.auth.GetInitialSession(ctx.Request().Context(), token)
	}
	return cs
}

// promote registers a pair under its freshly-minted token (login/signup).
func (r *sessionRegistry) promote(cs *clientSession, token string) {
	cs.ephemeral = false
	r.mutex.Lock()
	r.table[token] = cs
	r.mutex.Unlock()
}

// evict tears down the pair registered under token (logout).
func (r *sessionRegistry) evict(token string) {
	r.mutex.Lock()
	cs, ok := r.table[token]
	delete(r.table, token)
	r.mutex.Unlock()
	if ok {
		cs.close()
	}
}

// middleware attaches a controller pair to every request. Requests without
// a session cookie get an ephemeral signed-out pair.
func (r *sessionRegistry) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cookie, err := ctx.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				cs := r.newSession()
				cs.ephemeral = true
				_ = cs.auth.GetInitialSession(ctx.Request().Context(), "")
				defer func() {
					if cs.ephemeral {
						cs.close()
					}
				}()
				ctx.Set(sessionContextKey, cs)
				return next(ctx)
			}

			ctx.Set(sessionContextKey, r.resolve(ctx, cookie.Value))
			return next(ctx)
		}
	}
}

func contextSession(ctx echo.Context) *clientSession {
	return ctx.Get(sessionContextKey).(*clientSession)
}

func setSessionCookie(ctx echo.Context, sess *auth.Session) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.AccessToken,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   !core.Conf.Debug,
	})
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}
