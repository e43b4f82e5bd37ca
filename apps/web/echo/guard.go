package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/profile"
)

// guard gates a route group on the pure guard decision. An empty role list
// admits any authenticated user. Denial always redirects; the protected
// handler never runs for a denied state.
func guard(required ...profile.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cs := contextSession(ctx)
			st := cs.auth.State()

			switch auth.Resolve(st, required) {
			case auth.DecisionPending:
				return ctx.JSON(http.StatusOK, echo.Map{"loading": true})
			case auth.DecisionRedirectLogin:
				return ctx.Redirect(http.StatusSeeOther, "/login")
			case auth.DecisionRedirectHome:
				return ctx.Redirect(http.StatusSeeOther, st.Role.Home())
			}
			return next(ctx)
		}
	}
}
