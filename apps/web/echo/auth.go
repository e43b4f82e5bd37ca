package echoweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/profile"
)

type authViews struct {
	sessions *sessionRegistry
	validate *validator.Validate
}

func registerAuthViews(app *echo.Echo, sessions *sessionRegistry, deps ServerDeps) {
	views := authViews{sessions: sessions, validate: deps.Validate}

	app.GET("/login", views.loginPage)
	app.POST("/login", views.login)
	app.GET("/signup", views.signupPage)
	app.POST("/signup", views.signup)
	app.GET("/role-selection", views.roleSelection)
	app.POST("/logout", views.logout)
}

// Handlers

func (views *authViews) loginPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"page":    "login",
		"appName": core.Conf.AppName,
	})
}

func (views *authViews) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(views.validate); err != nil {
		return err
	}

	cs := contextSession(ctx)
	sess, err := cs.auth.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == auth.ErrInvalidCredentials {
			return core.NewValidationError(auth.ErrInvalidCredentials)
		}
		return errors.Wrap(err, "logging in")
	}

	views.sessions.promote(cs, sess.AccessToken)
	setSessionCookie(ctx, sess)

	// the profile resolved before Login returned, so the role is usable here
	if role, ok := cs.auth.Role(); ok {
		return ctx.Redirect(http.StatusSeeOther, role.Home())
	}
	return ctx.Redirect(http.StatusSeeOther, "/")
}

func (views *authViews) signupPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"page":    "signup",
		"appName": core.Conf.AppName,
		"roles":   profile.AllRoles,
	})
}

func (views *authViews) signup(ctx echo.Context) error {
	var data auth.Signup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Signup")
	}
	if err := data.Validate(views.validate); err != nil {
		return err
	}

	cs := contextSession(ctx)
	sess, err := cs.auth.Signup(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == auth.ErrEmailTaken {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: auth.ErrEmailTaken.Error()})
		}
		return errors.Wrap(err, "signing up")
	}

	views.sessions.promote(cs, sess.AccessToken)
	setSessionCookie(ctx, sess)

	// the profile arrives via the session-change event; land on the
	// fallback until it resolves
	return ctx.Redirect(http.StatusSeeOther, "/")
}

// roleSelection lists the roles a new user may pick from.
func (views *authViews) roleSelection(ctx echo.Context) error {
	roles := make([]echo.Map, 0, len(profile.AllRoles))
	for _, role := range profile.AllRoles {
		roles = append(roles, echo.Map{
			"role":  role,
			"title": role.PanelTitle(),
			"home":  role.Home(),
		})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"roles": roles})
}

func (views *authViews) logout(ctx echo.Context) error {
	cs := contextSession(ctx)

	sess, ok := cs.auth.Session()
	if !ok {
		clearSessionCookie(ctx)
		return ctx.Redirect(http.StatusSeeOther, "/login")
	}
	if err := cs.auth.Logout(ctx.Request().Context()); err != nil {
		// state is untouched on a failed sign-out; the client can retry
		return errors.Wrap(err, "logging out")
	}

	views.sessions.evict(sess.AccessToken)
	clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
