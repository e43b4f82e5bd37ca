package echoweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/profile"
)

type profileViews struct {
	validate *validator.Validate
}

func registerProfileViews(app *echo.Echo, deps ServerDeps) {
	views := profileViews{validate: deps.Validate}

	pg := app.Group("/profile", guard())
	pg.GET("", views.retrieve)
	pg.PUT("", views.update)
}

// Handlers

func (views *profileViews) retrieve(ctx echo.Context) error {
	cs := contextSession(ctx)
	prof, ok := cs.auth.Profile()
	if !ok {
		// logged in but the profile fetch failed; the next session event retries
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (views *profileViews) update(ctx echo.Context) error {
	cs := contextSession(ctx)
	orig, ok := cs.auth.Profile()
	if !ok {
		return errHttpNotFound
	}

	var data profile.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(views.validate, orig); err != nil {
		return err
	}

	if err := cs.auth.UpdateProfile(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "updating profile")
	}

	prof, _ := cs.auth.Profile()
	return ctx.JSON(http.StatusOK, prof)
}
