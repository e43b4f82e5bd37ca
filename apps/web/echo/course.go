package echoweb

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/course"
	"github.com/trezcool/tutorhub/core/profile"
)

const defaultPopularLimit = 10

type courseViews struct {
	validate *validator.Validate
}

func registerCourseViews(app *echo.Echo, deps ServerDeps) {
	views := courseViews{validate: deps.Validate}

	// any authenticated user
	cg := app.Group("", guard())
	cg.GET("/courses", views.query)
	cg.GET("/courses/:id", views.retrieve)
	cg.GET("/popular-courses", views.popular)

	// teaching roles only
	tg := app.Group("/admin", guard(profile.RoleTutor, profile.RoleAdmin))
	tg.GET("/create-course", views.createPage)
	tg.POST("/create-course", views.create)
	tg.GET("/my-courses", views.mine)
	tg.GET("/my-courses/edit/:id", views.edit)
	tg.PUT("/my-courses/edit/:id", views.update)
	tg.DELETE("/my-courses/edit/:id", views.destroy)
}

// Handlers

func (views *courseViews) query(ctx echo.Context) error {
	cs := contextSession(ctx)
	cs.courses.FetchAll(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, courseListResponse(cs))
}

func (views *courseViews) retrieve(ctx echo.Context) error {
	cs := contextSession(ctx)
	crs := cs.courses.FetchByID(ctx.Request().Context(), ctx.Param("id"))
	if crs == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (views *courseViews) popular(ctx echo.Context) error {
	limit := defaultPopularLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	cs := contextSession(ctx)
	cs.courses.FetchAll(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, echo.Map{
		"courses": cs.courses.Popular(limit),
		"error":   cs.courses.Err(),
	})
}

// createPage renders the course form shell; the form posts back to the
// same path.
func (views *courseViews) createPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"page":   "create-course",
		"course": course.NewCourse{Topics: []course.Topic{}},
	})
}

func (views *courseViews) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(views.validate); err != nil {
		return err
	}

	cs := contextSession(ctx)
	crs := cs.courses.Create(ctx.Request().Context(), data)
	if crs == nil {
		return courseOpError(cs)
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (views *courseViews) mine(ctx echo.Context) error {
	cs := contextSession(ctx)
	userID, _ := cs.auth.CurrentUserID()
	cs.courses.FetchByOwner(ctx.Request().Context(), userID)
	return ctx.JSON(http.StatusOK, courseListResponse(cs))
}

func (views *courseViews) edit(ctx echo.Context) error {
	cs := contextSession(ctx)
	crs := cs.courses.FetchByID(ctx.Request().Context(), ctx.Param("id"))
	if crs == nil {
		return errHttpNotFound
	}
	if err := checkCourseOwner(cs, *crs); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (views *courseViews) update(ctx echo.Context) error {
	cs := contextSession(ctx)
	orig := cs.courses.FetchByID(ctx.Request().Context(), ctx.Param("id"))
	if orig == nil {
		return errHttpNotFound
	}
	if err := checkCourseOwner(cs, *orig); err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(views.validate, *orig); err != nil {
		return err
	}

	crs := cs.courses.Update(ctx.Request().Context(), orig.ID, data)
	if crs == nil {
		return courseOpError(cs)
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (views *courseViews) destroy(ctx echo.Context) error {
	cs := contextSession(ctx)
	crs := cs.courses.FetchByID(ctx.Request().Context(), ctx.Param("id"))
	if crs == nil {
		return errHttpNotFound
	}
	if err := checkCourseOwner(cs, *crs); err != nil {
		return err
	}

	if !cs.courses.Delete(ctx.Request().Context(), crs.ID) {
		return courseOpError(cs)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// checkCourseOwner allows mutation by the course's creator or an admin.
func checkCourseOwner(cs *clientSession, crs course.Course) error {
	if role, _ := cs.auth.Role(); role == profile.RoleAdmin {
		return nil
	}
	if userID, ok := cs.auth.CurrentUserID(); ok && userID == crs.UserID {
		return nil
	}
	return errHttpForbidden
}

// courseListResponse carries the cached list plus the error slot; fetch
// failures surface as a message next to an empty list, never as a crash.
func courseListResponse(cs *clientSession) echo.Map {
	return echo.Map{
		"courses": cs.courses.Courses(),
		"error":   cs.courses.Err(),
	}
}

// courseOpError translates the controller's error slot after a failed write.
func courseOpError(cs *clientSession) error {
	switch msg := cs.courses.Err(); msg {
	case course.ErrNotFound.Error():
		return errHttpNotFound
	case course.ErrNotAuthenticated.Error():
		return echo.NewHTTPError(http.StatusUnauthorized, msg)
	case "":
		return echo.NewHTTPError(http.StatusInternalServerError)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
}
