package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/profile"
)

type dashboardViews struct {
	profiles profile.Repository
	stats    core.StatsService
}

func registerDashboardViews(app *echo.Echo, deps ServerDeps) {
	views := dashboardViews{profiles: deps.Profiles, stats: deps.StatsSvc}

	app.GET("/home", views.home, guard(profile.RoleTutor, profile.RoleAdmin))

	sg := app.Group("/student", guard(profile.RoleStudent))
	sg.GET("/dashboard", views.studentDashboard)
	sg.GET("/my-courses", views.studentCourses)

	app.GET("/admin/users", views.users, guard(profile.RoleAdmin))
}

// Handlers

// home is the tutor/admin dashboard.
func (views *dashboardViews) home(ctx echo.Context) error {
	cs := contextSession(ctx)
	prof, _ := cs.auth.Profile()

	stats, err := views.stats.TutorStats(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "fetching tutor stats")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"profile": prof,
		"panel":   prof.Role.PanelTitle(),
		"nav":     prof.Role.NavItems(),
		"stats":   stats,
	})
}

func (views *dashboardViews) studentDashboard(ctx echo.Context) error {
	cs := contextSession(ctx)
	prof, _ := cs.auth.Profile()

	stats, err := views.stats.StudentStats(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "fetching student stats")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"profile": prof,
		"panel":   prof.Role.PanelTitle(),
		"nav":     prof.Role.NavItems(),
		"stats":   stats,
	})
}

// studentCourses is the "My Learning" view.
// TODO: enrollment tracking; the enrolled list stays empty until it lands.
func (views *dashboardViews) studentCourses(ctx echo.Context) error {
	cs := contextSession(ctx)
	cs.courses.FetchAll(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, echo.Map{
		"enrolled":  []interface{}{},
		"suggested": cs.courses.Popular(defaultPopularLimit),
		"error":     cs.courses.Err(),
	})
}

// users lists every profile; admin only.
func (views *dashboardViews) users(ctx echo.Context) error {
	profs, err := views.profiles.QueryAllProfiles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profs == nil {
		profs = []profile.Profile{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"users": profs})
}
