package echoweb

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/profile"
)

const referralCookieName = "th_ref"

type miscViews struct {
	mailSvc  core.EmailService
	validate *validator.Validate
}

func registerMiscViews(app *echo.Echo, deps ServerDeps) {
	views := miscViews{mailSvc: deps.EmailSvc, validate: deps.Validate}

	cg := app.Group("", guard())
	cg.GET("/about-us", views.about)
	cg.GET("/contact-us", views.contactPage)
	cg.POST("/contact-us", views.contact)

	app.GET("/admin/referral", views.referral, guard(profile.RoleTutor, profile.RoleAdmin))
}

// Handlers

func (views *miscViews) about(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"appName": core.Conf.AppName,
		"about": core.Conf.AppName + " connects students with tutors for " +
			"one-on-one learning. Tutors publish courses; students browse, " +
			"pick what fits and learn at their own pace.",
		"contactEmail": core.Conf.ContactEmailAddr,
	})
}

func (views *miscViews) contactPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"page":         "contact-us",
		"contactEmail": core.Conf.ContactEmailAddr,
	})
}

func (views *miscViews) contact(ctx echo.Context) error {
	var data ContactRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContactRequest")
	}
	if err := data.Validate(views.validate); err != nil {
		return err
	}

	replyTo := mail.Address{Name: data.Name, Address: data.Email}
	views.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{core.Conf.ContactEmail()},
		ReplyTo:     &replyTo,
		Subject:     data.Subject,
		TextContent: fmt.Sprintf("From: %s <%s>\n\n%s", data.Name, data.Email, data.Message),
	})
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Thanks for reaching out! We will get back to you shortly."})
}

// referral hands out the user's share code. Cosmetic; nothing tracks
// redemptions yet.
func (views *miscViews) referral(ctx echo.Context) error {
	cs := contextSession(ctx)
	usr, _ := cs.auth.User()
	code := referralCode(usr.ID)

	ctx.SetCookie(&http.Cookie{
		Name:    referralCookieName,
		Value:   code,
		Path:    "/",
		Expires: time.Now().Add(365 * 24 * time.Hour),
	})
	return ctx.JSON(http.StatusOK, echo.Map{
		"code": code,
		"link": core.Conf.BaseURL + "/signup?ref=" + code,
	})
}

// referralCode derives a stable share code from the uuid user id.
func referralCode(userID string) string {
	code := strings.ReplaceAll(userID, "-", "")
	if len(code) > 8 {
		code = code[:8]
	}
	return strings.ToUpper(code)
}

type (
	ContactRequest struct {
		Name    string `json:"name" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
		Subject string `json:"subject" validate:"required"`
		Message string `json:"message" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (cr *ContactRequest) Validate(validate *validator.Validate) error {
	cr.Name = core.CleanString(cr.Name)
	cr.Email = core.CleanString(cr.Email, true /* lower */)
	cr.Subject = core.CleanString(cr.Subject)
	cr.Message = strings.TrimSpace(cr.Message)
	return validate.Struct(cr)
}
