package course

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutorhub/core"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrNotAuthenticated = errors.New("user must be logged in to add a course")
)

// Topic is one ordered unit of course content.
type Topic struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content"`
}

// OwnerInfo is the denormalized owner profile joined at read time.
type OwnerInfo struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// Course is a tutor-authored content unit. Mutable only by its creator;
// the backend enforces that, not the client.
type Course struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	Duration    string     `json:"duration"` // free text, e.g. "6 weeks"
	Topics      []Topic    `json:"topics"`
	UserID      string     `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	Owner       *OwnerInfo `json:"profiles,omitempty"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Duration    string  `json:"duration"`
	Topics      []Topic `json:"topics" validate:"omitempty,dive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Duration = core.CleanString(nc.Duration)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an
// existing Course. Unspecified fields fall back to the existing values.
type UpdateCourse struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Duration    string  `json:"duration"`
	Topics      []Topic `json:"topics" validate:"omitempty,dive"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate, orig Course) error {
	if uc.Title = core.CleanString(uc.Title); uc.Title == "" {
		uc.Title = orig.Title
	}
	if uc.Description = core.CleanString(uc.Description); uc.Description == "" {
		uc.Description = orig.Description
	}
	if uc.ImageURL = core.CleanString(uc.ImageURL); uc.ImageURL == "" {
		uc.ImageURL = orig.ImageURL
	}
	if uc.Duration = core.CleanString(uc.Duration); uc.Duration == "" {
		uc.Duration = orig.Duration
	}
	if uc.Topics == nil {
		uc.Topics = orig.Topics
	}
	return validate.Struct(uc)
}

// Apply overlays the update onto orig and returns the record to write.
func (uc UpdateCourse) Apply(orig Course) Course {
	orig.Title = uc.Title
	orig.Description = uc.Description
	orig.ImageURL = uc.ImageURL
	orig.Duration = uc.Duration
	orig.Topics = uc.Topics
	return orig
}

// Filter restricts course queries; the zero value matches everything.
type Filter struct {
	OwnerID string
}

type Repository interface {
	// QueryCourses returns courses newest-first with the owner profile
	// joined in.
	QueryCourses(ctx context.Context, filter Filter) ([]Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	CreateCourse(ctx context.Context, crs Course) (Course, error)
	// UpdateCourse returns ErrNotFound when the record vanished (e.g. a
	// concurrent delete).
	UpdateCourse(ctx context.Context, crs Course) (Course, error)
	DeleteCourse(ctx context.Context, id string) error
}
