package profile

import (
	"context"
	"errors"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
)

// DefaultAvatarURL is attached to every new profile until the user picks one.
const DefaultAvatarURL = "https://assets.tutorhub.dev/avatars/default.png"

var (
	// errors
	ErrNotFound = errors.New("profile not found")
)

// Role determines navigation and access. It is a closed set; anything
// outside it must never reach the view layer.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleTutor, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// CanTeach reports whether the role may own courses.
func (r Role) CanTeach() bool { return r == RoleTutor || r == RoleAdmin }

// Home is where a logged-in user of this role lands by default.
func (r Role) Home() string {
	if r == RoleStudent {
		return "/student/dashboard"
	}
	return "/home"
}

func (r Role) PanelTitle() string {
	switch r {
	case RoleStudent:
		return "Student Portal"
	case RoleTutor:
		return "Tutor Panel"
	case RoleAdmin:
		return "Admin Control"
	}
	return "Menu"
}

type NavItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NavItems returns the fixed navigation set for the role. Each set is
// enumerated in full; menus are never composed by concatenation.
func (r Role) NavItems() []NavItem {
	switch r {
	case RoleStudent:
		return []NavItem{
			{Name: "Dashboard", Path: "/student/dashboard"},
			{Name: "My Learning", Path: "/student/my-courses"},
			{Name: "Courses", Path: "/courses"},
			{Name: "Popular Courses", Path: "/popular-courses"},
			{Name: "Profile", Path: "/profile"},
		}
	case RoleTutor:
		return []NavItem{
			{Name: "Dashboard", Path: "/home"},
			{Name: "Create Course", Path: "/admin/create-course"},
			{Name: "My Courses", Path: "/admin/my-courses"},
			{Name: "Courses", Path: "/courses"},
			{Name: "Popular Courses", Path: "/popular-courses"},
			{Name: "Profile", Path: "/profile"},
			{Name: "Referrals", Path: "/admin/referral"},
		}
	case RoleAdmin:
		return []NavItem{
			{Name: "Admin Dashboard", Path: "/home"},
			{Name: "Manage Users", Path: "/admin/users"},
			{Name: "Manage Courses", Path: "/admin/my-courses"},
			{Name: "Create Course", Path: "/admin/create-course"},
			{Name: "Courses", Path: "/courses"},
			{Name: "Popular Courses", Path: "/popular-courses"},
			{Name: "Profile", Path: "/profile"},
			{Name: "Referrals", Path: "/admin/referral"},
		}
	}
	return nil
}

// Profile is the mutable per-user record; one per user, keyed by the
// backend user id and created by the backend at signup.
type Profile struct {
	ID        string      `json:"id" db:"id"`
	FullName  string      `json:"full_name" db:"full_name"`
	AvatarURL string      `json:"avatar_url" db:"avatar_url"`
	Role      Role        `json:"role" db:"role"`
	Bio       null.String `json:"bio,omitempty" db:"bio"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// UpdateProfile defines what information may be provided to modify an
// existing Profile. Unspecified fields fall back to the existing values,
// never to empty.
type UpdateProfile struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	Role      Role   `json:"role" validate:"omitempty,profilerole"`
	Bio       string `json:"bio"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate, orig Profile) error {
	name := core.CleanString(up.FullName)
	if name != "" {
		up.FullName = name
	} else {
		up.FullName = orig.FullName
	}

	if up.AvatarURL = core.CleanString(up.AvatarURL); up.AvatarURL == "" {
		up.AvatarURL = orig.AvatarURL
	}
	if up.Role == "" {
		up.Role = orig.Role
	}
	if up.Bio = core.CleanString(up.Bio); up.Bio == "" {
		up.Bio = orig.Bio.String
	}
	return validate.Struct(up)
}

// Apply overlays the update onto orig and returns the record to write.
func (up UpdateProfile) Apply(orig Profile) Profile {
	orig.FullName = up.FullName
	orig.AvatarURL = up.AvatarURL
	orig.Role = up.Role
	orig.Bio = null.NewString(up.Bio, up.Bio != "")
	orig.UpdatedAt = time.Now().UTC()
	return orig
}

type Repository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
	// UpsertProfile replaces the stored record wholesale.
	UpsertProfile(ctx context.Context, p Profile) (Profile, error)
	QueryAllProfiles(ctx context.Context) ([]Profile, error)
}

var (
	roleTag  = "profilerole"
	roleText = "role must be one of student, tutor or admin"
)

// InitValidators registers profile validators on the app validator.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

// roleValidation checks that the provided role is a member of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}
