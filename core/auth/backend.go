package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/tutorhub/core/profile"
)

var (
	// errors surfaced by Backend implementations
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrSessionExpired     = errors.New("session expired")
)

// ProfileFetchError reports a failed role/profile lookup. It never crashes
// the controller; the profile is reset and the fetch retried on the next
// session event.
type ProfileFetchError struct {
	UserID string
	Err    error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("fetching profile for user %s: %v", e.UserID, e.Err)
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }

// User is the backend-issued identity; read-only except at signup.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is issued by the backend on login/signup and destroyed on logout.
// The access token is opaque to everything but the backend itself.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// Session-change event kinds, pushed by the backend at unpredictable times.
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

type Event struct {
	Kind    string
	Session *Session // nil on EventSignedOut
}

// Subscription is the handle returned by Backend.OnSessionChange.
type Subscription interface {
	Unsubscribe()
}

// Signup carries the metadata the backend attaches to a new user; the
// backend bootstraps the Profile from it ("trigger" behavior), so callers
// must not assume the profile is synchronously available.
type Signup struct {
	Email    string       `json:"email" validate:"required,email"`
	Password string       `json:"password" validate:"required"`
	FullName string       `json:"full_name" validate:"required"`
	Role     profile.Role `json:"role" validate:"required,profilerole"`
}

// Backend is the hosted auth subsystem boundary. Implementations own
// credential storage, token minting and session-change delivery; events are
// dispatched on a single queue so updates never interleave.
type Backend interface {
	SignUp(ctx context.Context, su Signup) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	OnSessionChange(fn func(Event)) Subscription
}
