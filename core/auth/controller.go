package auth

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/profile"
)

// Controller owns the current session, user and derived profile for one
// client session. It is a process-local cache of backend-of-record truth,
// rebuilt on demand, never the source of truth itself.
//
// All operations toggle one shared loading flag for the duration of their
// backend round trip; concurrent operations overlap on it (single-user
// client semantics, last-write-wins).
type Controller struct {
	backend  Backend
	profiles profile.Repository
	logger   core.Logger

	mu      sync.RWMutex
	session *Session
	user    *User
	profile *profile.Profile
	loading bool

	sub Subscription
}

// NewController starts with the loading flag raised; it stays raised until
// GetInitialSession resolves. The controller subscribes to backend
// session-change events until Close is called.
func NewController(backend Backend, profiles profile.Repository, logger core.Logger) *Controller {
	c := &Controller{
		backend:  backend,
		profiles: profiles,
		logger:   logger,
		loading:  true,
	}
	c.sub = backend.OnSessionChange(c.handleSessionChange)
	return c
}

// Close tears the controller down; no further session events are applied.
func (c *Controller) Close() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
}

// GetInitialSession asks the backend to resolve a persisted access token.
// An empty or rejected token resolves to the signed-out state; it is not an
// error. The loading flag drops only after profile resolution completes,
// success or failure.
func (c *Controller) GetInitialSession(ctx context.Context, accessToken string) error {
	defer c.setLoading(false)

	if accessToken == "" {
		c.clear()
		return nil
	}

	sess, err := c.backend.GetSession(ctx, accessToken)
	if err != nil {
		c.clear()
		return nil
	}
	c.setSession(sess)
	if err := c.fetchProfile(ctx, sess.User.ID); err != nil {
		return err
	}
	return nil
}

// handleSessionChange applies backend-pushed events (sign-in, sign-out,
// token refresh). Events arrive on a single queue, so an update never
// interleaves with another event's application.
func (c *Controller) handleSessionChange(ev Event) {
	ctx := context.Background()
	defer c.setLoading(false)

	if ev.Session == nil {
		c.clear()
		return
	}
	c.setSession(ev.Session)
	_ = c.fetchProfile(ctx, ev.Session.User.ID) // already logged; retried on next event
}

// Login authenticates and fetches the profile before returning, so callers
// relying on the role are not racing an empty profile.
func (c *Controller) Login(ctx context.Context, email, password string) (*Session, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	sess, err := c.backend.SignInWithPassword(ctx, core.CleanString(email, true /* lower */), password)
	if err != nil {
		return nil, err
	}
	c.setSession(sess)
	if err := c.fetchProfile(ctx, sess.User.ID); err != nil {
		c.logger.Warn(err.Error(), err)
	}
	return sess, nil
}

// Signup registers a new user. Profile creation is delegated to the
// backend; the profile is populated by the resulting session-change event,
// not synchronously.
func (c *Controller) Signup(ctx context.Context, su Signup) (*Session, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	sess, err := c.backend.SignUp(ctx, su)
	if err != nil {
		return nil, err
	}
	c.setSession(sess)
	return sess, nil
}

// Logout signs out of the backend; on success all three entities are
// cleared. A failed sign-out (network) leaves state untouched so the caller
// can retry.
func (c *Controller) Logout(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	c.mu.RLock()
	sess := c.session
	c.mu.RUnlock()
	if sess == nil {
		return nil
	}
	if err := c.backend.SignOut(ctx, sess.AccessToken); err != nil {
		return errors.Wrap(err, "signing out")
	}
	c.clear()
	return nil
}

// UpdateProfile writes a partial update (unspecified fields fall back to
// the existing profile's values) then re-fetches to reconcile.
func (c *Controller) UpdateProfile(ctx context.Context, up profile.UpdateProfile) error {
	c.mu.RLock()
	usr := c.user
	cur := c.profile
	c.mu.RUnlock()
	if usr == nil {
		return errors.New("no user logged in")
	}

	c.setLoading(true)
	defer c.setLoading(false)

	var orig profile.Profile
	if cur != nil {
		orig = *cur
	} else {
		orig.ID = usr.ID
	}
	if _, err := c.profiles.UpsertProfile(ctx, up.Apply(orig)); err != nil {
		return errors.Wrap(err, "upserting profile")
	}
	return c.fetchProfile(ctx, usr.ID)
}

// fetchProfile loads the user's profile and replaces the local copy
// wholesale. A result arriving after the session changed (logout or user
// switch mid-flight) is discarded. On failure the profile resets to empty
// and a *ProfileFetchError is returned.
func (c *Controller) fetchProfile(ctx context.Context, userID string) error {
	p, err := c.profiles.GetProfile(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil || c.user.ID != userID { // stale result
		return nil
	}
	if err != nil {
		c.profile = nil
		ferr := &ProfileFetchError{UserID: userID, Err: err}
		c.logger.Error(ferr.Error(), err)
		return ferr
	}
	c.profile = &p
	return nil
}

func (c *Controller) setSession(sess *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	if sess != nil {
		usr := sess.User
		c.user = &usr
	} else {
		c.user = nil
	}
}

func (c *Controller) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.user = nil
	c.profile = nil
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

// Accessors

func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Controller) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Controller) User() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

func (c *Controller) Profile() (profile.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return profile.Profile{}, false
	}
	return *c.profile, true
}

func (c *Controller) Role() (profile.Role, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return "", false
	}
	return c.profile.Role, true
}

// CurrentUserID satisfies course.Actor.
func (c *Controller) CurrentUserID() (string, bool) {
	usr, ok := c.User()
	return usr.ID, ok
}

// State snapshots the guard inputs.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := State{Loading: c.loading, LoggedIn: c.user != nil}
	if c.profile != nil {
		st.Role = c.profile.Role
	}
	return st
}
