package backendsvc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/profile"
)

var NowFunc = time.Now // mockable

// refreshWindow: a session resolved this close to expiry gets a fresh
// token, announced to subscribers as a token-refreshed event.
const refreshWindow = 24 * time.Hour

// Claims represents the session claims transmitted via the access token.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

// localBackend is the self-hosted implementation of the hosted-backend
// auth subsystem: bcrypt credentials, HS256 access tokens and a profile
// bootstrapped at signup (what the hosted service does with a database
// trigger). Session-change events are delivered on a single dispatch
// goroutine so updates never interleave.
type localBackend struct {
	accounts auth.AccountRepository
	profiles profile.Repository
	logger   core.Logger

	mu        sync.Mutex
	subs      map[int]func(auth.Event)
	nextSubID int
	closed    bool

	events chan auth.Event
	done   chan struct{}
}

var _ auth.Backend = (*localBackend)(nil)

func NewLocalBackend(accounts auth.AccountRepository, profiles profile.Repository, logger core.Logger) *localBackend {
	b := &localBackend{
		accounts: accounts,
		profiles: profiles,
		logger:   logger,
		subs:     make(map[int]func(auth.Event)),
		events:   make(chan auth.Event, 16),
		done:     make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Close stops event delivery; pending events are dropped.
func (b *localBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

func (b *localBackend) SignUp(ctx context.Context, su auth.Signup) (*auth.Session, error) {
	acct := auth.Account{
		Email:     core.CleanString(su.Email, true /* lower */),
		CreatedAt: NowFunc().UTC(),
	}
	if err := acct.SetPassword(su.Password); err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	acct, err := b.accounts.CreateAccount(ctx, acct)
	if err != nil {
		return nil, err // auth.ErrEmailTaken or storage failure
	}

	// profile bootstrap from the signup metadata
	role := su.Role
	if !role.Valid() {
		role = profile.RoleStudent
	}
	if _, err := b.profiles.UpsertProfile(ctx, profile.Profile{
		ID:        acct.ID,
		FullName:  su.FullName,
		AvatarURL: profile.DefaultAvatarURL,
		Role:      role,
		UpdatedAt: NowFunc().UTC(),
	}); err != nil {
		// recoverable: the controller surfaces a ProfileFetchError and
		// retries on the next session event
		b.logger.Error("bootstrapping profile: "+err.Error(), err)
	}

	sess, err := b.mintSession(acct)
	if err != nil {
		return nil, err
	}
	b.emit(auth.Event{Kind: auth.EventSignedIn, Session: sess})
	return sess, nil
}

func (b *localBackend) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	acct, err := b.accounts.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == auth.ErrAccountNotFound {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "finding account by email")
	}
	if err = acct.CheckPassword(password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	sess, err := b.mintSession(acct)
	if err != nil {
		return nil, err
	}
	b.emit(auth.Event{Kind: auth.EventSignedIn, Session: sess})
	return sess, nil
}

func (b *localBackend) SignOut(ctx context.Context, accessToken string) error {
	if _, err := b.parseSession(accessToken); err != nil {
		return err
	}
	b.emit(auth.Event{Kind: auth.EventSignedOut})
	return nil
}

func (b *localBackend) GetSession(ctx context.Context, accessToken string) (*auth.Session, error) {
	sess, err := b.parseSession(accessToken)
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt.Sub(NowFunc()) < refreshWindow {
		refreshed, err := b.mintSession(auth.Account{ID: sess.User.ID, Email: sess.User.Email})
		if err != nil {
			return sess, nil // current token still has some life left
		}
		b.emit(auth.Event{Kind: auth.EventTokenRefreshed, Session: refreshed})
		return refreshed, nil
	}
	return sess, nil
}

// parseSession validates the access token without triggering a refresh.
func (b *localBackend) parseSession(accessToken string) (*auth.Session, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(core.Conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, auth.ErrSessionExpired
	}
	return &auth.Session{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresAt:   time.Unix(claims.ExpiresAt, 0),
		User:        auth.User{ID: claims.Subject, Email: claims.Email},
	}, nil
}

func (b *localBackend) OnSessionChange(fn func(auth.Event)) auth.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSubID++
	id := b.nextSubID
	b.subs[id] = fn
	return &subscription{backend: b, id: id}
}

func (b *localBackend) mintSession(acct auth.Account) (*auth.Session, error) {
	now := NowFunc()
	exp := now.Add(core.Conf.Server.SessionExpirationDelta)

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   acct.ID,
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: acct.Email,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(core.Conf.SecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "signing token")
	}
	return &auth.Session{
		AccessToken: ss,
		TokenType:   "bearer",
		ExpiresAt:   exp,
		User:        auth.User{ID: acct.ID, Email: acct.Email},
	}, nil
}

func (b *localBackend) emit(ev auth.Event) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

func (b *localBackend) dispatch() {
	for {
		select {
		case ev := <-b.events:
			for _, fn := range b.snapshotSubs() {
				fn(ev)
			}
		case <-b.done:
			return
		}
	}
}

// snapshotSubs copies subscribers in registration order so delivery is
// deterministic and callbacks run without holding the lock.
func (b *localBackend) snapshotSubs() []func(auth.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(auth.Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, b.subs[id])
	}
	return subs
}

type subscription struct {
	backend *localBackend
	id      int
}

var _ auth.Subscription = (*subscription)(nil)

func (s *subscription) Unsubscribe() {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.subs, s.id)
}
