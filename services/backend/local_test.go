package backendsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutorhub/core/auth"
	"github.com/trezcool/tutorhub/core/profile"
	backendsvc "github.com/trezcool/tutorhub/services/backend"
	inmemdb "github.com/trezcool/tutorhub/storage/database/inmem"
	testutil "github.com/trezcool/tutorhub/tests"
)

type fixtures struct {
	backend  auth.Backend
	accounts auth.AccountRepository
	profiles profile.Repository
	events   chan auth.Event
	sub      auth.Subscription
}

func setup(t *testing.T) fixtures {
	t.Helper()

	db := inmemdb.NewDB()
	accounts := inmemdb.NewAccountRepository(db)
	profiles := inmemdb.NewProfileRepository(db)
	backend := backendsvc.NewLocalBackend(accounts, profiles, testutil.Logger{})

	events := make(chan auth.Event, 16)
	sub := backend.OnSessionChange(func(ev auth.Event) { events <- ev })

	t.Cleanup(backend.Close)
	return fixtures{backend: backend, accounts: accounts, profiles: profiles, events: events, sub: sub}
}

func waitEvent(t *testing.T, events chan auth.Event) auth.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session event")
		return auth.Event{}
	}
}

func TestLocalBackend_SignUp(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	sess, err := fx.backend.SignUp(ctx, auth.Signup{
		Email:    " Jane@Test.cd ",
		Password: "adequately0k",
		FullName: "Jane Mwamba",
		Role:     profile.RoleTutor,
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, "bearer", sess.TokenType)
	assert.Equal(t, "jane@test.cd", sess.User.Email)

	// profile bootstrapped from the signup metadata
	prof, err := fx.profiles.GetProfile(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Mwamba", prof.FullName)
	assert.Equal(t, profile.RoleTutor, prof.Role)
	assert.Equal(t, profile.DefaultAvatarURL, prof.AvatarURL)

	ev := waitEvent(t, fx.events)
	assert.Equal(t, auth.EventSignedIn, ev.Kind)
	require.NotNil(t, ev.Session)
	assert.Equal(t, sess.User.ID, ev.Session.User.ID)

	// duplicate email
	_, err = fx.backend.SignUp(ctx, auth.Signup{
		Email:    "jane@test.cd",
		Password: "0th3rpwd",
		FullName: "Jane M.",
		Role:     profile.RoleTutor,
	})
	assert.Equal(t, auth.ErrEmailTaken, err)
}

func TestLocalBackend_SignUp_invalidRoleDefaultsToStudent(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	sess, err := fx.backend.SignUp(ctx, auth.Signup{
		Email:    "didi@test.cd",
		Password: "adequately0k",
		FullName: "Didi Kalenga",
		Role:     "owner",
	})
	require.NoError(t, err)

	prof, err := fx.profiles.GetProfile(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.RoleStudent, prof.Role)
}

func TestLocalBackend_SignInWithPassword(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	acct := testutil.CreateAccount(t, fx.accounts, "awe@test.cd", "s3cretpwd")

	_, err := fx.backend.SignInWithPassword(ctx, "nobody@test.cd", "s3cretpwd")
	assert.Equal(t, auth.ErrInvalidCredentials, err)

	_, err = fx.backend.SignInWithPassword(ctx, "awe@test.cd", "wrong")
	assert.Equal(t, auth.ErrInvalidCredentials, err)

	sess, err := fx.backend.SignInWithPassword(ctx, " Awe@Test.cd ", "s3cretpwd")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, sess.User.ID)

	ev := waitEvent(t, fx.events)
	assert.Equal(t, auth.EventSignedIn, ev.Kind)
}

func TestLocalBackend_GetSession(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	testutil.CreateAccount(t, fx.accounts, "awe@test.cd", "s3cretpwd")
	sess, err := fx.backend.SignInWithPassword(ctx, "awe@test.cd", "s3cretpwd")
	require.NoError(t, err)

	got, err := fx.backend.GetSession(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User, got.User)

	_, err = fx.backend.GetSession(ctx, "garbage")
	assert.Equal(t, auth.ErrSessionExpired, err)
}

func TestLocalBackend_GetSession_expiredToken(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	testutil.CreateAccount(t, fx.accounts, "awe@test.cd", "s3cretpwd")

	// mint a token far enough in the past for it to have expired
	backendsvc.NowFunc = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	defer func() { backendsvc.NowFunc = time.Now }()

	sess, err := fx.backend.SignInWithPassword(ctx, "awe@test.cd", "s3cretpwd")
	require.NoError(t, err)

	_, err = fx.backend.GetSession(ctx, sess.AccessToken)
	assert.Equal(t, auth.ErrSessionExpired, err)
}

func TestLocalBackend_GetSession_refreshNearExpiry(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	testutil.CreateAccount(t, fx.accounts, "awe@test.cd", "s3cretpwd")
	sess, err := fx.backend.SignInWithPassword(ctx, "awe@test.cd", "s3cretpwd")
	require.NoError(t, err)
	require.Equal(t, auth.EventSignedIn, waitEvent(t, fx.events).Kind)

	// jump to just inside the refresh window
	backendsvc.NowFunc = func() time.Time { return sess.ExpiresAt.Add(-time.Hour) }
	defer func() { backendsvc.NowFunc = time.Now }()

	got, err := fx.backend.GetSession(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User, got.User)
	assert.NotEqual(t, sess.AccessToken, got.AccessToken)
	assert.True(t, got.ExpiresAt.After(sess.ExpiresAt))

	ev := waitEvent(t, fx.events)
	assert.Equal(t, auth.EventTokenRefreshed, ev.Kind)
	require.NotNil(t, ev.Session)
	assert.Equal(t, got.AccessToken, ev.Session.AccessToken)
}

func TestLocalBackend_SignOut(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	testutil.CreateAccount(t, fx.accounts, "awe@test.cd", "s3cretpwd")
	sess, err := fx.backend.SignInWithPassword(ctx, "awe@test.cd", "s3cretpwd")
	require.NoError(t, err)
	require.Equal(t, auth.EventSignedIn, waitEvent(t, fx.events).Kind)

	assert.Equal(t, auth.ErrSessionExpired, fx.backend.SignOut(ctx, "garbage"))

	require.NoError(t, fx.backend.SignOut(ctx, sess.AccessToken))
	ev := waitEvent(t, fx.events)
	assert.Equal(t, auth.EventSignedOut, ev.Kind)
	assert.Nil(t, ev.Session)
}

func TestLocalBackend_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	testutil.CreateAccount(t, fx.accounts, "awe@test.cd", "s3cretpwd")

	fx.sub.Unsubscribe()
	_, err := fx.backend.SignInWithPassword(ctx, "awe@test.cd", "s3cretpwd")
	require.NoError(t, err)

	select {
	case ev := <-fx.events:
		t.Fatalf("received event %q after unsubscribe", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}
