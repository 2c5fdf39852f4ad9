// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/account"
	"github.com/taibuivan/kanso/internal/users/auth"
	"github.com/taibuivan/kanso/internal/users/auth/authtest"
	"github.com/taibuivan/kanso/internal/users/session"
	"github.com/taibuivan/kanso/pkg/pagination"
)

// noMfa is an MfaAuthenticator for accounts without a second factor.
type noMfa struct{}

func (noMfa) Enabled(context.Context, string) (bool, error) {
	return false, nil
}

func (noMfa) Authenticate(context.Context, string, auth.MfaChallenge) (auth.MfaResult, error) {
	return auth.MfaDisabled, nil
}

type fixture struct {
	service  *account.Service
	sessions *session.Service
	authn    *auth.Service
	users    *authtest.MemUsers
	rows     *authtest.MemSessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fixture{
		users: authtest.NewMemUsers(),
		rows:  authtest.NewMemSessions(),
	}
	f.authn = auth.NewService(auth.Config{
		Users:              f.users,
		Sessions:           f.rows,
		Access:             auth.NewAccessTokens(sec.NewTokenServiceFromKey(key, "kanso-test"), authtest.NewMemRevocations(), 15*time.Minute),
		Refresh:            auth.NewRefreshTokens(64),
		Failed:             authtest.NewMemFailed(),
		Captcha:            &authtest.StubCaptcha{},
		FailsBeforeCaptcha: 3,
		FailedWindow:       time.Hour,
		RefreshTTL:         720 * time.Hour,
		Logger:             slog.Default(),
	})
	f.sessions = session.NewService(f.users, f.rows, f.authn, noMfa{}, slog.Default())
	f.service = account.NewService(f.users, f.sessions, f.authn, slog.Default())
	return f
}

func register(t *testing.T, f *fixture, name string) *auth.Login {
	t.Helper()
	login, err := f.service.Register(context.Background(), account.RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: name + "-password-123",
	})
	require.NoError(t, err)
	return login
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	login := register(t, f, "alice")
	assert.Equal(t, "alice", login.User.Name)
	assert.True(t, login.User.Enabled)
	assert.False(t, login.User.Admin)
	assert.NotEmpty(t, login.AccessToken, "registration logs the user in")

	// The password went through bcrypt.
	stored, err := f.users.GetByID(ctx, login.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "alice-password-123", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("alice-password-123", stored.PasswordHash))

	// And the login flow accepts it.
	_, err = f.sessions.Login(ctx, session.LoginRequest{
		NameOrEmail: "alice",
		Password:    "alice-password-123",
	})
	require.NoError(t, err)
}

func TestRegisterConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	register(t, f, "alice")

	_, err := f.service.Register(ctx, account.RegisterRequest{
		Name:     "ALICE",
		Email:    "other@example.com",
		Password: "some-password-123",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestGetAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := register(t, f, "alice")
	bob := register(t, f, "bob")

	self := &sec.Authentication{UserID: alice.User.ID}
	admin := &sec.Authentication{UserID: "admin", Admin: true}

	got, err := f.service.Get(ctx, self, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.User.ID, got.ID)

	_, err = f.service.Get(ctx, self, bob.User.ID)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	_, err = f.service.Get(ctx, admin, bob.User.ID)
	require.NoError(t, err)

	_, err = f.service.Get(ctx, admin, "ghost")
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	register(t, f, "alice")
	register(t, f, "bob")

	page, err := f.service.List(ctx, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Meta.TotalItems)
	assert.Equal(t, 1, page.Meta.TotalPages)
}

func TestSetAdminRevokesTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := register(t, f, "alice")

	require.NoError(t, f.service.SetAdmin(ctx, alice.User.ID, true))

	// The pre-promotion token is dead; a refreshed one carries the flag.
	_, err := f.authn.Authenticate(ctx, alice.AccessToken)
	assert.Error(t, err)

	fresh, err := f.sessions.Refresh(ctx, alice.RefreshToken)
	require.NoError(t, err)
	identity, err := f.authn.Authenticate(ctx, fresh.AccessToken)
	require.NoError(t, err)
	assert.True(t, identity.Admin)
}

func TestSetEnabledFalseTerminatesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := register(t, f, "alice")

	require.NoError(t, f.service.SetEnabled(ctx, alice.User.ID, false))

	_, err := f.authn.Authenticate(ctx, alice.AccessToken)
	assert.Error(t, err)
	_, err = f.sessions.Refresh(ctx, alice.RefreshToken)
	assert.Error(t, err)
	assert.Zero(t, f.rows.Len())

	_, err = f.sessions.Login(ctx, session.LoginRequest{
		NameOrEmail: "alice",
		Password:    "alice-password-123",
	})
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := register(t, f, "alice")
	caller := &sec.Authentication{UserID: alice.User.ID}

	err := f.service.ChangePassword(ctx, caller, "wrong-password", "new-password-123")
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	require.NoError(t, f.service.ChangePassword(ctx, caller, "alice-password-123", "new-password-123"))

	_, err = f.sessions.Login(ctx, session.LoginRequest{NameOrEmail: "alice", Password: "alice-password-123"})
	assert.Error(t, err, "the old password is gone")
	_, err = f.sessions.Login(ctx, session.LoginRequest{NameOrEmail: "alice", Password: "new-password-123"})
	require.NoError(t, err)

	_, err = f.sessions.Refresh(ctx, alice.RefreshToken)
	require.NoError(t, err, "existing sessions survive a password change")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := register(t, f, "alice")

	require.NoError(t, f.service.Delete(ctx, alice.User.ID))

	_, err := f.authn.Authenticate(ctx, alice.AccessToken)
	assert.Error(t, err)
	admin := &sec.Authentication{UserID: "admin", Admin: true}
	_, err = f.service.Get(ctx, admin, alice.User.ID)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	assert.Equal(t, "NOT_FOUND", apperr.As(f.service.Delete(ctx, alice.User.ID)).Code)
}
