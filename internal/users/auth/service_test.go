// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/auth"
	"github.com/taibuivan/kanso/internal/users/auth/authtest"
)

const alicePassword = "correct-horse-battery"

func newAlice(t *testing.T) *auth.User {
	t.Helper()
	hash, err := sec.HashPassword(alicePassword)
	require.NoError(t, err)
	return &auth.User{
		ID:           "user-alice",
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Enabled:      true,
		CreatedAt:    time.Now(),
	}
}

type serviceFixture struct {
	service     *auth.Service
	users       *authtest.MemUsers
	sessions    *authtest.MemSessions
	revocations *authtest.MemRevocations
	failed      *authtest.MemFailed
	captcha     *authtest.StubCaptcha
}

func newServiceFixture(t *testing.T, users ...*auth.User) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		users:       authtest.NewMemUsers(users...),
		sessions:    authtest.NewMemSessions(),
		revocations: authtest.NewMemRevocations(),
		failed:      authtest.NewMemFailed(),
		captcha:     &authtest.StubCaptcha{IsEnabled: true, Accept: true},
	}
	f.service = auth.NewService(auth.Config{
		Users:              f.users,
		Sessions:           f.sessions,
		Access:             auth.NewAccessTokens(newTestSigner(t), f.revocations, 15*time.Minute),
		Refresh:            auth.NewRefreshTokens(64),
		Failed:             f.failed,
		Captcha:            f.captcha,
		FailsBeforeCaptcha: 3,
		FailedWindow:       time.Hour,
		RefreshTTL:         720 * time.Hour,
		Logger:             slog.Default(),
	})
	return f
}

func TestAuthenticateByPassword(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, newAlice(t))

	t.Run("by name", func(t *testing.T) {
		user, err := f.service.AuthenticateByPassword(ctx, "alice", alicePassword)
		require.NoError(t, err)
		assert.Equal(t, "user-alice", user.ID)
	})

	t.Run("by email", func(t *testing.T) {
		user, err := f.service.AuthenticateByPassword(ctx, "alice@example.com", alicePassword)
		require.NoError(t, err)
		assert.Equal(t, "user-alice", user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.service.AuthenticateByPassword(ctx, "alice", "wrong")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("unknown user mirrors wrong password", func(t *testing.T) {
		_, unknownErr := f.service.AuthenticateByPassword(ctx, "nobody", alicePassword)
		_, wrongErr := f.service.AuthenticateByPassword(ctx, "alice", "wrong")
		require.Error(t, unknownErr)
		require.Error(t, wrongErr)
		assert.Equal(t, wrongErr.Error(), unknownErr.Error())
	})
}

func TestIssueTokensAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	alice := newAlice(t)
	f := newServiceFixture(t, alice)

	tokens, err := f.service.IssueTokens(alice, "session-1")
	require.NoError(t, err)
	assert.Equal(t, sec.HashToken(tokens.RefreshToken), tokens.RefreshTokenHash)

	identity, err := f.service.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, identity.UserID)
	assert.Equal(t, "session-1", identity.SessionID)
	assert.Equal(t, tokens.RefreshTokenHash, identity.RefreshTokenHash)

	_, err = f.service.Authenticate(ctx, "garbage")
	assert.Error(t, err)
}

func TestAuthenticateCacheOutage(t *testing.T) {
	ctx := context.Background()
	alice := newAlice(t)
	f := newServiceFixture(t, alice)

	tokens, err := f.service.IssueTokens(alice, "session-1")
	require.NoError(t, err)

	f.revocations.FailWith = errors.New("connection refused")

	_, err = f.service.Authenticate(ctx, tokens.AccessToken)
	require.Error(t, err)
	assert.Nil(t, apperr.As(err), "a cache outage maps to 500, never to 401")
}

func TestInvalidateUserTokens(t *testing.T) {
	ctx := context.Background()
	alice := newAlice(t)
	f := newServiceFixture(t, alice)

	tokensA, err := f.service.IssueTokens(alice, "session-a")
	require.NoError(t, err)
	tokensB, err := f.service.IssueTokens(alice, "session-b")
	require.NoError(t, err)
	require.NoError(t, f.sessions.Create(ctx, &auth.Session{
		ID: "session-a", UserID: alice.ID, RefreshTokenHash: tokensA.RefreshTokenHash,
	}))
	require.NoError(t, f.sessions.Create(ctx, &auth.Session{
		ID: "session-b", UserID: alice.ID, RefreshTokenHash: tokensB.RefreshTokenHash,
	}))

	require.NoError(t, f.service.InvalidateUserTokens(ctx, alice.ID))

	_, err = f.service.Authenticate(ctx, tokensA.AccessToken)
	assert.Error(t, err)
	_, err = f.service.Authenticate(ctx, tokensB.AccessToken)
	assert.Error(t, err)
}

func TestAuthenticateByRefreshToken(t *testing.T) {
	ctx := context.Background()
	alice := newAlice(t)
	f := newServiceFixture(t, alice)

	tokens, err := f.service.IssueTokens(alice, "session-1")
	require.NoError(t, err)
	require.NoError(t, f.sessions.Create(ctx, &auth.Session{
		ID:               "session-1",
		UserID:           alice.ID,
		RefreshTokenHash: tokens.RefreshTokenHash,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}))

	t.Run("valid", func(t *testing.T) {
		session, err := f.service.AuthenticateByRefreshToken(ctx, tokens.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "session-1", session.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.service.AuthenticateByRefreshToken(ctx, "never-issued")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
		var expired *auth.RefreshTokenExpiredError
		assert.False(t, errors.As(err, &expired))
	})

	t.Run("idle session expires", func(t *testing.T) {
		staleTokens, err := f.service.IssueTokens(alice, "session-stale")
		require.NoError(t, err)
		require.NoError(t, f.sessions.Create(ctx, &auth.Session{
			ID:               "session-stale",
			UserID:           alice.ID,
			RefreshTokenHash: staleTokens.RefreshTokenHash,
			CreatedAt:        time.Now().Add(-1000 * time.Hour),
			UpdatedAt:        time.Now().Add(-1000 * time.Hour),
		}))

		_, err = f.service.AuthenticateByRefreshToken(ctx, staleTokens.RefreshToken)
		var expired *auth.RefreshTokenExpiredError
		require.ErrorAs(t, err, &expired)
		assert.Equal(t, "session-stale", expired.SessionID)
	})
}

func TestCaptchaEscalation(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, newAlice(t))

	required, err := f.service.CaptchaRequired(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, required)

	f.service.RecordLoginFailure(ctx, "alice", "alice@example.com")
	f.service.RecordLoginFailure(ctx, "alice")
	required, err = f.service.CaptchaRequired(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, required, "two failures stay below the threshold")

	f.service.RecordLoginFailure(ctx, "alice")
	required, err = f.service.CaptchaRequired(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, required, "the third failure arms the CAPTCHA")

	f.service.ResetLoginFailures(ctx, "alice", "alice@example.com")
	required, err = f.service.CaptchaRequired(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, required)
}

func TestCaptchaNeverRequiredWhenDisabled(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, newAlice(t))
	f.captcha.IsEnabled = false

	for i := 0; i < 10; i++ {
		f.service.RecordLoginFailure(ctx, "alice")
	}
	required, err := f.service.CaptchaRequired(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, required)

	ok, err := f.service.VerifyCaptcha(ctx, "")
	require.NoError(t, err)
	assert.True(t, ok)
}
