// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mfa

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/auth"
)

// memTotps is an in-memory TotpStore.
type memTotps struct {
	mu   sync.Mutex
	rows map[string]*Totp
}

func newMemTotps() *memTotps {
	return &memTotps{rows: make(map[string]*Totp)}
}

func (m *memTotps) Get(_ context.Context, userID string) (*Totp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[userID]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, dberr.ErrNotFound
}

func (m *memTotps) Create(_ context.Context, totp *Totp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[totp.UserID]; ok {
		return apperr.Conflict("Resource already exists")
	}
	clone := *totp
	m.rows[totp.UserID] = &clone
	return nil
}

func (m *memTotps) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[userID]; !ok {
		return dberr.ErrNotFound
	}
	delete(m.rows, userID)
	return nil
}

func newServiceFixture(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	service := NewService(
		newMemTotps(),
		NewRedisReplayStore(client),
		NewRedisPendingStore(client),
		24, "Kanso", slog.Default())
	return service, mr
}

// enroll walks the full handshake and returns the secret and recovery code.
func enroll(t *testing.T, service *Service, userID string) (secret, recoveryCode string) {
	t.Helper()
	ctx := context.Background()

	enrollment, err := service.Initialize(ctx, userID, userID+"@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.ProvisioningURL, "otpauth://totp/")

	code, err := GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	recoveryCode, err = service.Enable(ctx, userID, code)
	require.NoError(t, err)
	return enrollment.Secret, recoveryCode
}

func TestEnrollmentHandshake(t *testing.T) {
	ctx := context.Background()
	service, _ := newServiceFixture(t)

	enabled, err := service.Enabled(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, enabled)

	_, recoveryCode := enroll(t, service, "user-1")
	assert.Regexp(t, `^[A-Z0-9]{6}(-[A-Z0-9]{6}){3}$`, recoveryCode)

	enabled, err = service.Enabled(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = service.Initialize(ctx, "user-1", "user-1@example.com")
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestEnableRequiresInitialize(t *testing.T) {
	ctx := context.Background()
	service, _ := newServiceFixture(t)

	_, err := service.Enable(ctx, "user-1", "123456")
	require.Error(t, err)
	assert.Equal(t, "MFA_NOT_INITIALIZED", apperr.As(err).Code)
}

func TestEnableRejectsWrongCode(t *testing.T) {
	ctx := context.Background()
	service, _ := newServiceFixture(t)

	_, err := service.Initialize(ctx, "user-1", "user-1@example.com")
	require.NoError(t, err)

	_, err = service.Enable(ctx, "user-1", "000000")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	enabled, err := service.Enabled(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestStagedSecretExpires(t *testing.T) {
	ctx := context.Background()
	service, mr := newServiceFixture(t)

	enrollment, err := service.Initialize(ctx, "user-1", "user-1@example.com")
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	code, err := GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	_, err = service.Enable(ctx, "user-1", code)
	require.Error(t, err)
	assert.Equal(t, "MFA_NOT_INITIALIZED", apperr.As(err).Code)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled user", func(t *testing.T) {
		service, _ := newServiceFixture(t)
		result, err := service.Authenticate(ctx, "user-1", auth.MfaChallenge{TotpCode: "123456"})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaDisabled, result)
	})

	t.Run("valid code, then replay", func(t *testing.T) {
		service, _ := newServiceFixture(t)
		secret, _ := enroll(t, service, "user-1")

		// The enrollment burned the current code; step past it.
		code, err := GenerateCode(secret, time.Now().Add(30*time.Second))
		require.NoError(t, err)

		result, err := service.Authenticate(ctx, "user-1", auth.MfaChallenge{TotpCode: code})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaOk, result)

		result, err = service.Authenticate(ctx, "user-1", auth.MfaChallenge{TotpCode: code})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaFailed, result, "a code is single-use")
	})

	t.Run("wrong code", func(t *testing.T) {
		service, _ := newServiceFixture(t)
		enroll(t, service, "user-1")

		result, err := service.Authenticate(ctx, "user-1", auth.MfaChallenge{TotpCode: "000000"})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaFailed, result)
	})

	t.Run("empty challenge", func(t *testing.T) {
		service, _ := newServiceFixture(t)
		enroll(t, service, "user-1")

		result, err := service.Authenticate(ctx, "user-1", auth.MfaChallenge{})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaFailed, result)
	})

	t.Run("recovery code resets", func(t *testing.T) {
		service, _ := newServiceFixture(t)
		_, recoveryCode := enroll(t, service, "user-1")

		result, err := service.Authenticate(ctx, "user-1", auth.MfaChallenge{RecoveryCode: recoveryCode})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaReset, result)

		enabled, err := service.Enabled(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, enabled, "redeeming the recovery code disables the factor")

		result, err = service.Authenticate(ctx, "user-1", auth.MfaChallenge{RecoveryCode: recoveryCode})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaDisabled, result)
	})

	t.Run("recovery code outranks a valid code", func(t *testing.T) {
		service, _ := newServiceFixture(t)
		secret, recoveryCode := enroll(t, service, "user-1")

		code, err := GenerateCode(secret, time.Now().Add(30*time.Second))
		require.NoError(t, err)

		result, err := service.Authenticate(ctx, "user-1", auth.MfaChallenge{TotpCode: code, RecoveryCode: recoveryCode})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaReset, result, "break-glass must win over a passing code")

		enabled, err := service.Enabled(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("wrong recovery code", func(t *testing.T) {
		service, _ := newServiceFixture(t)
		enroll(t, service, "user-1")

		result, err := service.Authenticate(ctx, "user-1", auth.MfaChallenge{RecoveryCode: "AAAAAA-BBBBBB-CCCCCC-DDDDDD"})
		require.NoError(t, err)
		assert.Equal(t, auth.MfaFailed, result)

		enabled, err := service.Enabled(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, enabled)
	})
}

func TestDisable(t *testing.T) {
	ctx := context.Background()
	service, _ := newServiceFixture(t)

	err := service.Disable(ctx, "user-1")
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	enroll(t, service, "user-1")
	require.NoError(t, service.Disable(ctx, "user-1"))

	enabled, err := service.Enabled(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestRecoveryCodeStoredHashed(t *testing.T) {
	ctx := context.Background()
	totps := newMemTotps()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	service := NewService(totps, NewRedisReplayStore(client), NewRedisPendingStore(client), 24, "Kanso", slog.Default())

	_, recoveryCode := enroll(t, service, "user-1")

	row, err := totps.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, recoveryCode, row.RecoveryCodeHash)
	assert.Equal(t, sec.HashToken(recoveryCode), row.RecoveryCodeHash)
}
