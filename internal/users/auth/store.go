// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/kanso/pkg/pagination"
)

// UserStore persists [User] rows. Implementations return dberr.ErrNotFound
// for missing rows.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByNameOrEmail resolves a login identifier. Names match
	// case-insensitively, emails match their canonical lowercase form.
	GetByNameOrEmail(ctx context.Context, nameOrEmail string) (*User, error)
	List(ctx context.Context, params pagination.Params) ([]*User, int64, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateAdmin(ctx context.Context, id string, admin bool) error
	UpdateEnabled(ctx context.Context, id string, enabled bool) error
	UpdateEmailVerified(ctx context.Context, id string, verified bool) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// SessionStore persists [Session] rows.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (*Session, error)
	ListByUser(ctx context.Context, userID string) ([]*Session, error)
	// ListRefreshTokenHashesByUser returns the hashes of every live
	// session of the user, for bulk access token revocation.
	ListRefreshTokenHashesByUser(ctx context.Context, userID string) ([]string, error)
	// RotateRefreshTokenHash atomically swaps oldHash for newHash and
	// advances UpdatedAt. It reports false when the row no longer carries
	// oldHash, which means a concurrent refresh won the race.
	RotateRefreshTokenHash(ctx context.Context, id, oldHash, newHash string, now time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// RevocationStore is the volatile deny-list for access tokens. Entries are
// keyed by the refresh token hash embedded in each access token and live
// exactly as long as the longest-lived access token that could carry it.
type RevocationStore interface {
	Invalidate(ctx context.Context, refreshTokenHash string, ttl time.Duration) error
	IsInvalidated(ctx context.Context, refreshTokenHash string) (bool, error)
}

// FailedAuthStore counts consecutive failed login attempts per login
// identifier inside a fixed window.
type FailedAuthStore interface {
	// Increment bumps the counter and returns the new value. The window
	// TTL is anchored at the first failure.
	Increment(ctx context.Context, login string, window time.Duration) (int64, error)
	Count(ctx context.Context, login string) (int64, error)
	Reset(ctx context.Context, logins ...string) error
}

// CaptchaVerifier checks a client-supplied CAPTCHA response.
type CaptchaVerifier interface {
	// Enabled reports whether verification is configured at all. When
	// false, Verify always succeeds and no CAPTCHA is ever demanded.
	Enabled() bool
	Verify(ctx context.Context, response string) (bool, error)
}
