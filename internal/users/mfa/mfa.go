// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mfa implements the TOTP second factor with single-use recovery codes.

Enablement is a two-step handshake: Initialize stages a fresh secret with a
short lifetime, Enable confirms it with a first valid code and hands out the
recovery code. Until the handshake completes the factor does not exist, so a
user can never lock themselves out with a misconfigured authenticator.

The package plugs into the login flow through the session.MfaAuthenticator
interface.
*/
package mfa

import (
	"context"
	"time"

	"github.com/taibuivan/kanso/internal/platform/apperr"
)

// Totp is a user's enabled second factor. Secret is the base32 TOTP secret;
// the recovery code is stored only as its SHA-256 hex digest.
type Totp struct {
	UserID           string    `json:"user_id"`
	Secret           string    `json:"-"`
	RecoveryCodeHash string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// TotpStore persists enabled second factors. Implementations return
// dberr.ErrNotFound for users without one.
type TotpStore interface {
	Get(ctx context.Context, userID string) (*Totp, error)
	Create(ctx context.Context, totp *Totp) error
	Delete(ctx context.Context, userID string) error
}

// ReplayStore burns consumed TOTP codes for the span in which they could
// still validate.
type ReplayStore interface {
	// MarkUsed records the code as consumed. It reports false when the
	// code was already burned, which callers must treat as a failure.
	MarkUsed(ctx context.Context, secret, code string, ttl time.Duration) (bool, error)
}

// PendingStore holds staged secrets between Initialize and Enable.
type PendingStore interface {
	Stage(ctx context.Context, userID, secret string, ttl time.Duration) error
	// Get returns the staged secret, or dberr.ErrNotFound when nothing is
	// staged or the stage expired.
	Get(ctx context.Context, userID string) (string, error)
	Clear(ctx context.Context, userID string) error
}

// # Errors

// AlreadyEnabledError reports an Initialize or Enable against an account
// that already has an active second factor.
func AlreadyEnabledError() *apperr.AppError {
	return apperr.Conflict("MFA is already enabled")
}

// NotEnabledError reports a Disable against an account without one.
func NotEnabledError() *apperr.AppError {
	return apperr.Conflict("MFA is not enabled")
}

// NotInitializedError reports an Enable without a prior (unexpired)
// Initialize.
func NotInitializedError() *apperr.AppError {
	return apperr.PreconditionFailed("MFA_NOT_INITIALIZED", "MFA setup has not been started or has expired")
}

// InvalidCodeError reports a rejected TOTP code during the handshake.
func InvalidCodeError() *apperr.AppError {
	return apperr.Unauthorized("Invalid TOTP code")
}
