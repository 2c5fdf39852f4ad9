// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential and token core of the account platform.

It owns the User and Session entities, stateless access tokens, opaque
refresh tokens, the Redis-backed revocation cache and failed-login counters,
and CAPTCHA verification. The session package composes these primitives into
the login and refresh flows; the mfa package plugs in as a second factor
through the [MfaChallenge]/[MfaResult] contract defined here.
*/
package auth

import (
	"fmt"
	"time"

	"github.com/taibuivan/kanso/internal/platform/apperr"
)

// # Entities

// User is an account platform user.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Admin         bool       `json:"admin"`
	Enabled       bool       `json:"enabled"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

// Session is one authenticated device. Its RefreshTokenHash is the SHA-256
// hex digest of the currently valid refresh token; the raw token is never
// stored. UpdatedAt advances on every refresh and anchors the idle-expiry
// window.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	DeviceName       *string   `json:"device_name,omitempty"`
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Tokens is a freshly issued access/refresh pair. RefreshTokenHash is the
// digest the session row must store for the pair to be usable.
type Tokens struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	RefreshTokenHash string `json:"-"`
}

// Login is the result of a successful login or refresh.
type Login struct {
	User         *User    `json:"user"`
	Session      *Session `json:"session"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

// # MFA contract

// MfaChallenge carries the second-factor proof a client attached to a login
// attempt. At most one field is expected to be set; when both are present
// the recovery code takes priority, so break-glass always works.
type MfaChallenge struct {
	TotpCode     string `json:"totp_code,omitempty"`
	RecoveryCode string `json:"recovery_code,omitempty"`
}

// Empty reports whether the client supplied no second factor at all.
func (c MfaChallenge) Empty() bool {
	return c.TotpCode == "" && c.RecoveryCode == ""
}

// MfaResult is the outcome of evaluating an [MfaChallenge].
type MfaResult int

const (
	// MfaDisabled means the user has no enabled second factor; the
	// challenge, if any, was ignored.
	MfaDisabled MfaResult = iota
	// MfaOk means the challenge was valid.
	MfaOk
	// MfaFailed means the challenge was missing, wrong, or replayed.
	MfaFailed
	// MfaReset means a recovery code was consumed: the login succeeds and
	// the second factor has been disabled as a side effect.
	MfaReset
)

// String returns the result name for logging.
func (r MfaResult) String() string {
	switch r {
	case MfaDisabled:
		return "disabled"
	case MfaOk:
		return "ok"
	case MfaFailed:
		return "failed"
	case MfaReset:
		return "reset"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// # Errors

// InvalidCredentialsError covers every non-recoverable login failure with a
// single client-visible message. Wrong name, wrong password and a disabled
// account are indistinguishable to callers.
func InvalidCredentialsError() *apperr.AppError {
	return apperr.Unauthorized("Invalid credentials")
}

// CaptchaRequiredError tells the client a CAPTCHA response must accompany
// the next attempt.
func CaptchaRequiredError() *apperr.AppError {
	return apperr.PreconditionFailed("RECAPTCHA_REQUIRED", "CAPTCHA verification required")
}

// MfaRequiredError tells the client to repeat the login with a second factor.
func MfaRequiredError() *apperr.AppError {
	return apperr.PreconditionFailed("MFA_REQUIRED", "Second factor required")
}

// InvalidRefreshTokenError covers unknown or already-rotated refresh tokens.
func InvalidRefreshTokenError() *apperr.AppError {
	return apperr.Unauthorized("Invalid refresh token")
}

// RefreshTokenExpiredError reports a structurally valid refresh token whose
// session sat idle past the expiry window. It wraps the session ID so the
// caller can garbage-collect the dead session.
type RefreshTokenExpiredError struct {
	SessionID string
}

func (e *RefreshTokenExpiredError) Error() string {
	return "refresh token expired"
}

// AppError maps the expiry to the client-visible 401.
func (e *RefreshTokenExpiredError) AppError() *apperr.AppError {
	return apperr.Unauthorized("Session expired")
}
