// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package constants holds project-wide constant values shared across layers.
package constants

import "time"

// # HTTP headers

const (
	// HeaderRequestID carries the per-request correlation ID.
	HeaderRequestID = "X-Request-ID"
	// HeaderAuthorization carries the bearer access token.
	HeaderAuthorization = "Authorization"
)

// # Cookies

const (
	// CookieRefreshToken is the HttpOnly cookie the browser flow stores
	// the refresh token in. API clients may send the token in the request
	// body instead.
	CookieRefreshToken = "kanso_refresh_token"
)

// # Redis key prefixes

const (
	// KeyAccessTokenInvalidated prefixes revoked access token hashes.
	KeyAccessTokenInvalidated = "auth:access_token_invalidated:"
	// KeyFailedAuthAttempts prefixes failed-login counters keyed by the
	// hash of the attempted login name.
	KeyFailedAuthAttempts = "auth:failed_auth_attempts:"
	// KeyTotpCodeUsed prefixes TOTP replay guards.
	KeyTotpCodeUsed = "auth:totp_code_used:"
	// KeyTotpPending prefixes TOTP secrets staged during MFA setup.
	KeyTotpPending = "auth:totp_pending:"
)

// # TOTP

const (
	// TotpPeriod is the TOTP time step.
	TotpPeriod = 30 * time.Second
	// TotpReplayTTL is how long a consumed TOTP code stays burned. It
	// covers the code's own validity plus one step of clock skew.
	TotpReplayTTL = 90 * time.Second
	// TotpPendingTTL is how long a staged secret survives before the
	// user confirms it with a first valid code.
	TotpPendingTTL = 10 * time.Minute
)

// # Pagination

const (
	// DefaultPageSize is used when the client omits a page size.
	DefaultPageSize = 20
	// MaxPageSize caps client-requested page sizes.
	MaxPageSize = 100
)
