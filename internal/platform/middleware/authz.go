// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/ctxutil"
	"github.com/taibuivan/kanso/internal/platform/respond"
	"github.com/taibuivan/kanso/internal/platform/sec"
)

// Authenticator verifies a bearer access token end to end: signature, expiry
// and revocation. A nil Authentication with a nil error never occurs; failed
// verification always returns an error.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*sec.Authentication, error)
}

// InternalVerifier verifies service-to-service tokens for a fixed audience.
type InternalVerifier interface {
	VerifyInternalToken(token, audience string) error
}

// # Authentication

// Authenticate resolves the bearer token, if any, into a caller identity.
//
// Requests without an Authorization header pass through anonymously; routes
// that demand identity gate on [RequireAuth]. A present-but-invalid token is
// rejected immediately so clients learn about expiry or revocation rather
// than being treated as anonymous.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				// Invalid tokens carry a 401 AppError; a revocation cache
				// outage surfaces as an opaque 500 instead.
				respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctxutil.WithAuthentication(r.Context(), identity)))
		})
	}
}

// # Authorization gates

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctxutil.Authentication(r.Context()) == nil {
			respond.Error(w, r, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects non-administrator callers with 403. It implies
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := ctxutil.Authentication(r.Context())
		if auth == nil {
			respond.Error(w, r, apperr.Unauthorized("Authentication required"))
			return
		}
		if err := auth.EnsureAdmin(); err != nil {
			respond.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEmailVerified rejects callers whose email is unverified with 403.
// It implies RequireAuth.
func RequireEmailVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := ctxutil.Authentication(r.Context())
		if auth == nil {
			respond.Error(w, r, apperr.Unauthorized("Authentication required"))
			return
		}
		if err := auth.EnsureEmailVerified(); err != nil {
			respond.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireInternal guards service-to-service routes. The bearer token must be
// a valid internal token minted for the given audience; user access tokens
// are rejected.
func RequireInternal(verifier InternalVerifier, audience string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Error(w, r, apperr.Unauthorized("Internal token required"))
				return
			}
			if err := verifier.VerifyInternalToken(token, audience); err != nil {
				respond.Error(w, r, apperr.Unauthorized("Invalid internal token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Returns "" for missing or malformed headers.
func bearerToken(r *http.Request) string {
	header := r.Header.Get(constants.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
