// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "github.com/taibuivan/kanso/internal/platform/apperr"

// # Authenticated Identity

// Authentication is the verified identity attached to a request after a
// successful access-token check.
//
// # Statelessness
//
// Every field is reconstructed from the signed token payload without a
// database lookup. The RefreshTokenHash binds the access token to the
// session's refresh-token lineage so it can be revoked out-of-band before its
// natural expiry.
type Authentication struct {
	UserID           string
	SessionID        string
	RefreshTokenHash string
	Admin            bool
	EmailVerified    bool
}

// # Authorization Checks
//
// Authorization is orthogonal to authentication: these helpers are applied by
// callers after a successful authenticate and map to HTTP 403, while
// authentication failures map to HTTP 401.

// EnsureAdmin returns a Forbidden error if the user is not an administrator.
func (a *Authentication) EnsureAdmin() error {
	if !a.Admin {
		return apperr.Forbidden("Administrator privileges required")
	}
	return nil
}

// EnsureEmailVerified returns a Forbidden error if the user has not verified
// their email address.
func (a *Authentication) EnsureEmailVerified() error {
	if !a.EmailVerified {
		return apperr.Forbidden("Email verification required")
	}
	return nil
}

// EnsureSelfOrAdmin returns a Forbidden error unless the authenticated user
// is the one identified by userID or an administrator.
func (a *Authentication) EnsureSelfOrAdmin(userID string) error {
	if a.UserID != userID && !a.Admin {
		return apperr.Forbidden("Administrator privileges required")
	}
	return nil
}
