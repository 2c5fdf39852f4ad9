// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"fmt"

	"github.com/taibuivan/kanso/internal/platform/sec"
)

// RefreshTokens generates opaque refresh tokens. Only the SHA-256 hex digest
// of a token is ever persisted; a database dump cannot be replayed into live
// sessions.
type RefreshTokens struct {
	length int
}

// NewRefreshTokens creates a RefreshTokens generator producing tokens of the
// given character length.
func NewRefreshTokens(length int) *RefreshTokens {
	return &RefreshTokens{length: length}
}

/*
Issue generates a fresh refresh token.

Returns:
  - token: The raw token, handed to the client exactly once.
  - hash: The SHA-256 hex digest, the only form that may be stored.
  - error: If the system entropy source fails.
*/
func (t *RefreshTokens) Issue() (token, hash string, err error) {
	token, err = sec.GenerateSecureToken(t.length)
	if err != nil {
		return "", "", fmt.Errorf("refresh_token_generate_failed: %w", err)
	}
	return token, sec.HashToken(token), nil
}

// Hash returns the storage form of a raw refresh token.
func (t *RefreshTokens) Hash(token string) string {
	return sec.HashToken(token)
}
