// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/kanso/internal/platform/sec"
)

// TokenSigner signs and verifies stateless access tokens. Satisfied by
// [sec.TokenService].
type TokenSigner interface {
	SignAccessToken(auth sec.Authentication, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (*sec.Authentication, error)
}

// AccessTokens issues and verifies access tokens, layering the revocation
// deny-list on top of signature verification.
//
// Every access token embeds the refresh token hash of the session that
// issued it. Revocation works by deny-listing that hash: one Redis entry
// kills every outstanding access token of the session at once, and the entry
// only needs to live for one access token TTL.
type AccessTokens struct {
	signer      TokenSigner
	revocations RevocationStore
	ttl         time.Duration
}

// NewAccessTokens creates an AccessTokens facade. ttl is both the token
// validity and the revocation entry lifetime.
func NewAccessTokens(signer TokenSigner, revocations RevocationStore, ttl time.Duration) *AccessTokens {
	return &AccessTokens{signer: signer, revocations: revocations, ttl: ttl}
}

// TTL returns the access token validity.
func (t *AccessTokens) TTL() time.Duration {
	return t.ttl
}

/*
Issue signs a new access token for the given identity.

Parameters:
  - auth: The caller identity to embed. RefreshTokenHash must be set to the
    session's current hash or the token can never be revoked.

Returns:
  - string: The signed compact JWT.
  - error: If signing fails.
*/
func (t *AccessTokens) Issue(auth sec.Authentication) (string, error) {
	return t.signer.SignAccessToken(auth, t.ttl)
}

/*
Verify checks a token's signature, expiry and revocation status.

Parameters:
  - ctx: Bounds the revocation lookup.
  - token: The compact JWT from the Authorization header.

Returns:
  - *sec.Authentication: The embedded identity, or nil when the token is
    malformed, expired or revoked. A revoked token is indistinguishable from
    an invalid one to callers.
  - error: Only when the revocation lookup itself fails. The cache being
    down is an infrastructure fault, never a statement about the token.
*/
func (t *AccessTokens) Verify(ctx context.Context, token string) (*sec.Authentication, error) {
	auth, err := t.signer.VerifyAccessToken(token)
	if err != nil {
		return nil, nil
	}
	revoked, err := t.revocations.IsInvalidated(ctx, auth.RefreshTokenHash)
	if err != nil {
		return nil, fmt.Errorf("access_token_revocation_check_failed: %w", err)
	}
	if revoked {
		return nil, nil
	}
	return auth, nil
}

// Invalidate deny-lists every outstanding access token carrying the given
// refresh token hash.
func (t *AccessTokens) Invalidate(ctx context.Context, refreshTokenHash string) error {
	return t.revocations.Invalidate(ctx, refreshTokenHash, t.ttl)
}

// IsInvalidated reports whether the hash is currently deny-listed.
func (t *AccessTokens) IsInvalidated(ctx context.Context, refreshTokenHash string) (bool, error) {
	return t.revocations.IsInvalidated(ctx, refreshTokenHash)
}
