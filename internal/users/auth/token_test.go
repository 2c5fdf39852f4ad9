// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/auth"
	"github.com/taibuivan/kanso/internal/users/auth/authtest"
)

func newTestSigner(t *testing.T) *sec.TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return sec.NewTokenServiceFromKey(key, "kanso-test")
}

func TestAccessTokensRoundTrip(t *testing.T) {
	tokens := auth.NewAccessTokens(newTestSigner(t), authtest.NewMemRevocations(), 15*time.Minute)

	identity := sec.Authentication{
		UserID:           "user-1",
		SessionID:        "session-1",
		RefreshTokenHash: sec.HashToken("refresh-1"),
		Admin:            true,
		EmailVerified:    true,
	}
	signed, err := tokens.Issue(identity)
	require.NoError(t, err)

	got, err := tokens.Verify(context.Background(), signed)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, identity, *got)
}

func TestAccessTokensRejectsGarbage(t *testing.T) {
	tokens := auth.NewAccessTokens(newTestSigner(t), authtest.NewMemRevocations(), 15*time.Minute)

	got, err := tokens.Verify(context.Background(), "not-a-jwt")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = tokens.Verify(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccessTokensRejectsForeignSignature(t *testing.T) {
	issuer := auth.NewAccessTokens(newTestSigner(t), authtest.NewMemRevocations(), 15*time.Minute)
	verifier := auth.NewAccessTokens(newTestSigner(t), authtest.NewMemRevocations(), 15*time.Minute)

	signed, err := issuer.Issue(sec.Authentication{UserID: "user-1"})
	require.NoError(t, err)

	got, err := verifier.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccessTokensRejectsExpired(t *testing.T) {
	tokens := auth.NewAccessTokens(newTestSigner(t), authtest.NewMemRevocations(), -time.Minute)

	signed, err := tokens.Issue(sec.Authentication{UserID: "user-1"})
	require.NoError(t, err)

	got, err := tokens.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccessTokensRevocation(t *testing.T) {
	ctx := context.Background()
	tokens := auth.NewAccessTokens(newTestSigner(t), authtest.NewMemRevocations(), 15*time.Minute)

	hash := sec.HashToken("refresh-1")
	signedA, err := tokens.Issue(sec.Authentication{UserID: "user-1", RefreshTokenHash: hash})
	require.NoError(t, err)
	signedB, err := tokens.Issue(sec.Authentication{UserID: "user-1", RefreshTokenHash: hash})
	require.NoError(t, err)
	other, err := tokens.Issue(sec.Authentication{UserID: "user-2", RefreshTokenHash: sec.HashToken("refresh-2")})
	require.NoError(t, err)

	require.NoError(t, tokens.Invalidate(ctx, hash))

	got, err := tokens.Verify(ctx, signedA)
	require.NoError(t, err)
	assert.Nil(t, got, "all tokens sharing the hash die together")

	got, err = tokens.Verify(ctx, signedB)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = tokens.Verify(ctx, other)
	require.NoError(t, err)
	assert.NotNil(t, got, "unrelated sessions are untouched")

	revoked, err := tokens.IsInvalidated(ctx, hash)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAccessTokensCacheFailure(t *testing.T) {
	revocations := authtest.NewMemRevocations()
	tokens := auth.NewAccessTokens(newTestSigner(t), revocations, 15*time.Minute)

	signed, err := tokens.Issue(sec.Authentication{UserID: "user-1", RefreshTokenHash: sec.HashToken("refresh-1")})
	require.NoError(t, err)

	revocations.FailWith = errors.New("connection refused")

	got, err := tokens.Verify(context.Background(), signed)
	require.Error(t, err, "a cache outage is an infrastructure fault, not a verdict on the token")
	assert.Nil(t, got)
}

func TestRefreshTokensIssue(t *testing.T) {
	refresh := auth.NewRefreshTokens(64)

	token, hash, err := refresh.Issue()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, sec.HashToken(token), hash)
	assert.Equal(t, hash, refresh.Hash(token))

	again, _, err := refresh.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, token, again)
}
