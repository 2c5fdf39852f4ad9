// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/auth"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRevocationStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	store := auth.NewRedisRevocationStore(client)

	hash := sec.HashToken("some-refresh-token")

	revoked, err := store.IsInvalidated(ctx, hash)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Invalidate(ctx, hash, 15*time.Minute))

	revoked, err = store.IsInvalidated(ctx, hash)
	require.NoError(t, err)
	assert.True(t, revoked)

	// The entry must not outlive the longest possible access token.
	ttl := mr.TTL(constants.KeyAccessTokenInvalidated + hash)
	assert.Equal(t, 15*time.Minute, ttl)

	mr.FastForward(16 * time.Minute)
	revoked, err = store.IsInvalidated(ctx, hash)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisFailedAuthStoreCounting(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	store := auth.NewRedisFailedAuthStore(client)

	count, err := store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)

	for want := int64(1); want <= 3; want++ {
		got, err := store.Increment(ctx, "alice", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	count, err = store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Identifiers are case-insensitive: "Alice" and "alice" share a counter.
	got, err := store.Increment(ctx, "Alice", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)

	require.NoError(t, store.Reset(ctx, "ALICE"))
	count, err = store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRedisFailedAuthStoreWindowAnchoredAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	store := auth.NewRedisFailedAuthStore(client)

	_, err := store.Increment(ctx, "bob", time.Hour)
	require.NoError(t, err)

	mr.FastForward(30 * time.Minute)
	_, err = store.Increment(ctx, "bob", time.Hour)
	require.NoError(t, err)

	// The second failure must not extend the window.
	mr.FastForward(31 * time.Minute)
	count, err := store.Count(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRedisFailedAuthStoreHashesIdentifiers(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	store := auth.NewRedisFailedAuthStore(client)

	_, err := store.Increment(ctx, "alice@example.com", time.Hour)
	require.NoError(t, err)

	for _, key := range mr.Keys() {
		assert.False(t, strings.Contains(key, "alice@example.com"),
			"raw login identifiers must never appear in redis keys")
	}
}
