// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/sec"
)

// # Revocation store

// RedisRevocationStore implements [RevocationStore]. Entries expire on their
// own once no access token carrying the hash can still be alive, so the
// deny-list stays small without any sweeping.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore creates a RedisRevocationStore.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func revocationKey(refreshTokenHash string) string {
	return constants.KeyAccessTokenInvalidated + refreshTokenHash
}

func (s *RedisRevocationStore) Invalidate(ctx context.Context, refreshTokenHash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revocationKey(refreshTokenHash), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revocation_store_invalidate_failed: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsInvalidated(ctx context.Context, refreshTokenHash string) (bool, error) {
	err := s.client.Get(ctx, revocationKey(refreshTokenHash)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("revocation_store_check_failed: %w", err)
	}
	return true, nil
}

// # Failed auth store

// RedisFailedAuthStore implements [FailedAuthStore]. Counters are keyed by
// the hash of the lowercased login identifier, so the raw name or email
// never appears in Redis.
type RedisFailedAuthStore struct {
	client *redis.Client
}

// NewRedisFailedAuthStore creates a RedisFailedAuthStore.
func NewRedisFailedAuthStore(client *redis.Client) *RedisFailedAuthStore {
	return &RedisFailedAuthStore{client: client}
}

func failedAuthKey(login string) string {
	return constants.KeyFailedAuthAttempts + sec.HashToken(strings.ToLower(login))
}

// Increment bumps the counter. The TTL is set only when the INCR created the
// key, which anchors the window at the first failure.
func (s *RedisFailedAuthStore) Increment(ctx context.Context, login string, window time.Duration) (int64, error) {
	key := failedAuthKey(login)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed_auth_store_incr_failed: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("failed_auth_store_expire_failed: %w", err)
		}
	}
	return count, nil
}

func (s *RedisFailedAuthStore) Count(ctx context.Context, login string) (int64, error) {
	count, err := s.client.Get(ctx, failedAuthKey(login)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed_auth_store_get_failed: %w", err)
	}
	return count, nil
}

func (s *RedisFailedAuthStore) Reset(ctx context.Context, logins ...string) error {
	if len(logins) == 0 {
		return nil
	}
	keys := make([]string, len(logins))
	for i, login := range logins {
		keys[i] = failedAuthKey(login)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed_auth_store_reset_failed: %w", err)
	}
	return nil
}
