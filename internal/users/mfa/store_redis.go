// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mfa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/internal/platform/sec"
)

// # Replay guard

// RedisReplayStore implements [ReplayStore]. Keys combine the hashed secret
// with the code, so neither the secret nor a cross-user correlation ever
// lands in Redis.
type RedisReplayStore struct {
	client *redis.Client
}

// NewRedisReplayStore creates a RedisReplayStore.
func NewRedisReplayStore(client *redis.Client) *RedisReplayStore {
	return &RedisReplayStore{client: client}
}

func replayKey(secret, code string) string {
	return constants.KeyTotpCodeUsed + sec.HashToken(secret) + ":" + code
}

// MarkUsed burns the code. SETNX makes the burn atomic: of two concurrent
// submissions of the same code exactly one observes first use.
func (s *RedisReplayStore) MarkUsed(ctx context.Context, secret, code string, ttl time.Duration) (bool, error) {
	first, err := s.client.SetNX(ctx, replayKey(secret, code), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("replay_store_mark_failed: %w", err)
	}
	return first, nil
}

// # Pending secrets

// RedisPendingStore implements [PendingStore]. The TTL bounds how long an
// enrollment handshake may dangle.
type RedisPendingStore struct {
	client *redis.Client
}

// NewRedisPendingStore creates a RedisPendingStore.
func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func pendingKey(userID string) string {
	return constants.KeyTotpPending + userID
}

func (s *RedisPendingStore) Stage(ctx context.Context, userID, secret string, ttl time.Duration) error {
	if err := s.client.Set(ctx, pendingKey(userID), secret, ttl).Err(); err != nil {
		return fmt.Errorf("pending_store_stage_failed: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) Get(ctx context.Context, userID string) (string, error) {
	secret, err := s.client.Get(ctx, pendingKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", dberr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pending_store_get_failed: %w", err)
	}
	return secret, nil
}

func (s *RedisPendingStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, pendingKey(userID)).Err(); err != nil {
		return fmt.Errorf("pending_store_clear_failed: %w", err)
	}
	return nil
}
