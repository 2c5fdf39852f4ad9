// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package redis constructs the shared Redis client used for volatile
// authentication state: revoked access tokens, failed-login counters and
// TOTP replay guards.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kanso/internal/platform/config"
)

/*
NewClient creates a Redis client and verifies connectivity with a ping.

Parameters:
  - ctx: Bounds the initial connection attempt.
  - cfg: Address and credential settings.

Returns:
  - *redis.Client: A ready client. Callers own Close().
  - error: If Redis is unreachable.
*/
func NewClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis_ping_failed: %w", err)
	}
	return client, nil
}
