// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kanso/internal/platform/respond"
)

// health reports liveness of the process and its two backing stores.
func health(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "postgres": "ok", "redis": "ok"}
		healthy := true

		if err := pool.Ping(ctx); err != nil {
			status["postgres"] = "unreachable"
			healthy = false
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status["redis"] = "unreachable"
			healthy = false
		}
		if !healthy {
			status["status"] = "degraded"
			respond.JSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		respond.OK(w, r, status)
	}
}
