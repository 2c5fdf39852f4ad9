// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api runs the Kanso account platform API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/taibuivan/kanso/internal/api"
	"github.com/taibuivan/kanso/internal/platform/config"
	"github.com/taibuivan/kanso/internal/platform/migration"
	"github.com/taibuivan/kanso/internal/platform/postgres"
	"github.com/taibuivan/kanso/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// golang-migrate drives its own connection; the pgx5 scheme tells it
	// to use the same driver family as the pool.
	migrateURL := "pgx5://" + strings.TrimPrefix(cfg.Postgres.DSN(), "postgres://")
	if err := migration.Up(cfg.Postgres.MigrationsPath, migrateURL, logger); err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	server, err := api.New(cfg, logger, pool, rdb)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
