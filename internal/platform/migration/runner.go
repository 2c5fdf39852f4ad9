// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration runs database schema migrations at process startup using
// golang-migrate with the pgx v5 driver.
package migration

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

/*
Up applies all pending migrations.

Parameters:
  - sourceURL: A file:// URL pointing at the migration directory.
  - databaseURL: The pgx5:// connection string.
  - logger: Receives one line per outcome.

Returns:
  - error: If the migration tooling fails. A no-change outcome is not an error.
*/
func Up(sourceURL, databaseURL string, logger *slog.Logger) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("migration_init_failed: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("migration_close_failed", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations_up_to_date")
			return nil
		}
		return fmt.Errorf("migration_up_failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("migration_version_failed: %w", err)
	}
	logger.Info("migrations_applied", "version", version, "dirty", dirty)
	return nil
}
