// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr translates driver-level database errors into the application
// error taxonomy so that store implementations stay free of pgx specifics.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/kanso/internal/platform/apperr"
)

// ErrNotFound is returned by stores when a query matches no rows. Services
// compare against it with errors.Is and substitute a resource-specific
// message before the error reaches a client.
var ErrNotFound = apperr.NotFound("Resource")

// Postgres error codes (https://www.postgresql.org/docs/current/errcodes-appendix.html).
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

/*
Translate maps a pgx error into the application error taxonomy.

Parameters:
  - err: The raw error returned by a pgx query.

Returns:
  - error: ErrNotFound for no-rows, a Conflict for unique violations, a
    ValidationError for foreign key violations, or an Internal wrapper for
    anything else. Returns nil when err is nil.
*/
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict("Resource already exists")
		case codeForeignKeyViolation:
			return apperr.ValidationError("Referenced resource does not exist")
		}
	}
	return apperr.Internal(err)
}

// IsNotFound reports whether err represents a no-rows result.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally scoped to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
