// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/pkg/pagination"
)

// # User store

// PostgresUserStore implements [UserStore] on pgx.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a PostgresUserStore.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

const userColumns = `id, name, email, passwordhash, admin, enabled, emailverified, createdat, lastlogin`

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Admin,
		&u.Enabled, &u.EmailVerified, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	return &u, nil
}

func (s *PostgresUserStore) Create(ctx context.Context, user *User) error {
	const q = `
		INSERT INTO users (id, name, email, passwordhash, admin, enabled, emailverified, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, q, user.ID, user.Name, user.Email, user.PasswordHash,
		user.Admin, user.Enabled, user.EmailVerified, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("user_store_create_failed: %w", dberr.Translate(err))
	}
	return nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresUserStore) GetByName(ctx context.Context, name string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(name) = lower($1)`
	return scanUser(s.pool.QueryRow(ctx, q, name))
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(s.pool.QueryRow(ctx, q, email))
}

func (s *PostgresUserStore) GetByNameOrEmail(ctx context.Context, nameOrEmail string) (*User, error) {
	if strings.Contains(nameOrEmail, "@") {
		return s.GetByEmail(ctx, nameOrEmail)
	}
	return s.GetByName(ctx, nameOrEmail)
}

func (s *PostgresUserStore) List(ctx context.Context, params pagination.Params) ([]*User, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("user_store_count_failed: %w", dberr.Translate(err))
	}

	q := `SELECT ` + userColumns + ` FROM users ORDER BY createdat, id LIMIT $1 OFFSET $2`
	rows, err := s.pool.Query(ctx, q, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("user_store_list_failed: %w", dberr.Translate(err))
	}
	defer rows.Close()

	users := make([]*User, 0, params.Limit())
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("user_store_list_scan_failed: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("user_store_list_rows_failed: %w", dberr.Translate(err))
	}
	return users, total, nil
}

func (s *PostgresUserStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return s.updateColumn(ctx, "passwordhash", id, passwordHash)
}

func (s *PostgresUserStore) UpdateAdmin(ctx context.Context, id string, admin bool) error {
	return s.updateColumn(ctx, "admin", id, admin)
}

func (s *PostgresUserStore) UpdateEnabled(ctx context.Context, id string, enabled bool) error {
	return s.updateColumn(ctx, "enabled", id, enabled)
}

func (s *PostgresUserStore) UpdateEmailVerified(ctx context.Context, id string, verified bool) error {
	return s.updateColumn(ctx, "emailverified", id, verified)
}

func (s *PostgresUserStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.updateColumn(ctx, "lastlogin", id, at)
}

func (s *PostgresUserStore) updateColumn(ctx context.Context, column, id string, value any) error {
	q := `UPDATE users SET ` + column + ` = $2 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, value)
	if err != nil {
		return fmt.Errorf("user_store_update_failed: %w", dberr.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user_store_delete_failed: %w", dberr.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Session store

// PostgresSessionStore implements [SessionStore] on pgx.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore creates a PostgresSessionStore.
func NewPostgresSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

const sessionColumns = `id, userid, devicename, refreshtokenhash, createdat, updatedat`

func scanSession(row interface{ Scan(dest ...any) error }) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.DeviceName, &s.RefreshTokenHash,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	return &s, nil
}

func (s *PostgresSessionStore) Create(ctx context.Context, session *Session) error {
	const q = `
		INSERT INTO sessions (id, userid, devicename, refreshtokenhash, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, q, session.ID, session.UserID, session.DeviceName,
		session.RefreshTokenHash, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("session_store_create_failed: %w", dberr.Translate(err))
	}
	return nil
}

func (s *PostgresSessionStore) GetByID(ctx context.Context, id string) (*Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresSessionStore) GetByRefreshTokenHash(ctx context.Context, hash string) (*Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE refreshtokenhash = $1`
	return scanSession(s.pool.QueryRow(ctx, q, hash))
}

func (s *PostgresSessionStore) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE userid = $1 ORDER BY createdat, id`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("session_store_list_failed: %w", dberr.Translate(err))
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("session_store_list_scan_failed: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session_store_list_rows_failed: %w", dberr.Translate(err))
	}
	return sessions, nil
}

func (s *PostgresSessionStore) ListRefreshTokenHashesByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT refreshtokenhash FROM sessions WHERE userid = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("session_store_list_hashes_failed: %w", dberr.Translate(err))
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("session_store_list_hashes_scan_failed: %w", dberr.Translate(err))
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session_store_list_hashes_rows_failed: %w", dberr.Translate(err))
	}
	return hashes, nil
}

// RotateRefreshTokenHash is a compare-and-swap on the stored hash. The WHERE
// clause pins the old hash so only one of two racing refreshes can win;
// the loser sees zero rows affected.
func (s *PostgresSessionStore) RotateRefreshTokenHash(ctx context.Context, id, oldHash, newHash string, now time.Time) (bool, error) {
	const q = `
		UPDATE sessions SET refreshtokenhash = $3, updatedat = $4
		WHERE id = $1 AND refreshtokenhash = $2`
	tag, err := s.pool.Exec(ctx, q, id, oldHash, newHash, now)
	if err != nil {
		return false, fmt.Errorf("session_store_rotate_failed: %w", dberr.Translate(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("session_store_delete_failed: %w", dberr.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (s *PostgresSessionStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE userid = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("session_store_delete_by_user_failed: %w", dberr.Translate(err))
	}
	return tag.RowsAffected(), nil
}
