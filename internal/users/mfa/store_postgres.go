// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mfa

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/kanso/internal/platform/dberr"
)

// PostgresTotpStore implements [TotpStore] on pgx.
type PostgresTotpStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTotpStore creates a PostgresTotpStore.
func NewPostgresTotpStore(pool *pgxpool.Pool) *PostgresTotpStore {
	return &PostgresTotpStore{pool: pool}
}

func (s *PostgresTotpStore) Get(ctx context.Context, userID string) (*Totp, error) {
	const q = `SELECT userid, secret, recoverycodehash, createdat FROM mfa_totp WHERE userid = $1`
	var t Totp
	err := s.pool.QueryRow(ctx, q, userID).Scan(&t.UserID, &t.Secret, &t.RecoveryCodeHash, &t.CreatedAt)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	return &t, nil
}

func (s *PostgresTotpStore) Create(ctx context.Context, totp *Totp) error {
	const q = `
		INSERT INTO mfa_totp (userid, secret, recoverycodehash, createdat)
		VALUES ($1, $2, $3, $4)`
	_, err := s.pool.Exec(ctx, q, totp.UserID, totp.Secret, totp.RecoveryCodeHash, totp.CreatedAt)
	if err != nil {
		return fmt.Errorf("totp_store_create_failed: %w", dberr.Translate(err))
	}
	return nil
}

func (s *PostgresTotpStore) Delete(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM mfa_totp WHERE userid = $1`, userID)
	if err != nil {
		return fmt.Errorf("totp_store_delete_failed: %w", dberr.Translate(err))
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
