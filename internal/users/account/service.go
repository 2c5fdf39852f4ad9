// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements user account management: registration, profile
access, administrative flag changes and password changes.

Every operation that shrinks what a user is allowed to do (disabling the
account, demoting an admin, unverifying an email) immediately revokes the
user's outstanding access tokens, so stale tokens cannot outlive the change.
*/
package account

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/auth"
	"github.com/taibuivan/kanso/internal/users/session"
	"github.com/taibuivan/kanso/pkg/pagination"
	"github.com/taibuivan/kanso/pkg/uuid"
)

// Service implements account management.
type Service struct {
	users    auth.UserStore
	sessions *session.Service
	authn    *auth.Service
	logger   *slog.Logger
}

// NewService creates the account service.
func NewService(users auth.UserStore, sessions *session.Service, authn *auth.Service, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		authn:    authn,
		logger:   logger.With("component", "account"),
	}
}

// RegisterRequest carries a registration.
type RegisterRequest struct {
	Name       string
	Email      string
	Password   string
	DeviceName *string
}

/*
Register creates a new account and logs it in.

The first session is created directly, skipping the password flow the user
just proved they can pass.

Returns:
  - *auth.Login: The new user with their first session.
  - error: A Conflict when the name or email is taken.
*/
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*auth.Login, error) {
	passwordHash, err := sec.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	user := &auth.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Enabled:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusConflict {
			return nil, apperr.Conflict("Name or email is already taken")
		}
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	s.logger.Info("user_registered", "user_id", user.ID)
	return s.sessions.Create(ctx, user, req.DeviceName)
}

// Get returns one user. Callers may read themselves; admins may read anyone.
func (s *Service) Get(ctx context.Context, caller *sec.Authentication, userID string) (*auth.User, error) {
	if err := caller.EnsureSelfOrAdmin(userID); err != nil {
		return nil, err
	}
	return s.getUser(ctx, userID)
}

// GetInternal returns one user for service-to-service calls. Authorization
// happened at the transport layer via the internal token.
func (s *Service) GetInternal(ctx context.Context, userID string) (*auth.User, error) {
	return s.getUser(ctx, userID)
}

func (s *Service) getUser(ctx context.Context, userID string) (*auth.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_get_failed: %w", err)
	}
	return user, nil
}

// List returns a page of users. Admin only, enforced at the route.
func (s *Service) List(ctx context.Context, params pagination.Params) (pagination.Page[*auth.User], error) {
	users, total, err := s.users.List(ctx, params)
	if err != nil {
		return pagination.Page[*auth.User]{}, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return pagination.NewPage(users, params, total), nil
}

/*
SetAdmin grants or revokes administrator rights.

A revocation invalidates the user's access tokens so the dropped privilege
takes effect within one token round-trip, not one token lifetime.
*/
func (s *Service) SetAdmin(ctx context.Context, userID string, admin bool) error {
	if err := s.users.UpdateAdmin(ctx, userID, admin); err != nil {
		if dberr.IsNotFound(err) {
			return apperr.NotFound("User")
		}
		return fmt.Errorf("account_service_set_admin_failed: %w", err)
	}
	// Grants are also invalidated: outstanding tokens carry the stale
	// flag either way.
	if err := s.authn.InvalidateUserTokens(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("admin_flag_changed", "user_id", userID, "admin", admin)
	return nil
}

// SetEnabled enables or disables an account. Disabling terminates every
// session immediately.
func (s *Service) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	if err := s.users.UpdateEnabled(ctx, userID, enabled); err != nil {
		if dberr.IsNotFound(err) {
			return apperr.NotFound("User")
		}
		return fmt.Errorf("account_service_set_enabled_failed: %w", err)
	}
	if !enabled {
		if _, err := s.sessions.LogoutEverywhere(ctx, userID); err != nil {
			return err
		}
	}
	s.logger.Info("enabled_flag_changed", "user_id", userID, "enabled", enabled)
	return nil
}

// SetEmailVerified sets the email verification flag and refreshes the
// claim baked into outstanding tokens.
func (s *Service) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	if err := s.users.UpdateEmailVerified(ctx, userID, verified); err != nil {
		if dberr.IsNotFound(err) {
			return apperr.NotFound("User")
		}
		return fmt.Errorf("account_service_set_verified_failed: %w", err)
	}
	if err := s.authn.InvalidateUserTokens(ctx, userID); err != nil {
		return err
	}
	return nil
}

/*
ChangePassword rotates the caller's password after verifying the old one.

Existing sessions survive: refresh tokens are independent credentials and
the caller just proved they hold the password.
*/
func (s *Service) ChangePassword(ctx context.Context, caller *sec.Authentication, oldPassword, newPassword string) error {
	user, err := s.getUser(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if !sec.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("account_service_hash_failed: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("account_service_change_password_failed: %w", err)
	}
	s.logger.Info("password_changed", "user_id", user.ID)
	return nil
}

// Delete removes an account after terminating every session. Admin only,
// enforced at the route.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if _, err := s.sessions.LogoutEverywhere(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if dberr.IsNotFound(err) {
			return apperr.NotFound("User")
		}
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}
	s.logger.Info("user_deleted", "user_id", userID)
	return nil
}
