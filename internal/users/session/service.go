// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session orchestrates the interactive authentication flows: login with
CAPTCHA escalation and second-factor checks, refresh-token rotation, logout,
and session management.

It composes the credential primitives from the auth package; the second
factor plugs in through the [MfaAuthenticator] interface so this package
never touches TOTP internals.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/auth"
	"github.com/taibuivan/kanso/pkg/uuid"
)

// MfaAuthenticator is the second-factor hook the login flow calls into.
// Implemented by the mfa package.
type MfaAuthenticator interface {
	// Enabled reports whether the user has an active second factor.
	Enabled(ctx context.Context, userID string) (bool, error)
	// Authenticate evaluates a challenge for the user. It returns
	// MfaDisabled without inspecting the challenge when no second factor
	// is active.
	Authenticate(ctx context.Context, userID string, challenge auth.MfaChallenge) (auth.MfaResult, error)
}

// Service implements the session lifecycle.
type Service struct {
	users    auth.UserStore
	sessions auth.SessionStore
	authn    *auth.Service
	mfa      MfaAuthenticator
	logger   *slog.Logger
}

// NewService creates the session service.
func NewService(users auth.UserStore, sessions auth.SessionStore, authn *auth.Service, mfa MfaAuthenticator, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		authn:    authn,
		mfa:      mfa,
		logger:   logger.With("component", "session"),
	}
}

// LoginRequest carries one login attempt.
type LoginRequest struct {
	NameOrEmail     string
	Password        string
	DeviceName      *string
	Mfa             auth.MfaChallenge
	CaptchaResponse string
}

/*
Login performs a full interactive login.

The flow, in order: CAPTCHA escalation check, password check, second factor,
account state check, session creation. Failures before the account state
check bump the failed-login counter; the generic credential error never
reveals which step rejected the attempt.

Parameters:
  - ctx: Bounds all store calls.
  - req: The attempt.

Returns:
  - *auth.Login: The new session with its token pair.
  - error: CaptchaRequiredError (412) when a CAPTCHA must accompany the
    attempt, MfaRequiredError (412) when credentials were right but a second
    factor is missing, InvalidCredentialsError (401) otherwise.
*/
func (s *Service) Login(ctx context.Context, req LoginRequest) (*auth.Login, error) {
	captchaRequired, err := s.authn.CaptchaRequired(ctx, req.NameOrEmail)
	if err != nil {
		return nil, fmt.Errorf("session_service_captcha_check_failed: %w", err)
	}
	if captchaRequired {
		ok, err := s.authn.VerifyCaptcha(ctx, req.CaptchaResponse)
		if err != nil {
			return nil, fmt.Errorf("session_service_captcha_verify_failed: %w", err)
		}
		if !ok {
			return nil, auth.CaptchaRequiredError()
		}
	}

	user, err := s.authn.AuthenticateByPassword(ctx, req.NameOrEmail, req.Password)
	if err != nil {
		s.authn.RecordLoginFailure(ctx, req.NameOrEmail)
		return nil, err
	}

	result, err := s.mfa.Authenticate(ctx, user.ID, req.Mfa)
	if err != nil {
		return nil, fmt.Errorf("session_service_mfa_failed: %w", err)
	}
	switch result {
	case auth.MfaDisabled, auth.MfaOk:
		// proceed
	case auth.MfaReset:
		s.logger.Info("mfa_reset_by_recovery_code", "user_id", user.ID)
	case auth.MfaFailed:
		if req.Mfa.Empty() {
			// Password was right; pause the flow instead of burning a
			// failure on a client that simply has not asked for a code yet.
			return nil, auth.MfaRequiredError()
		}
		s.authn.RecordLoginFailure(ctx, user.Name, user.Email)
		return nil, auth.InvalidCredentialsError()
	}

	// The counters track credential guessing. A fully proven identity
	// clears them even when the account turns out to be disabled.
	s.authn.ResetLoginFailures(ctx, user.Name, user.Email)

	if !user.Enabled {
		return nil, auth.InvalidCredentialsError()
	}

	return s.Create(ctx, user, req.DeviceName)
}

/*
Create opens a new session for an already-authenticated user.

Also the entry point for registration (first session) and admin
impersonation, which bypass the password flow.
*/
func (s *Service) Create(ctx context.Context, user *auth.User, deviceName *string) (*auth.Login, error) {
	sessionID := uuid.New()
	tokens, err := s.authn.IssueTokens(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session_service_issue_tokens_failed: %w", err)
	}

	now := time.Now().UTC()
	session := &auth.Session{
		ID:               sessionID,
		UserID:           user.ID,
		DeviceName:       deviceName,
		RefreshTokenHash: tokens.RefreshTokenHash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("session_service_create_failed: %w", err)
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("last_login_update_failed", "user_id", user.ID, "error", err)
	}

	s.logger.Info("session_created", "user_id", user.ID, "session_id", sessionID)
	return &auth.Login{
		User:         user,
		Session:      session,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

/*
Refresh rotates a refresh token and issues a fresh token pair.

Each refresh token is single-use: the rotation is a compare-and-swap on the
stored hash, so of two concurrent refreshes exactly one wins and the other
receives the invalid-token error. All access tokens minted under the old
hash are revoked before the new pair is released.

Returns:
  - *auth.Login: The session with its new pair.
  - error: InvalidRefreshTokenError for unknown, rotated or raced tokens;
    the session-expired 401 when the session idled out, in which case the
    dead row is deleted.
*/
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.Login, error) {
	session, err := s.authn.AuthenticateByRefreshToken(ctx, refreshToken)
	if err != nil {
		var expired *auth.RefreshTokenExpiredError
		if errors.As(err, &expired) {
			if delErr := s.sessions.Delete(ctx, expired.SessionID); delErr != nil && !dberr.IsNotFound(delErr) {
				s.logger.Warn("expired_session_cleanup_failed", "session_id", expired.SessionID, "error", delErr)
			}
			return nil, expired.AppError()
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("session_service_refresh_user_failed: %w", err)
	}
	if !user.Enabled {
		return nil, auth.InvalidRefreshTokenError()
	}

	tokens, err := s.authn.IssueTokens(user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("session_service_refresh_issue_failed: %w", err)
	}

	// Old access tokens die with the old hash.
	if err := s.authn.InvalidateSessionTokens(ctx, session.RefreshTokenHash); err != nil {
		return nil, fmt.Errorf("session_service_refresh_invalidate_failed: %w", err)
	}

	now := time.Now().UTC()
	rotated, err := s.sessions.RotateRefreshTokenHash(ctx, session.ID, session.RefreshTokenHash, tokens.RefreshTokenHash, now)
	if err != nil {
		return nil, fmt.Errorf("session_service_rotate_failed: %w", err)
	}
	if !rotated {
		return nil, auth.InvalidRefreshTokenError()
	}

	session.RefreshTokenHash = tokens.RefreshTokenHash
	session.UpdatedAt = now
	return &auth.Login{
		User:         user,
		Session:      session,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout terminates the caller's current session: its access tokens are
// revoked and the row deleted. Logging out an already-dead session succeeds.
func (s *Service) Logout(ctx context.Context, authn *sec.Authentication) error {
	if err := s.authn.InvalidateSessionTokens(ctx, authn.RefreshTokenHash); err != nil {
		return fmt.Errorf("session_service_logout_invalidate_failed: %w", err)
	}
	if err := s.sessions.Delete(ctx, authn.SessionID); err != nil && !dberr.IsNotFound(err) {
		return fmt.Errorf("session_service_logout_delete_failed: %w", err)
	}
	s.logger.Info("session_logged_out", "user_id", authn.UserID, "session_id", authn.SessionID)
	return nil
}

// LogoutEverywhere terminates every session of a user.
func (s *Service) LogoutEverywhere(ctx context.Context, userID string) (int64, error) {
	if err := s.authn.InvalidateUserTokens(ctx, userID); err != nil {
		return 0, fmt.Errorf("session_service_logout_all_invalidate_failed: %w", err)
	}
	deleted, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("session_service_logout_all_delete_failed: %w", err)
	}
	s.logger.Info("sessions_logged_out_everywhere", "user_id", userID, "count", deleted)
	return deleted, nil
}

// GetCurrent returns the caller's session row.
func (s *Service) GetCurrent(ctx context.Context, authn *sec.Authentication) (*auth.Session, error) {
	session, err := s.sessions.GetByID(ctx, authn.SessionID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("session_service_get_current_failed: %w", err)
	}
	return session, nil
}

// ListByUser returns every live session of a user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*auth.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("session_service_list_failed: %w", err)
	}
	return sessions, nil
}

// Delete terminates one named session of a user. The ownership check keeps
// a user from killing someone else's session by guessing IDs.
func (s *Service) Delete(ctx context.Context, userID, sessionID string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return apperr.NotFound("Session")
		}
		return fmt.Errorf("session_service_delete_get_failed: %w", err)
	}
	if session.UserID != userID {
		return apperr.NotFound("Session")
	}
	if err := s.authn.InvalidateSessionTokens(ctx, session.RefreshTokenHash); err != nil {
		return fmt.Errorf("session_service_delete_invalidate_failed: %w", err)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !dberr.IsNotFound(err) {
		return fmt.Errorf("session_service_delete_failed: %w", err)
	}
	return nil
}

/*
Impersonate opens a session as another user on behalf of an administrator.

The session is indistinguishable from one the target opened themselves; the
act is logged with both identities for the audit trail.
*/
func (s *Service) Impersonate(ctx context.Context, admin *sec.Authentication, targetUserID string) (*auth.Login, error) {
	if err := admin.EnsureAdmin(); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("session_service_impersonate_get_failed: %w", err)
	}
	if !target.Enabled {
		return nil, apperr.Forbidden("Cannot impersonate a disabled user")
	}

	s.logger.Info("impersonation", "admin_id", admin.UserID, "target_id", targetUserID)
	deviceName := "impersonation"
	return s.Create(ctx, target, &deviceName)
}
