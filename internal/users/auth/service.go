// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/kanso/internal/platform/apperr"
	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/internal/platform/sec"
)

// Service is the credential core. It answers three questions: is this access
// token good, does this password belong to this login identifier, and does
// this refresh token map to a live session. The login orchestration itself
// lives in the session package.
type Service struct {
	users    UserStore
	sessions SessionStore
	access   *AccessTokens
	refresh  *RefreshTokens
	failed   FailedAuthStore
	captcha  CaptchaVerifier

	failsBeforeCaptcha int
	failedWindow       time.Duration
	refreshTTL         time.Duration

	logger *slog.Logger
}

// Config bundles the dependencies of [NewService].
type Config struct {
	Users    UserStore
	Sessions SessionStore
	Access   *AccessTokens
	Refresh  *RefreshTokens
	Failed   FailedAuthStore
	Captcha  CaptchaVerifier

	FailsBeforeCaptcha int
	FailedWindow       time.Duration
	RefreshTTL         time.Duration

	Logger *slog.Logger
}

// NewService creates the credential core service.
func NewService(cfg Config) *Service {
	return &Service{
		users:              cfg.Users,
		sessions:           cfg.Sessions,
		access:             cfg.Access,
		refresh:            cfg.Refresh,
		failed:             cfg.Failed,
		captcha:            cfg.Captcha,
		failsBeforeCaptcha: cfg.FailsBeforeCaptcha,
		failedWindow:       cfg.FailedWindow,
		refreshTTL:         cfg.RefreshTTL,
		logger:             cfg.Logger.With("component", "auth"),
	}
}

// # Access tokens

/*
Authenticate verifies a bearer access token end to end.

Parameters:
  - ctx: Bounds the revocation lookup.
  - token: The compact JWT.

Returns:
  - *sec.Authentication: The verified caller identity.
  - error: Unauthorized when the token is malformed, expired or revoked; a
    wrapped infrastructure error when the revocation cache is unreachable.
*/
func (s *Service) Authenticate(ctx context.Context, token string) (*sec.Authentication, error) {
	auth, err := s.access.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("auth_service_authenticate_failed: %w", err)
	}
	if auth == nil {
		return nil, apperr.Unauthorized("Invalid or expired access token")
	}
	return auth, nil
}

/*
IssueTokens mints a fresh access/refresh pair for a session.

The returned RefreshTokenHash must be persisted on the session row (create
or CAS rotate) before the pair is released to the client.

Parameters:
  - user: The session owner. Admin and EmailVerified flags are baked into
    the access token.
  - sessionID: The session the pair belongs to.

Returns:
  - *Tokens: The pair plus the hash to store.
  - error: If entropy or signing fails.
*/
func (s *Service) IssueTokens(user *User, sessionID string) (*Tokens, error) {
	refreshToken, hash, err := s.refresh.Issue()
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_refresh_failed: %w", err)
	}
	accessToken, err := s.access.Issue(sec.Authentication{
		UserID:           user.ID,
		SessionID:        sessionID,
		RefreshTokenHash: hash,
		Admin:            user.Admin,
		EmailVerified:    user.EmailVerified,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_access_failed: %w", err)
	}
	return &Tokens{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshTokenHash: hash,
	}, nil
}

// InvalidateSessionTokens deny-lists every outstanding access token of a
// single session, identified by its current refresh token hash.
func (s *Service) InvalidateSessionTokens(ctx context.Context, refreshTokenHash string) error {
	return s.access.Invalidate(ctx, refreshTokenHash)
}

/*
InvalidateUserTokens deny-lists every outstanding access token of every
session of a user. Called when the user's privileges shrink or the account
is disabled, so stale tokens cannot outlive the change.

Parameters:
  - ctx: Bounds the store calls.
  - userID: The affected user.

Returns:
  - error: If the session listing or any deny-list write fails.
*/
func (s *Service) InvalidateUserTokens(ctx context.Context, userID string) error {
	hashes, err := s.sessions.ListRefreshTokenHashesByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("auth_service_list_hashes_failed: %w", err)
	}
	for _, hash := range hashes {
		if err := s.access.Invalidate(ctx, hash); err != nil {
			return fmt.Errorf("auth_service_invalidate_failed: %w", err)
		}
	}
	s.logger.Info("user_tokens_invalidated", "user_id", userID, "sessions", len(hashes))
	return nil
}

// AccessTokenTTL returns the configured access token validity.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.access.TTL()
}

// # Password authentication

/*
AuthenticateByPassword resolves a login identifier and checks the password.

Failure never reveals which part was wrong: an unknown identifier costs a
dummy bcrypt comparison so its timing matches a wrong password.

Parameters:
  - ctx: Bounds the user lookup.
  - nameOrEmail: The login identifier, name or email.
  - password: The cleartext candidate.

Returns:
  - *User: The authenticated user. Enabled is NOT checked here.
  - error: InvalidCredentialsError on any mismatch.
*/
func (s *Service) AuthenticateByPassword(ctx context.Context, nameOrEmail, password string) (*User, error) {
	user, err := s.users.GetByNameOrEmail(ctx, nameOrEmail)
	if err != nil {
		if dberr.IsNotFound(err) {
			sec.CheckPasswordDummy(password)
			return nil, InvalidCredentialsError()
		}
		return nil, fmt.Errorf("auth_service_user_lookup_failed: %w", err)
	}
	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, InvalidCredentialsError()
	}
	return user, nil
}

// # Refresh tokens

/*
AuthenticateByRefreshToken resolves a raw refresh token to its session.

Parameters:
  - ctx: Bounds the lookup.
  - refreshToken: The raw token presented by the client.

Returns:
  - *Session: The live session.
  - error: InvalidRefreshTokenError for unknown or already-rotated tokens,
    or *RefreshTokenExpiredError when the session idled past its window.
*/
func (s *Service) AuthenticateByRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	session, err := s.sessions.GetByRefreshTokenHash(ctx, s.refresh.Hash(refreshToken))
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, InvalidRefreshTokenError()
		}
		return nil, fmt.Errorf("auth_service_session_lookup_failed: %w", err)
	}
	if time.Since(session.UpdatedAt) > s.refreshTTL {
		return nil, &RefreshTokenExpiredError{SessionID: session.ID}
	}
	return session, nil
}

// # Failed-login escalation

/*
CaptchaRequired reports whether the next login attempt for this identifier
must carry a CAPTCHA response.

A disabled verifier never demands a CAPTCHA regardless of the counter.
*/
func (s *Service) CaptchaRequired(ctx context.Context, login string) (bool, error) {
	if !s.captcha.Enabled() {
		return false, nil
	}
	count, err := s.failed.Count(ctx, login)
	if err != nil {
		return false, fmt.Errorf("auth_service_failed_count_failed: %w", err)
	}
	return count >= int64(s.failsBeforeCaptcha), nil
}

// VerifyCaptcha checks a client CAPTCHA response. Transport failures are
// surfaced as Internal errors rather than silently passing the challenge.
func (s *Service) VerifyCaptcha(ctx context.Context, response string) (bool, error) {
	ok, err := s.captcha.Verify(ctx, response)
	if err != nil {
		return false, apperr.Internal(err)
	}
	return ok, nil
}

// RecordLoginFailure bumps the failure counter for every given identifier.
// Counter errors are logged, not returned: a Redis hiccup must not mask the
// credential error the caller is about to report.
func (s *Service) RecordLoginFailure(ctx context.Context, logins ...string) {
	for _, login := range logins {
		if login == "" {
			continue
		}
		if _, err := s.failed.Increment(ctx, login, s.failedWindow); err != nil {
			s.logger.Error("login_failure_record_failed", "error", err)
		}
	}
}

// ResetLoginFailures clears the failure counters after a successful login.
func (s *Service) ResetLoginFailures(ctx context.Context, logins ...string) {
	valid := make([]string, 0, len(logins))
	for _, login := range logins {
		if login != "" {
			valid = append(valid, login)
		}
	}
	if err := s.failed.Reset(ctx, valid...); err != nil {
		s.logger.Error("login_failure_reset_failed", "error", err)
	}
}
