// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mfa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/dberr"
	"github.com/taibuivan/kanso/internal/platform/sec"
	"github.com/taibuivan/kanso/internal/users/auth"
)

// Service implements the second-factor lifecycle and the login-time check.
// It satisfies session.MfaAuthenticator.
type Service struct {
	totps   TotpStore
	replays ReplayStore
	pending PendingStore

	secretLength int
	issuer       string

	logger *slog.Logger
}

// NewService creates the MFA service. secretLength is the raw byte length of
// generated secrets; issuer is the label shown in authenticator apps.
func NewService(totps TotpStore, replays ReplayStore, pending PendingStore, secretLength int, issuer string, logger *slog.Logger) *Service {
	return &Service{
		totps:        totps,
		replays:      replays,
		pending:      pending,
		secretLength: secretLength,
		issuer:       issuer,
		logger:       logger.With("component", "mfa"),
	}
}

// Enrollment is the client-facing half of a staged second factor.
type Enrollment struct {
	// Secret is the base32 secret for manual entry.
	Secret string `json:"secret"`
	// ProvisioningURL is the otpauth:// URL for QR enrollment.
	ProvisioningURL string `json:"provisioning_url"`
}

// Enabled reports whether the user has an active second factor.
func (s *Service) Enabled(ctx context.Context, userID string) (bool, error) {
	_, err := s.totps.Get(ctx, userID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("mfa_service_enabled_check_failed: %w", err)
	}
	return true, nil
}

/*
Initialize stages a fresh secret for enrollment.

The secret lives only in the pending store until [Service.Enable] confirms
it; calling Initialize again replaces the staged secret.

Parameters:
  - ctx: Bounds the store calls.
  - userID: The enrolling user.
  - accountName: The label embedded in the provisioning URL, usually the
    user's email.

Returns:
  - *Enrollment: The staged secret and its provisioning URL.
  - error: AlreadyEnabledError when a second factor is already active.
*/
func (s *Service) Initialize(ctx context.Context, userID, accountName string) (*Enrollment, error) {
	enabled, err := s.Enabled(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enabled {
		return nil, AlreadyEnabledError()
	}

	secret, err := GenerateSecret(s.secretLength)
	if err != nil {
		return nil, fmt.Errorf("mfa_service_initialize_failed: %w", err)
	}
	if err := s.pending.Stage(ctx, userID, secret, constants.TotpPendingTTL); err != nil {
		return nil, fmt.Errorf("mfa_service_stage_failed: %w", err)
	}

	s.logger.Info("mfa_initialized", "user_id", userID)
	return &Enrollment{
		Secret:          secret,
		ProvisioningURL: ProvisioningURL(s.issuer, accountName, secret),
	}, nil
}

/*
Enable confirms a staged secret with a first valid code and activates the
second factor.

The confirming code is burned through the replay guard, so it cannot be
replayed into the login that usually follows enrollment.

Returns:
  - string: The recovery code, shown to the user exactly once. Only its
    hash is stored.
  - error: AlreadyEnabledError, NotInitializedError when nothing is staged,
    or InvalidCodeError for a wrong or replayed code.
*/
func (s *Service) Enable(ctx context.Context, userID, code string) (string, error) {
	enabled, err := s.Enabled(ctx, userID)
	if err != nil {
		return "", err
	}
	if enabled {
		return "", AlreadyEnabledError()
	}

	secret, err := s.pending.Get(ctx, userID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return "", NotInitializedError()
		}
		return "", fmt.Errorf("mfa_service_pending_get_failed: %w", err)
	}

	ok, err := s.checkCode(ctx, secret, code)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", InvalidCodeError()
	}

	recoveryCode, err := sec.GenerateRecoveryCode()
	if err != nil {
		return "", fmt.Errorf("mfa_service_recovery_generate_failed: %w", err)
	}
	if err := s.totps.Create(ctx, &Totp{
		UserID:           userID,
		Secret:           secret,
		RecoveryCodeHash: sec.HashToken(recoveryCode),
		CreatedAt:        time.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("mfa_service_enable_failed: %w", err)
	}
	if err := s.pending.Clear(ctx, userID); err != nil {
		s.logger.Warn("mfa_pending_clear_failed", "user_id", userID, "error", err)
	}

	s.logger.Info("mfa_enabled", "user_id", userID)
	return recoveryCode, nil
}

// Disable removes the user's second factor.
func (s *Service) Disable(ctx context.Context, userID string) error {
	if err := s.totps.Delete(ctx, userID); err != nil {
		if dberr.IsNotFound(err) {
			return NotEnabledError()
		}
		return fmt.Errorf("mfa_service_disable_failed: %w", err)
	}
	s.logger.Info("mfa_disabled", "user_id", userID)
	return nil
}

/*
Authenticate evaluates a login-time challenge.

Outcomes:
  - MfaDisabled when the user has no active second factor.
  - MfaOk for a fresh, valid TOTP code.
  - MfaReset for a correct recovery code. The second factor is removed as a
    side effect; the recovery code is single-use by construction. A supplied
    recovery code is evaluated before any TOTP code.
  - MfaFailed for everything else, including replayed codes and an empty
    challenge.
*/
func (s *Service) Authenticate(ctx context.Context, userID string, challenge auth.MfaChallenge) (auth.MfaResult, error) {
	totp, err := s.totps.Get(ctx, userID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return auth.MfaDisabled, nil
		}
		return auth.MfaFailed, fmt.Errorf("mfa_service_authenticate_get_failed: %w", err)
	}

	switch {
	case challenge.RecoveryCode != "":
		if !sec.ConstantTimeEquals(sec.HashToken(challenge.RecoveryCode), totp.RecoveryCodeHash) {
			return auth.MfaFailed, nil
		}
		// Break-glass: the factor dies with its recovery code.
		if err := s.totps.Delete(ctx, userID); err != nil && !dberr.IsNotFound(err) {
			return auth.MfaFailed, fmt.Errorf("mfa_service_reset_failed: %w", err)
		}
		return auth.MfaReset, nil

	case challenge.TotpCode != "":
		ok, err := s.checkCode(ctx, totp.Secret, challenge.TotpCode)
		if err != nil {
			return auth.MfaFailed, err
		}
		if !ok {
			return auth.MfaFailed, nil
		}
		return auth.MfaOk, nil

	default:
		return auth.MfaFailed, nil
	}
}

// checkCode validates a TOTP code and burns it. Validation happens before
// the burn so wrong guesses do not poison codes the user has yet to submit.
func (s *Service) checkCode(ctx context.Context, secret, code string) (bool, error) {
	if !ValidateCode(code, secret, time.Now()) {
		return false, nil
	}
	fresh, err := s.replays.MarkUsed(ctx, secret, code, constants.TotpReplayTTL)
	if err != nil {
		return false, fmt.Errorf("mfa_service_replay_check_failed: %w", err)
	}
	return fresh, nil
}
