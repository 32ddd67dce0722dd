// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/treenza/storefront/internal/models"
	"codeberg.org/treenza/storefront/internal/repository"
	"github.com/google/uuid"
)

// CheckResult is the outcome of a successful code check.
type CheckResult struct {
	Purpose models.Purpose
	// ResetToken authorizes one password change. Set for password-reset codes only.
	ResetToken string
}

// IssueCode generates a code for email, stores it and mails it.
// A previously issued code for the same email is replaced.
func (s *Service) IssueCode(ctx context.Context, email string, purpose models.Purpose) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if _, ok := models.ParsePurpose(string(purpose)); !ok {
		return ErrInvalidInput
	}

	sctx, cancel := s.storeContext(ctx)
	user, err := s.store.GetUserByEmail(sctx, email)
	cancel()
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return unavailable("get user", err)
	}
	exists := err == nil

	switch purpose {
	case models.PurposeRegistration:
		// An unverified identity may still verify its email, so only a
		// verified one is rejected.
		if exists && user.Verified {
			return ErrAlreadyExists
		}
	case models.PurposePasswordReset:
		if !exists {
			return ErrNotFound
		}
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	record := &models.VerificationCode{
		Email:     email,
		IssueID:   uuid.NewString(),
		CodeHash:  HashToken(code),
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.codeTTL),
	}

	sctx, cancel = s.storeContext(ctx)
	err = s.store.UpsertVerificationCode(sctx, record)
	cancel()
	if err != nil {
		return unavailable("store code", err)
	}

	mctx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()
	if err := s.mailer.SendVerificationCode(mctx, email, code, purpose); err != nil {
		slog.Error("otp_delivery_failed", "email", email, "purpose", purpose, "error", err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	slog.Info("otp_issued", "email", email, "purpose", purpose, "expires_at", record.ExpiresAt)
	return nil
}

// CheckCode validates a submitted code and applies the effect of its purpose.
func (s *Service) CheckCode(ctx context.Context, email, code string, purpose models.Purpose) (*CheckResult, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, ErrInvalidInput
	}
	if _, ok := models.ParsePurpose(string(purpose)); !ok {
		return nil, ErrInvalidInput
	}

	sctx, cancel := s.storeContext(ctx)
	pending, err := s.store.GetVerificationCode(sctx, email)
	cancel()
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoCodeFound
	}
	if err != nil {
		return nil, unavailable("get code", err)
	}

	now := s.now().UTC()
	if pending.Expired(now) {
		sctx, cancel := s.storeContext(ctx)
		_, err := s.store.DeleteVerificationCode(sctx, email, pending.IssueID)
		cancel()
		if err != nil {
			slog.Warn("otp_clear_failed", "email", email, "error", err)
		}
		slog.Info("otp_rejected", "email", email, "reason", "expired")
		return nil, ErrExpired
	}

	if pending.Purpose != purpose {
		slog.Info("otp_rejected", "email", email, "reason", "purpose_mismatch")
		return nil, ErrPurposeMismatch
	}

	if !hashesEqual(HashToken(code), pending.CodeHash) {
		return nil, s.recordMismatch(ctx, email, pending.IssueID)
	}

	result := &CheckResult{Purpose: purpose}

	sctx, cancel = s.storeContext(ctx)
	defer cancel()

	var consumed bool
	switch purpose {
	case models.PurposeRegistration:
		consumed, err = s.store.ConfirmRegistrationCode(sctx, email, pending.IssueID, now, now.Add(s.preverifiedTTL))
	case models.PurposePasswordReset:
		token, genErr := GenerateToken()
		if genErr != nil {
			return nil, genErr
		}
		grant := &models.PasswordResetGrant{
			Email:     email,
			TokenHash: HashToken(token),
			ExpiresAt: now.Add(s.grantTTL),
			CreatedAt: now,
		}
		consumed, err = s.store.ConfirmPasswordResetCode(sctx, pending.IssueID, grant)
		result.ResetToken = token
	}
	if err != nil {
		return nil, unavailable("confirm code", err)
	}
	if !consumed {
		// Another check consumed or replaced the code after it was read.
		return nil, ErrNoCodeFound
	}

	slog.Info("otp_verified", "email", email, "purpose", purpose)
	return result, nil
}

// recordMismatch counts a wrong guess. The code is cleared after maxAttempts
// wrong guesses, so the caller has to request a new one.
func (s *Service) recordMismatch(ctx context.Context, email, issueID string) error {
	sctx, cancel := s.storeContext(ctx)
	cleared, err := s.store.RecordCodeMismatch(sctx, email, issueID, s.maxAttempts)
	cancel()
	if err != nil {
		return unavailable("record mismatch", err)
	}

	if cleared {
		slog.Warn("otp_attempts_exhausted", "email", email, "max_attempts", s.maxAttempts)
	} else {
		slog.Info("otp_rejected", "email", email, "reason", "mismatch")
	}
	return ErrMismatch
}
