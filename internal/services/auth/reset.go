// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/treenza/storefront/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ResetPassword replaces the password of email. resetToken must come from a
// successful password-reset code check for the same email and is usable once.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword, resetToken string) error {
	email = strings.TrimSpace(email)

	if err := s.passwordValidator.Validate(newPassword).Err(); err != nil {
		return err
	}

	sctx, cancel := s.storeContext(ctx)
	user, err := s.store.GetUserByEmail(sctx, email)
	cancel()
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("get user", err)
	}

	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return ErrResetNotAuthorized
	}

	sctx, cancel = s.storeContext(ctx)
	grant, err := s.store.GetPasswordResetGrant(sctx, HashToken(resetToken))
	cancel()
	if errors.Is(err, repository.ErrNotFound) {
		slog.Warn("password_reset_rejected", "email", email, "reason", "unknown_token")
		return ErrResetNotAuthorized
	}
	if err != nil {
		return unavailable("get reset grant", err)
	}

	now := s.now().UTC()
	if grant.Email != email || !grant.Usable(now) {
		slog.Warn("password_reset_rejected", "email", email, "reason", "grant_not_usable")
		return ErrResetNotAuthorized
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	sctx, cancel = s.storeContext(ctx)
	defer cancel()
	applied, err := s.store.ApplyPasswordReset(sctx, grant.ID, user.ID, string(passwordHash), now)
	if err != nil {
		return unavailable("apply password reset", err)
	}
	if !applied {
		return ErrResetNotAuthorized
	}

	slog.Info("password_reset_success", "user_id", user.ID, "email", email)
	return nil
}
