// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"time"

	"codeberg.org/treenza/storefront/internal/models"
	"github.com/vinovest/sqlx"
)

// UpsertVerificationCode stores the code for its email, replacing any previous one.
func (r *Repository) UpsertVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_codes (email, issue_id, code_hash, purpose, issued_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		   issue_id = excluded.issue_id,
		   code_hash = excluded.code_hash,
		   purpose = excluded.purpose,
		   issued_at = excluded.issued_at,
		   expires_at = excluded.expires_at,
		   attempts = 0`,
		code.Email, code.IssueID, code.CodeHash, code.Purpose, code.IssuedAt.UTC(), code.ExpiresAt.UTC())
	return err
}

// GetVerificationCode retrieves the outstanding code for an email.
func (r *Repository) GetVerificationCode(ctx context.Context, email string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	if err := r.db.GetContext(ctx, &code, `SELECT * FROM verification_codes WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &code, nil
}

// DeleteVerificationCode removes the code only if it is still the issue that was read.
// It reports whether a row was removed.
func (r *Repository) DeleteVerificationCode(ctx context.Context, email, issueID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = ? AND issue_id = ?`, email, issueID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RecordCodeMismatch counts a wrong guess against the issue and removes the
// code once maxAttempts is reached. It reports whether the code was removed.
// A replaced or consumed issue is left alone.
func (r *Repository) RecordCodeMismatch(ctx context.Context, email, issueID string, maxAttempts int) (bool, error) {
	var cleared bool
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE verification_codes SET attempts = attempts + 1 WHERE email = ? AND issue_id = ?`,
			email, issueID)
		if err != nil {
			return err
		}
		if err := requireOneRow(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`DELETE FROM verification_codes WHERE email = ? AND issue_id = ? AND attempts >= ?`,
			email, issueID, maxAttempts)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		cleared = n > 0
		return err
	})
	if errors.Is(err, errConflict) {
		return false, nil
	}
	return cleared, err
}

// ConfirmRegistrationCode consumes the code and marks the email verified.
// If no user exists yet the email is remembered until preverifiedUntil for the
// coming registration. Expired markers of other emails are pruned on the way.
// It returns false if the code was consumed or replaced concurrently.
func (r *Repository) ConfirmRegistrationCode(ctx context.Context, email, issueID string, now, preverifiedUntil time.Time) (bool, error) {
	now = now.UTC()
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM verification_codes WHERE email = ? AND issue_id = ? AND purpose = ?`,
			email, issueID, models.PurposeRegistration)
		if err != nil {
			return err
		}
		if err := requireOneRow(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE users SET verified = 1, verified_at = COALESCE(verified_at, ?), updated_at = ? WHERE email = ?`,
			now, now, email)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n > 0 {
			return err
		}

		if _, err = tx.ExecContext(ctx,
			`DELETE FROM verified_emails WHERE expires_at IS NOT NULL AND expires_at <= ?`, now); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO verified_emails (email, verified_at, expires_at) VALUES (?, ?, ?)
			 ON CONFLICT (email) DO UPDATE SET verified_at = excluded.verified_at, expires_at = excluded.expires_at`,
			email, now, preverifiedUntil.UTC())
		return err
	})
	if errors.Is(err, errConflict) {
		return false, nil
	}
	return err == nil, err
}

// ConfirmPasswordResetCode consumes the code and stores the reset grant in one step.
// It returns false if the code was consumed or replaced concurrently.
func (r *Repository) ConfirmPasswordResetCode(ctx context.Context, issueID string, grant *models.PasswordResetGrant) (bool, error) {
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM verification_codes WHERE email = ? AND issue_id = ? AND purpose = ?`,
			grant.Email, issueID, models.PurposePasswordReset)
		if err != nil {
			return err
		}
		if err := requireOneRow(res); err != nil {
			return err
		}
		return insertPasswordResetGrant(ctx, tx, grant)
	})
	if errors.Is(err, errConflict) {
		return false, nil
	}
	return err == nil, err
}
