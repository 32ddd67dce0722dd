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

func insertPasswordResetGrant(ctx context.Context, tx *sqlx.Tx, grant *models.PasswordResetGrant) error {
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO password_reset_grants (email, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		grant.Email, grant.TokenHash, grant.ExpiresAt.UTC(), grant.CreatedAt.UTC())
	if err != nil {
		return wrapError(err)
	}
	grant.ID, err = res.LastInsertId()
	return err
}

// GetPasswordResetGrant retrieves a grant by token hash.
func (r *Repository) GetPasswordResetGrant(ctx context.Context, tokenHash string) (*models.PasswordResetGrant, error) {
	var grant models.PasswordResetGrant
	if err := r.db.GetContext(ctx, &grant, `SELECT * FROM password_reset_grants WHERE token_hash = ?`, tokenHash); err != nil {
		return nil, wrapError(err)
	}
	return &grant, nil
}

// ApplyPasswordReset marks the grant used and replaces the user's password hash.
// It returns false if the grant was already used.
func (r *Repository) ApplyPasswordReset(ctx context.Context, grantID, userID int64, passwordHash string, now time.Time) (bool, error) {
	now = now.UTC()
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE password_reset_grants SET used_at = ? WHERE id = ? AND used_at IS NULL`, now, grantID)
		if err != nil {
			return err
		}
		if err := requireOneRow(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, passwordHash, now, userID)
		if err != nil {
			return err
		}
		if requireOneRow(res) != nil {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, errConflict) {
		return false, nil
	}
	return err == nil, err
}
