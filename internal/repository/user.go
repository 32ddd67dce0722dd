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

// CreateUser inserts a new user. If the email was verified before registration
// and the marker has not expired, the user starts out verified. The marker is
// consumed either way.
func (r *Repository) CreateUser(ctx context.Context, email, displayName, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var marker struct {
			VerifiedAt time.Time  `db:"verified_at"`
			ExpiresAt  *time.Time `db:"expires_at"`
		}
		err := tx.GetContext(ctx, &marker, `SELECT verified_at, expires_at FROM verified_emails WHERE email = ?`, email)
		switch {
		case err == nil:
			if marker.ExpiresAt == nil || now.Before(*marker.ExpiresAt) {
				user.Verified = true
				user.VerifiedAt = &marker.VerifiedAt
			}
		case !errors.Is(wrapError(err), ErrNotFound):
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, display_name, password_hash, verified, verified_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.Email, user.DisplayName, user.PasswordHash, user.Verified, user.VerifiedAt, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return wrapError(err)
		}
		if user.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM verified_emails WHERE email = ?`, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email address
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}
