// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// PasswordResetGrant authorizes exactly one password change for Email.
type PasswordResetGrant struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64      `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	TokenHash string     `db:"token_hash" json:"-"` // SHA256 hash
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Usable reports whether the grant is unused and unexpired at now.
func (g *PasswordResetGrant) Usable(now time.Time) bool {
	return g.UsedAt == nil && !now.After(g.ExpiresAt)
}
