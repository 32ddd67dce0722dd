// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Purpose is the intended use of a verification code.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password-reset"
)

// ParsePurpose returns the purpose for s and whether it is known.
func ParsePurpose(s string) (Purpose, bool) {
	switch p := Purpose(s); p {
	case PurposeRegistration, PurposePasswordReset:
		return p, true
	}
	return "", false
}

// VerificationCode is the single outstanding code for an email.
// IssueID changes on every issue and guards conditional clears.
type VerificationCode struct { //nolint:govet // fieldalignment: readability over optimization
	Email     string    `db:"email" json:"email"`
	IssueID   string    `db:"issue_id" json:"-"`
	CodeHash  string    `db:"code_hash" json:"-"` // SHA256 hash
	Purpose   Purpose   `db:"purpose" json:"purpose"`
	IssuedAt  time.Time `db:"issued_at" json:"issued_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Attempts  int       `db:"attempts" json:"-"` // wrong guesses against this issue
}

// Expired reports whether the code is no longer valid at now.
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
