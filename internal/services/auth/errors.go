// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import "errors"

// Error kinds returned by the service. Collaborator failures are wrapped
// with %w so callers match the kind with errors.Is.
var (
	ErrNotFound           = errors.New("identity not found")
	ErrAlreadyExists      = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoCodeFound        = errors.New("no verification code found")
	ErrExpired            = errors.New("verification code expired")
	ErrPurposeMismatch    = errors.New("verification code purpose mismatch")
	ErrMismatch           = errors.New("verification code mismatch")
	ErrDeliveryFailed     = errors.New("verification code delivery failed")
	ErrUnavailable        = errors.New("service unavailable")
	ErrResetNotAuthorized = errors.New("password reset not authorized")
)
