// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"unicode/utf8"
)

// PasswordValidator validates passwords against length limits
type PasswordValidator struct {
	MinLength int // in characters
	MaxBytes  int // bcrypt ignores input beyond 72 bytes
}

// DefaultPasswordValidator returns a validator with the service defaults
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength: 8,
		MaxBytes:  72,
	}
}

// Validation error codes
const (
	CodeMinLength = "min_length"
	CodeMaxBytes  = "max_bytes"
)

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult holds all validation errors
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Has reports whether the result contains an error with the given code.
func (r ValidationResult) Has(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Validate checks a password against the configured limits
func (v *PasswordValidator) Validate(password string) ValidationResult {
	var errors []ValidationError

	if utf8.RuneCountInString(password) < v.MinLength {
		errors = append(errors, ValidationError{
			Code:    CodeMinLength,
			Message: fmt.Sprintf("Password must be at least %d characters long.", v.MinLength),
		})
	}

	if v.MaxBytes > 0 && len(password) > v.MaxBytes {
		errors = append(errors, ValidationError{
			Code:    CodeMaxBytes,
			Message: fmt.Sprintf("Password must not be longer than %d bytes.", v.MaxBytes),
		})
	}

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// Err maps a validation result to a service error.
func (r ValidationResult) Err() error {
	switch {
	case r.Valid:
		return nil
	case r.Has(CodeMinLength):
		return ErrWeakPassword
	default:
		return ErrInvalidInput
	}
}
