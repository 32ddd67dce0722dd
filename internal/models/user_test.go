// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"codeberg.org/treenza/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	user := &models.User{ID: 1, Email: "a@x.com", DisplayName: "A", PasswordHash: "$2a$10$secret"}

	data, err := json.Marshal(user)

	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
	assert.Contains(t, string(data), `"email":"a@x.com"`)
}

func TestParsePurpose(t *testing.T) {
	tests := []struct {
		input    string
		expected models.Purpose
		ok       bool
	}{
		{"registration", models.PurposeRegistration, true},
		{"password-reset", models.PurposePasswordReset, true},
		{"reset", "", false},
		{"", "", false},
		{"Registration", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, ok := models.ParsePurpose(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestVerificationCode_Expired(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	code := &models.VerificationCode{IssuedAt: issued, ExpiresAt: issued.Add(15 * time.Minute)}

	assert.False(t, code.Expired(issued))
	assert.False(t, code.Expired(issued.Add(15*time.Minute)))
	assert.True(t, code.Expired(issued.Add(15*time.Minute+time.Nanosecond)))
}

func TestVerificationCode_JSONOmitsHash(t *testing.T) {
	code := &models.VerificationCode{Email: "a@x.com", CodeHash: "deadbeef", IssueID: "issue"}

	data, err := json.Marshal(code)

	require.NoError(t, err)
	assert.NotContains(t, string(data), "deadbeef")
	assert.NotContains(t, string(data), "issue")
}

func TestPasswordResetGrant_Usable(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)

	tests := []struct {
		name     string
		grant    models.PasswordResetGrant
		expected bool
	}{
		{"fresh", models.PasswordResetGrant{ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", models.PasswordResetGrant{ExpiresAt: now.Add(-time.Second)}, false},
		{"used", models.PasswordResetGrant{ExpiresAt: now.Add(time.Minute), UsedAt: &used}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.grant.Usable(now))
		})
	}
}
