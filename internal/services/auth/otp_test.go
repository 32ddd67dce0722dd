// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/treenza/storefront/internal/config"
	"codeberg.org/treenza/storefront/internal/models"
	"codeberg.org/treenza/storefront/internal/services/auth"
	"codeberg.org/treenza/storefront/internal/services/token"
	"codeberg.org/treenza/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateCode(t *testing.T) {
	for range 1000 {
		code, err := auth.GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := auth.GenerateToken()
	require.NoError(t, err)
	b, err := auth.GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, auth.HashToken(a), auth.HashToken(a))
	assert.NotEqual(t, a, auth.HashToken(a))
}

func TestIssueCode_StoresHashAndMails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))

	mail := f.mailer.last(t)
	assert.Equal(t, "a@x.com", mail.To)
	assert.Equal(t, models.PurposeRegistration, mail.Purpose)

	stored, err := f.repo.GetVerificationCode(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, auth.HashToken(mail.Code), stored.CodeHash)
	assert.NotEqual(t, mail.Code, stored.CodeHash)
	assert.Equal(t, 15*time.Minute, stored.ExpiresAt.Sub(stored.IssuedAt))
}

func TestIssueCode_Registration_VerifiedIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "password1")
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
	_, err := f.svc.CheckCode(ctx, "a@x.com", f.mailer.last(t).Code, models.PurposeRegistration)
	require.NoError(t, err)

	err = f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration)

	assert.ErrorIs(t, err, auth.ErrAlreadyExists)
}

func TestIssueCode_PasswordReset_UnknownIdentity(t *testing.T) {
	f := newFixture(t)

	err := f.svc.IssueCode(context.Background(), "nobody@x.com", models.PurposePasswordReset)

	assert.ErrorIs(t, err, auth.ErrNotFound)
	assert.Empty(t, f.mailer.sent)
}

func TestIssueCode_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.IssueCode(ctx, "not-an-email", models.PurposeRegistration), auth.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.IssueCode(ctx, "a@x.com", models.Purpose("login")), auth.ErrInvalidInput)
}

func TestIssueCode_DeliveryFailureKeepsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mailer.err = errors.New("smtp down")

	err := f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration)

	assert.ErrorIs(t, err, auth.ErrDeliveryFailed)
	_, err = f.repo.GetVerificationCode(ctx, "a@x.com")
	assert.NoError(t, err)
}

func TestCheckCode_Registration_ExistingIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.register(t, "b@x.com", "password1")
	require.NoError(t, f.svc.IssueCode(ctx, "b@x.com", models.PurposeRegistration))

	result, err := f.svc.CheckCode(ctx, "b@x.com", f.mailer.last(t).Code, models.PurposeRegistration)

	require.NoError(t, err)
	assert.Equal(t, models.PurposeRegistration, result.Purpose)
	assert.Empty(t, result.ResetToken)

	user, err := f.svc.User(ctx, session.User.ID)
	require.NoError(t, err)
	assert.True(t, user.Verified)
}

func TestCheckCode_Registration_BeforeRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
	_, err := f.svc.CheckCode(ctx, "a@x.com", f.mailer.last(t).Code, models.PurposeRegistration)
	require.NoError(t, err)

	session := f.register(t, "a@x.com", "password1")

	assert.True(t, session.User.Verified)
}

func TestCheckCode_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "b@x.com", "password1")
	require.NoError(t, f.svc.IssueCode(ctx, "b@x.com", models.PurposeRegistration))
	code := f.mailer.last(t).Code

	_, err := f.svc.CheckCode(ctx, "b@x.com", code, models.PurposeRegistration)
	require.NoError(t, err)

	_, err = f.svc.CheckCode(ctx, "b@x.com", code, models.PurposeRegistration)
	assert.ErrorIs(t, err, auth.ErrNoCodeFound)
}

func TestCheckCode_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
	code := f.mailer.last(t).Code

	f.clock.Advance(16 * time.Minute)
	_, err := f.svc.CheckCode(ctx, "a@x.com", code, models.PurposeRegistration)
	assert.ErrorIs(t, err, auth.ErrExpired)

	_, err = f.svc.CheckCode(ctx, "a@x.com", code, models.PurposeRegistration)
	assert.ErrorIs(t, err, auth.ErrNoCodeFound)
}

func TestCheckCode_ValidAtExactExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))

	f.clock.Advance(15 * time.Minute)
	_, err := f.svc.CheckCode(ctx, "a@x.com", f.mailer.last(t).Code, models.PurposeRegistration)

	assert.NoError(t, err)
}

func TestCheckCode_ReissueInvalidatesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
	first := f.mailer.last(t).Code

	var second string
	for {
		require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
		second = f.mailer.last(t).Code
		if second != first {
			break
		}
	}

	_, err := f.svc.CheckCode(ctx, "a@x.com", first, models.PurposeRegistration)
	assert.ErrorIs(t, err, auth.ErrMismatch)

	_, err = f.svc.CheckCode(ctx, "a@x.com", second, models.PurposeRegistration)
	assert.NoError(t, err)
}

func TestCheckCode_PurposeMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "c@x.com", "password1")
	require.NoError(t, f.svc.IssueCode(ctx, "c@x.com", models.PurposeRegistration))
	code := f.mailer.last(t).Code

	_, err := f.svc.CheckCode(ctx, "c@x.com", code, models.PurposePasswordReset)
	assert.ErrorIs(t, err, auth.ErrPurposeMismatch)

	// The code survives a purpose mismatch.
	_, err = f.svc.CheckCode(ctx, "c@x.com", code, models.PurposeRegistration)
	assert.NoError(t, err)
}

func TestCheckCode_Mismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
	code := f.mailer.last(t).Code
	wrong := "000000"

	_, err := f.svc.CheckCode(ctx, "a@x.com", wrong, models.PurposeRegistration)
	assert.ErrorIs(t, err, auth.ErrMismatch)

	_, err = f.svc.CheckCode(ctx, "a@x.com", code, models.PurposeRegistration)
	assert.NoError(t, err)
}

func TestCheckCode_NoCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckCode(context.Background(), "a@x.com", "123456", models.PurposeRegistration)

	assert.ErrorIs(t, err, auth.ErrNoCodeFound)
}

func TestCheckCode_EmptyCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckCode(context.Background(), "a@x.com", " ", models.PurposeRegistration)

	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestCheckCode_ConcurrentSingleSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "password1")
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposePasswordReset))
	code := f.mailer.last(t).Code

	var wins, consumed atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CheckCode(ctx, "a@x.com", code, models.PurposePasswordReset)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, auth.ErrNoCodeFound):
				consumed.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(9), consumed.Load())
}

func TestIssueCode_Registration_UnverifiedIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "password1")

	err := f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration)

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", f.mailer.last(t).To)
}

func TestCheckCode_ClearedAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "c@x.com", "password1")
	require.NoError(t, f.svc.IssueCode(ctx, "c@x.com", models.PurposePasswordReset))
	code := f.mailer.last(t).Code

	for range config.DefaultOTPMaxAttempts {
		_, err := f.svc.CheckCode(ctx, "c@x.com", "000000", models.PurposePasswordReset)
		require.ErrorIs(t, err, auth.ErrMismatch)
	}

	result, err := f.svc.CheckCode(ctx, "c@x.com", code, models.PurposePasswordReset)

	assert.ErrorIs(t, err, auth.ErrNoCodeFound)
	assert.Nil(t, result)
}

func TestCheckCode_ReissueResetsAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
	for range config.DefaultOTPMaxAttempts - 1 {
		_, err := f.svc.CheckCode(ctx, "a@x.com", "000000", models.PurposeRegistration)
		require.ErrorIs(t, err, auth.ErrMismatch)
	}

	require.NoError(t, f.svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))
	code := f.mailer.last(t).Code
	for range config.DefaultOTPMaxAttempts - 1 {
		_, err := f.svc.CheckCode(ctx, "a@x.com", "000000", models.PurposeRegistration)
		require.ErrorIs(t, err, auth.ErrMismatch)
	}

	_, err := f.svc.CheckCode(ctx, "a@x.com", code, models.PurposeRegistration)
	assert.NoError(t, err)
}

func TestCheckCode_ConfiguredMaxAttempts(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	cfg := testConfig()
	cfg.Auth.OTPMaxAttempts = 1
	mailer := &fakeMailer{}
	svc := auth.NewService(repo, token.NewSigner(testSecret, time.Hour), mailer, cfg, auth.WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()
	require.NoError(t, svc.IssueCode(ctx, "a@x.com", models.PurposeRegistration))

	_, err := svc.CheckCode(ctx, "a@x.com", "000000", models.PurposeRegistration)
	require.ErrorIs(t, err, auth.ErrMismatch)

	_, err = svc.CheckCode(ctx, "a@x.com", mailer.last(t).Code, models.PurposeRegistration)
	assert.ErrorIs(t, err, auth.ErrNoCodeFound)
}
