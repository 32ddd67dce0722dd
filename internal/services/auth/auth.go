// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/treenza/storefront/internal/config"
	"codeberg.org/treenza/storefront/internal/models"
	"codeberg.org/treenza/storefront/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence the service depends on.
type Store interface {
	CreateUser(ctx context.Context, email, displayName, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	UpsertVerificationCode(ctx context.Context, code *models.VerificationCode) error
	GetVerificationCode(ctx context.Context, email string) (*models.VerificationCode, error)
	DeleteVerificationCode(ctx context.Context, email, issueID string) (bool, error)
	RecordCodeMismatch(ctx context.Context, email, issueID string, maxAttempts int) (bool, error)
	ConfirmRegistrationCode(ctx context.Context, email, issueID string, now, preverifiedUntil time.Time) (bool, error)
	ConfirmPasswordResetCode(ctx context.Context, issueID string, grant *models.PasswordResetGrant) (bool, error)

	GetPasswordResetGrant(ctx context.Context, tokenHash string) (*models.PasswordResetGrant, error)
	ApplyPasswordReset(ctx context.Context, grantID, userID int64, passwordHash string, now time.Time) (bool, error)
}

// Mailer delivers verification codes.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string, purpose models.Purpose) error
}

// Signer issues credential tokens.
type Signer interface {
	Sign(userID int64) (string, time.Time, error)
}

type Service struct {
	store             Store
	signer            Signer
	mailer            Mailer
	passwordValidator *PasswordValidator
	now               func() time.Time
	codeTTL           time.Duration
	grantTTL          time.Duration
	preverifiedTTL    time.Duration
	maxAttempts       int
	storeTimeout      time.Duration
	mailTimeout       time.Duration
	bcryptCost        int
	dummyHash         []byte
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost sets the bcrypt work factor.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(store Store, signer Signer, mailer Mailer, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store:             store,
		signer:            signer,
		mailer:            mailer,
		passwordValidator: DefaultPasswordValidator(),
		now:               time.Now,
		codeTTL:           cfg.Auth.OTPTTL,
		grantTTL:          cfg.Auth.ResetGrantTTL,
		preverifiedTTL:    cfg.Auth.PreverifiedTTL,
		maxAttempts:       cfg.Auth.OTPMaxAttempts,
		storeTimeout:      cfg.Database.Timeout,
		mailTimeout:       cfg.SMTP.Timeout,
		bcryptCost:        bcrypt.DefaultCost,
	}
	if s.preverifiedTTL <= 0 {
		s.preverifiedTTL = config.DefaultPreverifiedTTL
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = config.DefaultOTPMaxAttempts
	}
	for _, opt := range opts {
		opt(s)
	}
	// Unknown-email logins compare against this so they cost the same as real ones.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), s.bcryptCost)
	return s
}

// RegisterParams holds the parameters for user registration
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Session is a signed credential for a user.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a new user account and signs a token for it
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}

	if err := s.passwordValidator.Validate(params.Password).Err(); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeContext(ctx)
	_, err = s.store.GetUserByEmail(sctx, email)
	cancel()
	if err == nil {
		return nil, ErrAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, unavailable("check existing user", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	sctx, cancel = s.storeContext(ctx)
	user, err := s.store.CreateUser(sctx, email, strings.TrimSpace(params.Name), string(passwordHash))
	cancel()
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, unavailable("create user", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", email, "verified", user.Verified)

	return s.session(user)
}

// Login authenticates a user and signs a token on success
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	sctx, cancel := s.storeContext(ctx)
	user, err := s.store.GetUserByEmail(sctx, email)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrNotFound
		}
		return nil, unavailable("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return s.session(user)
}

// User returns the identity with the given ID.
func (s *Service) User(ctx context.Context, id int64) (*models.User, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.store.GetUserByID(sctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}
	return user, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, expiresAt, err := s.signer.Sign(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidInput
	}
	return email, nil
}
