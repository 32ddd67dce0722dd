// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	authctx "codeberg.org/treenza/storefront/internal/auth"
	"codeberg.org/treenza/storefront/internal/models"
	"codeberg.org/treenza/storefront/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// UserHandlers contains the account and verification code handlers.
type UserHandlers struct {
	auth *auth.Service
}

// NewUser creates a new UserHandlers instance.
func NewUser(svc *auth.Service) *UserHandlers {
	return &UserHandlers{auth: svc}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest is the request body for code issuing.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResendRequest is the request body for resending a code.
type ResendRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// VerifyRequest is the request body for checking a code. Older clients send "otp".
type VerifyRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose"`
}

// ForgotPasswordRequest is the request body for the password reset.
type ForgotPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
	ResetToken  string `json:"resetToken"`
}

// Register creates an account and returns a credential token.
func (h *UserHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	session, err := h.auth.Register(c.Request().Context(), auth.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, http.StatusCreated, "msg_registered", map[string]any{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	})
}

// Login checks credentials and returns a credential token.
func (h *UserHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, http.StatusOK, "msg_logged_in", map[string]any{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	})
}

// RegisterOTP sends a registration code.
func (h *UserHandlers) RegisterOTP(c echo.Context) error {
	return h.issue(c, models.PurposeRegistration)
}

// PasswordOTP sends a password reset code.
func (h *UserHandlers) PasswordOTP(c echo.Context) error {
	return h.issue(c, models.PurposePasswordReset)
}

// ResendOTP replaces the outstanding code with a fresh one.
func (h *UserHandlers) ResendOTP(c echo.Context) error {
	var req ResendRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	purpose, valid := parsePurpose(req.Purpose)
	if !valid {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	if err := h.auth.IssueCode(c.Request().Context(), req.Email, purpose); err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "msg_code_sent", nil)
}

func (h *UserHandlers) issue(c echo.Context, purpose models.Purpose) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	if err := h.auth.IssueCode(c.Request().Context(), req.Email, purpose); err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "msg_code_sent", nil)
}

// VerifyOTP checks a submitted code. Password reset checks return a reset token.
func (h *UserHandlers) VerifyOTP(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	code := req.Code
	if code == "" {
		code = req.OTP
	}

	purpose, valid := parsePurpose(req.Purpose)
	if !valid {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	result, err := h.auth.CheckCode(c.Request().Context(), req.Email, code, purpose)
	if err != nil {
		return respondError(c, err)
	}

	var fields map[string]any
	if result.ResetToken != "" {
		fields = map[string]any{"reset_token": result.ResetToken}
	}
	return ok(c, http.StatusOK, "msg_code_verified", fields)
}

// ForgotPassword sets a new password using the token from VerifyOTP.
func (h *UserHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.NewPassword, req.ResetToken); err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "msg_password_reset", nil)
}

// Me returns the authenticated user.
func (h *UserHandlers) Me(c echo.Context) error {
	userID, found := authctx.UserID(c.Request().Context())
	if !found {
		return fail(c, http.StatusUnauthorized, "err_unauthorized")
	}

	user, err := h.auth.User(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "", map[string]any{"user": user})
}

// parsePurpose defaults to registration for clients that omit the purpose.
func parsePurpose(s string) (models.Purpose, bool) {
	if s == "" {
		return models.PurposeRegistration, true
	}
	return models.ParsePurpose(s)
}
