// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/treenza/storefront/internal/auth"
	"codeberg.org/treenza/storefront/internal/i18n"
	"codeberg.org/treenza/storefront/internal/services/token"
	"github.com/labstack/echo/v4"
)

// LegacyTokenHeader is accepted alongside "Authorization: Bearer".
const LegacyTokenHeader = "token"

// TokenVerifier checks a credential token and returns its user ID.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// RequireToken rejects requests without a valid credential token and stores
// the user ID in the request context.
func RequireToken(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" {
				return unauthorized(c)
			}

			userID, err := verifier.Verify(raw)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, token.ErrExpiredToken) {
					reason = "expired"
				}
				slog.Debug("token_rejected", "reason", reason, "error", err)
				return unauthorized(c)
			}

			ctx := auth.WithUserID(c.Request().Context(), userID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	if scheme, value, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(r.Header.Get(LegacyTokenHeader))
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"message": i18n.T(c.Request().Context(), "err_unauthorized"),
	})
}
