// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/treenza/storefront/internal/i18n"
	"github.com/labstack/echo/v4"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ok writes a success envelope with a localized message and extra fields.
func ok(c echo.Context, status int, messageID string, fields map[string]any) error {
	body := map[string]any{"success": true}
	if messageID != "" {
		body["message"] = i18n.T(c.Request().Context(), messageID)
	}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(status, body)
}

// fail writes a failure envelope with a localized message.
func fail(c echo.Context, status int, messageID string) error {
	return c.JSON(status, Response{
		Success: false,
		Message: i18n.T(c.Request().Context(), messageID),
	})
}
