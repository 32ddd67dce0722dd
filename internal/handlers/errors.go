// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/treenza/storefront/internal/services/auth"
	"codeberg.org/treenza/storefront/internal/services/media"
	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	err       error
	status    int
	messageID string
}

var errorMappings = []errorMapping{
	{auth.ErrInvalidInput, http.StatusBadRequest, "err_invalid_input"},
	{auth.ErrWeakPassword, http.StatusBadRequest, "err_weak_password"},
	{auth.ErrNoCodeFound, http.StatusBadRequest, "err_no_code"},
	{auth.ErrPurposeMismatch, http.StatusBadRequest, "err_purpose_mismatch"},
	{auth.ErrMismatch, http.StatusBadRequest, "err_mismatch"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "err_invalid_credentials"},
	{auth.ErrResetNotAuthorized, http.StatusForbidden, "err_reset_not_authorized"},
	{auth.ErrNotFound, http.StatusNotFound, "err_not_found"},
	{auth.ErrAlreadyExists, http.StatusConflict, "err_already_exists"},
	{auth.ErrExpired, http.StatusGone, "err_expired"},
	{auth.ErrDeliveryFailed, http.StatusBadGateway, "err_delivery_failed"},
	{auth.ErrUnavailable, http.StatusServiceUnavailable, "err_unavailable"},
	{media.ErrNotFound, http.StatusNotFound, "err_video_not_found"},
	{media.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, "err_invalid_input"},
}

// statusFor maps a service error to an HTTP status and message ID.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.messageID
		}
	}
	return http.StatusInternalServerError, "err_internal"
}

// respondError logs err and writes the matching failure envelope.
func respondError(c echo.Context, err error) error {
	status, messageID := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "path", c.Path(), "status", status, "error", err)
	}
	return fail(c, status, messageID)
}
