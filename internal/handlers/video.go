// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	authctx "codeberg.org/treenza/storefront/internal/auth"
	"codeberg.org/treenza/storefront/internal/services/media"
	"github.com/labstack/echo/v4"
)

// VideoHandlers contains the video asset handlers.
type VideoHandlers struct {
	media *media.Service
}

// NewVideo creates a new VideoHandlers instance.
func NewVideo(svc *media.Service) *VideoHandlers {
	return &VideoHandlers{media: svc}
}

// UploadRequest is the request body for registering an upload.
type UploadRequest struct {
	Filename string `json:"filename"`
}

// Create registers a video and returns a presigned upload URL.
func (h *VideoHandlers) Create(c echo.Context) error {
	userID, found := authctx.UserID(c.Request().Context())
	if !found {
		return fail(c, http.StatusUnauthorized, "err_unauthorized")
	}

	var req UploadRequest
	if err := c.Bind(&req); err != nil || req.Filename == "" {
		return fail(c, http.StatusBadRequest, "err_invalid_input")
	}

	upload, err := h.media.CreateUpload(c.Request().Context(), userID, req.Filename)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, http.StatusCreated, "", map[string]any{
		"video":        upload.Video,
		"upload_url":   upload.UploadURL,
		"content_type": upload.ContentType,
		"expires_at":   upload.ExpiresAt,
	})
}

// List returns all videos, newest first.
func (h *VideoHandlers) List(c echo.Context) error {
	videos, err := h.media.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "", map[string]any{"videos": videos})
}

// Delete removes a video.
func (h *VideoHandlers) Delete(c echo.Context) error {
	if err := h.media.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "msg_video_deleted", nil)
}
