// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"codeberg.org/treenza/storefront/internal/handlers"
	"codeberg.org/treenza/storefront/internal/middleware"
	"codeberg.org/treenza/storefront/internal/services/media"
	"codeberg.org/treenza/storefront/internal/services/token"
	"codeberg.org/treenza/storefront/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct{}

func (fakeObjects) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.example.com/" + key, nil
}

func (fakeObjects) Delete(context.Context, string) error { return nil }

func (fakeObjects) URL(key string) string { return "https://cdn.example.com/" + key }

func newVideoAPI(t *testing.T) (*api, string) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "ada@example.com")
	signer := token.NewSigner(testSecret, time.Hour)
	tok, _, err := signer.Sign(user.ID)
	require.NoError(t, err)

	h := handlers.NewVideo(media.NewService(repo, fakeObjects{}))
	e := echo.New()
	g := e.Group("/api/videos")
	g.GET("", h.List)
	g.POST("", h.Create, middleware.RequireToken(signer))
	g.DELETE("/:id", h.Delete, middleware.RequireToken(signer))

	return &api{e: e}, tok
}

func TestVideoLifecycle(t *testing.T) {
	a, tok := newVideoAPI(t)
	authz := map[string]string{"Authorization": "Bearer " + tok}

	status, body := a.do(t, http.MethodPost, "/api/videos", `{"filename":"demo.mp4"}`, authz)
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, body["upload_url"], "https://upload.example.com/videos/")
	id := body["video"].(map[string]any)["id"].(string)

	status, body = a.do(t, http.MethodGet, "/api/videos", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["videos"], 1)

	status, _ = a.do(t, http.MethodDelete, "/api/videos/"+id, "", authz)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodDelete, "/api/videos/"+id, "", authz)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVideoCreate_Errors(t *testing.T) {
	a, tok := newVideoAPI(t)
	authz := map[string]string{"Authorization": "Bearer " + tok}

	status, _ := a.do(t, http.MethodPost, "/api/videos", `{"filename":"demo.mp4"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodPost, "/api/videos", `{"filename":""}`, authz)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/videos", `{"filename":"notes.txt"}`, authz)
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
}
