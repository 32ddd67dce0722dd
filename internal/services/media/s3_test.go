// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package media_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"codeberg.org/treenza/storefront/internal/config"
	"codeberg.org/treenza/storefront/internal/services/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		Bucket:    "videos",
		AccessKey: "minio",
		SecretKey: "minio-secret",
	}
}

func TestS3Store_PresignPut(t *testing.T) {
	store, err := media.NewS3Store(context.Background(), testStorageConfig())
	require.NoError(t, err)

	raw, err := store.PresignPut(context.Background(), "videos/a.mp4", "video/mp4", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/videos/videos/a.mp4", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestS3Store_URL(t *testing.T) {
	cfg := testStorageConfig()
	store, err := media.NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/videos/a.mp4", store.URL("a.mp4"))

	cfg.PublicURL = "https://cdn.example.com/"
	store, err = media.NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.mp4", store.URL("a.mp4"))

	cfg.PublicURL = ""
	cfg.Endpoint = ""
	store, err = media.NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://videos.s3.us-east-1.amazonaws.com/a.mp4", store.URL("a.mp4"))
}
