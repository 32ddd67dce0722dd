// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/treenza/storefront/internal/models"
	"codeberg.org/treenza/storefront/internal/repository"
	"codeberg.org/treenza/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVideo(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "ada@example.com")

	video := &models.Video{
		ID:         "v1",
		ObjectKey:  "videos/v1.mp4",
		VideoURL:   "https://cdn.example.com/videos/v1.mp4",
		UploadedBy: &user.ID,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, repo.CreateVideo(ctx, video))

	stored, err := repo.GetVideo(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, video.VideoURL, stored.VideoURL)
	require.NotNil(t, stored.UploadedBy)
	assert.Equal(t, user.ID, *stored.UploadedBy)
}

func TestListVideos_NewestFirst(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.CreateVideo(ctx, &models.Video{
			ID:        id,
			ObjectKey: "videos/" + id,
			VideoURL:  "https://cdn.example.com/videos/" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	videos, err := repo.ListVideos(ctx)

	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.Equal(t, "c", videos[0].ID)
	assert.Equal(t, "a", videos[2].ID)
}

func TestListVideos_Empty(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	videos, err := repo.ListVideos(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, videos)
	assert.Empty(t, videos)
}

func TestDeleteVideo(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateVideo(ctx, &models.Video{
		ID: "v1", ObjectKey: "videos/v1", VideoURL: "u", CreatedAt: time.Now(),
	}))

	require.NoError(t, repo.DeleteVideo(ctx, "v1"))

	_, err := repo.GetVideo(ctx, "v1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteVideo(ctx, "v1"), repository.ErrNotFound)
}
