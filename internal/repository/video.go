// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/treenza/storefront/internal/models"
)

// CreateVideo inserts a video record.
func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (id, object_key, video_url, uploaded_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		video.ID, video.ObjectKey, video.VideoURL, video.UploadedBy, video.CreatedAt.UTC())
	return wrapError(err)
}

// GetVideo retrieves a video by ID.
func (r *Repository) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := r.db.GetContext(ctx, &video, `SELECT * FROM videos WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &video, nil
}

// ListVideos returns all videos, newest first.
func (r *Repository) ListVideos(ctx context.Context) ([]models.Video, error) {
	videos := []models.Video{}
	if err := r.db.SelectContext(ctx, &videos, `SELECT * FROM videos ORDER BY created_at DESC, rowid DESC`); err != nil {
		return nil, err
	}
	return videos, nil
}

// DeleteVideo deletes a video by ID.
func (r *Repository) DeleteVideo(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if requireOneRow(res) != nil {
		return ErrNotFound
	}
	return nil
}
