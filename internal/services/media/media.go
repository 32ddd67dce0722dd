// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package media registers uploaded video assets.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"codeberg.org/treenza/storefront/internal/models"
	"codeberg.org/treenza/storefront/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("video not found")
	ErrUnsupportedMedia = errors.New("unsupported video format")
)

// UploadTTL is how long a presigned upload URL stays valid.
const UploadTTL = 15 * time.Minute

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// ObjectStore holds the video bytes.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Store persists video records.
type Store interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context) ([]models.Video, error)
	DeleteVideo(ctx context.Context, id string) error
}

type Service struct {
	store   Store
	objects ObjectStore
	now     func() time.Time
}

func NewService(store Store, objects ObjectStore) *Service {
	return &Service{store: store, objects: objects, now: time.Now}
}

// Upload is a registered video and where to send its bytes.
type Upload struct {
	Video       *models.Video `json:"video"`
	UploadURL   string        `json:"upload_url"`
	ContentType string        `json:"content_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// CreateUpload records a video owned by userID and presigns its upload.
func (s *Service) CreateUpload(ctx context.Context, userID int64, filename string) (*Upload, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := contentTypes[ext]
	if !ok {
		return nil, ErrUnsupportedMedia
	}

	now := s.now().UTC()
	id := uuid.NewString()
	key := fmt.Sprintf("videos/%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), id, ext)

	uploadURL, err := s.objects.PresignPut(ctx, key, contentType, UploadTTL)
	if err != nil {
		return nil, err
	}

	video := &models.Video{
		ID:         id,
		ObjectKey:  key,
		VideoURL:   s.objects.URL(key),
		UploadedBy: &userID,
		CreatedAt:  now,
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("storing video: %w", err)
	}

	slog.Info("video_upload_created", "video_id", id, "user_id", userID)

	return &Upload{
		Video:       video,
		UploadURL:   uploadURL,
		ContentType: contentType,
		ExpiresAt:   now.Add(UploadTTL),
	}, nil
}

// List returns all videos, newest first.
func (s *Service) List(ctx context.Context) ([]models.Video, error) {
	return s.store.ListVideos(ctx)
}

// Delete removes the object and its record.
func (s *Service) Delete(ctx context.Context, id string) error {
	video, err := s.store.GetVideo(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := s.objects.Delete(ctx, video.ObjectKey); err != nil {
		return err
	}

	if err := s.store.DeleteVideo(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	slog.Info("video_deleted", "video_id", id)
	return nil
}
