// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Video is an uploaded video asset stored in object storage.
type Video struct { //nolint:govet // fieldalignment: readability over optimization
	ID         string    `db:"id" json:"id"`
	ObjectKey  string    `db:"object_key" json:"-"`
	VideoURL   string    `db:"video_url" json:"video_url"`
	UploadedBy *int64    `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
