// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Asset is a file uploaded to object storage for use by image blocks.
// Metadata lives in PostgreSQL; the file itself lives in the bucket.
type Asset struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	S3Key        string    `json:"-"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsImage returns true if the asset is an image type.
func (a *Asset) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// HumanSize returns a human-readable file size string.
func (a *Asset) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case a.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(a.SizeBytes)/float64(mb))
	case a.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(a.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", a.SizeBytes)
	}
}
