// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"dndbuilder/internal/models"
)

// AssetStore handles uploaded asset metadata.
type AssetStore struct {
	db *sql.DB
}

// NewAssetStore creates a new AssetStore with the given database connection.
func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// assetColumns lists the columns selected in asset queries.
const assetColumns = `id, user_id, original_name, content_type, size_bytes, width, height, s3_key, url, created_at`

// scanAsset scans an asset row from the result set.
func scanAsset(scanner interface{ Scan(...any) error }) (*models.Asset, error) {
	var a models.Asset
	err := scanner.Scan(
		&a.ID, &a.UserID, &a.OriginalName, &a.ContentType, &a.SizeBytes,
		&a.Width, &a.Height, &a.S3Key, &a.URL, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new asset record and returns it with the generated ID.
func (s *AssetStore) Create(ctx context.Context, a *models.Asset) (*models.Asset, error) {
	created, err := scanAsset(s.db.QueryRowContext(ctx, `
		INSERT INTO assets (user_id, original_name, content_type, size_bytes, width, height, s3_key, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+assetColumns,
		a.UserID, a.OriginalName, a.ContentType, a.SizeBytes, a.Width, a.Height, a.S3Key, a.URL,
	))
	if err != nil {
		return nil, translate("create asset", err)
	}
	return created, nil
}

// ListByUser returns a user's assets ordered by creation date, with pagination.
func (s *AssetStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	items := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// Delete removes the user's asset and returns it so the caller can clean
// up the stored object. Returns nil if not found.
func (s *AssetStore) Delete(ctx context.Context, id, userID uuid.UUID) (*models.Asset, error) {
	a, err := scanAsset(s.db.QueryRowContext(ctx, `
		DELETE FROM assets WHERE id = $1 AND user_id = $2
		RETURNING `+assetColumns, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete asset: %w", err)
	}
	return a, nil
}

// CountByUser returns the number of assets a user has uploaded.
func (s *AssetStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return count, nil
}
