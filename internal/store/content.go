// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"dndbuilder/internal/models"
)

// ContentStore persists the builder document of each user.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a new ContentStore with the given database connection.
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

// Get returns the user's saved content, or nil if nothing was saved yet.
func (s *ContentStore) Get(ctx context.Context, userID uuid.UUID) (*models.Content, error) {
	var c models.Content
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, data, updated_at FROM contents WHERE user_id = $1
	`, userID).Scan(&c.UserID, &data, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	c.Data = json.RawMessage(data)
	return &c, nil
}

// Save upserts the user's content. The last write wins.
func (s *ContentStore) Save(ctx context.Context, userID uuid.UUID, data json.RawMessage) (*models.Content, error) {
	var c models.Content
	var out []byte
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO contents (user_id, data, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
		RETURNING user_id, data, updated_at
	`, userID, string(data)).Scan(&c.UserID, &out, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("save content: %w", err)
	}
	c.Data = json.RawMessage(out)
	return &c, nil
}

// Delete removes the user's saved content.
func (s *ContentStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM contents WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}
