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

// ThemeStore handles all theme database operations. Every query is scoped
// to the owning user.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore creates a new ThemeStore.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

// themeColumns lists the columns selected in theme queries.
const themeColumns = `id, name, settings, is_active, user_id, created_at, updated_at`

// scanTheme scans a theme row from the result set.
func scanTheme(scanner interface{ Scan(...any) error }) (*models.Theme, error) {
	var (
		t        models.Theme
		settings []byte
	)
	err := scanner.Scan(&t.ID, &t.Name, &settings, &t.IsActive, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settings, &t.Settings); err != nil {
		return nil, fmt.Errorf("decode theme settings: %w", err)
	}
	if t.Settings == nil {
		t.Settings = map[string]any{}
	}
	return &t, nil
}

// findOne runs a single-row theme query. Returns nil if no row matches.
func (s *ThemeStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Theme, error) {
	t, err := scanTheme(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, translate(op, err)
	}
	return t, nil
}

// ListByUser returns all themes of a user ordered by creation date descending.
func (s *ThemeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Theme, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+themeColumns+`
		FROM themes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	items := []models.Theme{}
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// FindByID retrieves a theme owned by userID. Returns nil if not found.
func (s *ThemeStore) FindByID(ctx context.Context, id, userID uuid.UUID) (*models.Theme, error) {
	return s.findOne(ctx, "find theme by id",
		`SELECT `+themeColumns+` FROM themes WHERE id = $1 AND user_id = $2`, id, userID)
}

// FindByName retrieves the user's theme with the given name, ignoring
// excludeID (pass uuid.Nil to exclude nothing). Returns nil if not found.
func (s *ThemeStore) FindByName(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (*models.Theme, error) {
	return s.findOne(ctx, "find theme by name",
		`SELECT `+themeColumns+` FROM themes WHERE user_id = $1 AND name = $2 AND id <> $3`,
		userID, name, excludeID)
}

// FindActive returns the user's active theme, or nil if none is active.
func (s *ThemeStore) FindActive(ctx context.Context, userID uuid.UUID) (*models.Theme, error) {
	return s.findOne(ctx, "find active theme",
		`SELECT `+themeColumns+` FROM themes WHERE user_id = $1 AND is_active = TRUE LIMIT 1`, userID)
}

// Create inserts a new theme and returns it with the generated ID.
// Unique index violations surface as ErrDuplicate or ErrActiveConflict.
func (s *ThemeStore) Create(ctx context.Context, t *models.Theme) (*models.Theme, error) {
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode theme settings: %w", err)
	}
	created, err := scanTheme(s.db.QueryRowContext(ctx, `
		INSERT INTO themes (name, settings, is_active, user_id)
		VALUES ($1, $2::jsonb, $3, $4)
		RETURNING `+themeColumns,
		t.Name, string(settings), t.IsActive, t.UserID,
	))
	if err != nil {
		return nil, translate("create theme", err)
	}
	return created, nil
}

// Update applies the non-nil fields of patch to the user's theme and
// returns the result, or nil if no such theme exists.
func (s *ThemeStore) Update(ctx context.Context, id, userID uuid.UUID, patch models.ThemePatch) (*models.Theme, error) {
	var settings any
	if patch.Settings != nil {
		b, err := json.Marshal(patch.Settings)
		if err != nil {
			return nil, fmt.Errorf("encode theme settings: %w", err)
		}
		settings = string(b)
	}
	return s.findOne(ctx, "update theme", `
		UPDATE themes SET
			name       = COALESCE($1, name),
			settings   = COALESCE($2::jsonb, settings),
			is_active  = COALESCE($3, is_active),
			updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING `+themeColumns,
		patch.Name, settings, patch.IsActive, id, userID,
	)
}

// DeactivateAll clears the active flag on every theme of the user except
// excludeID (pass uuid.Nil to exclude nothing). Returns the number of
// themes that were deactivated.
func (s *ThemeStore) DeactivateAll(ctx context.Context, userID, excludeID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE themes SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND is_active = TRUE AND id <> $2
	`, userID, excludeID)
	if err != nil {
		return 0, fmt.Errorf("deactivate themes: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Delete removes the user's theme. Returns false if no row was deleted.
// Active themes are never deleted here.
func (s *ThemeStore) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM themes WHERE id = $1 AND user_id = $2 AND is_active = FALSE`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete theme: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}
