// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Theme holds the global styling settings a user applies to rendered
// content. At most one theme per user is active at a time.
type Theme struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Settings  map[string]any `json:"settings"`
	IsActive  bool           `json:"isActive"`
	UserID    uuid.UUID      `json:"userId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ThemePatch carries the optional fields of a theme update.
type ThemePatch struct {
	Name     *string        `json:"name,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
	IsActive *bool          `json:"isActive,omitempty"`
}
