// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"dndbuilder/internal/models"
	"dndbuilder/internal/respond"
	"dndbuilder/internal/slug"
	"dndbuilder/internal/themes"
)

// Themes groups the theme endpoints.
type Themes struct {
	svc       *themes.Service
	onRemoved func(id uuid.UUID)
}

// NewThemes creates the theme handlers. onRemoved, if set, runs after a
// theme is deleted.
func NewThemes(svc *themes.Service, onRemoved func(id uuid.UUID)) *Themes {
	return &Themes{svc: svc, onRemoved: onRemoved}
}

// Create handles POST /themes.
func (h *Themes) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var in themes.CreateInput
	if err := decode(w, r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := validateSettings(in.Settings); err != nil {
		respond.Error(w, r, err)
		return
	}

	t, err := h.svc.Create(r.Context(), in, userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, t)
}

// List handles GET /themes.
func (h *Themes) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	list, err := h.svc.FindAll(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /themes/{id}.
func (h *Themes) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.find(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// Export handles GET /themes/{id}/export and downloads the theme as JSON
// named after the theme.
func (h *Themes) Export(w http.ResponseWriter, r *http.Request) {
	t, ok := h.find(w, r)
	if !ok {
		return
	}
	body, err := json.MarshalIndent(map[string]any{
		"name":     t.Name,
		"settings": t.Settings,
	}, "", "  ")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+slug.Filename(t.Name, "theme", ".json")+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Update handles PUT /themes/{id}.
func (h *Themes) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var patch models.ThemePatch
	if err := decode(w, r, &patch); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := validateSettings(patch.Settings); err != nil {
		respond.Error(w, r, err)
		return
	}

	t, err := h.svc.Update(r.Context(), id, patch, userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// Delete handles DELETE /themes/{id}. Deleting the active theme is a
// conflict.
func (h *Themes) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.svc.Remove(r.Context(), id, userID); err != nil {
		respond.Error(w, r, err)
		return
	}
	if h.onRemoved != nil {
		h.onRemoved(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Active handles GET /themes/active. A user without an active theme gets
// a JSON null.
func (h *Themes) Active(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	t, err := h.svc.FindActive(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// SetActive handles POST /themes/active (201) and its PUT alias (200).
func (h *Themes) SetActive(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var sel themes.ActiveSelector
	if err := decode(w, r, &sel); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := validateSettings(sel.Settings); err != nil {
		respond.Error(w, r, err)
		return
	}

	t, err := h.svc.SetActiveTheme(r.Context(), sel, userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if r.Method == http.MethodPut {
		status = http.StatusOK
	}
	respond.JSON(w, status, t)
}

func (h *Themes) find(w http.ResponseWriter, r *http.Request) (*models.Theme, bool) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}
	id, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}
	t, err := h.svc.FindOneOrFail(r.Context(), id, userID)
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}
	return t, true
}
