// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/models"
	"dndbuilder/internal/respond"
)

// UserDirectory is the slice of the user store the admin endpoints need.
type UserDirectory interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Admin groups the user administration endpoints. Routes are expected to
// sit behind middleware.RequireAdmin.
type Admin struct {
	users UserDirectory
}

func NewAdmin(users UserDirectory) *Admin {
	return &Admin{users: users}
}

// Users handles GET /admin/users.
func (h *Admin) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respond.JSON(w, http.StatusOK, users)
}

// DeleteUser handles DELETE /admin/users/{id}. Admins cannot delete their
// own account here.
func (h *Admin) DeleteUser(w http.ResponseWriter, r *http.Request) {
	self, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if id == self {
		respond.Error(w, r, apperr.Forbidden("Cannot delete your own account"))
		return
	}

	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if u == nil {
		respond.Error(w, r, apperr.NotFound("User with ID %s not found", id))
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
