// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers of the builder API. Each
// handler group wraps one service; request decoding and validation happen
// here, business rules live in the services.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/auth"
	"dndbuilder/internal/respond"
)

// Body size limits.
const (
	maxJSONBody    = 1 << 20
	maxContentBody = 5<<20 + 1024
)

// currentUser returns the id of the authenticated user.
func currentUser(r *http.Request) (uuid.UUID, error) {
	c := auth.ClaimsFrom(r.Context())
	if c == nil {
		return uuid.Nil, apperr.Unauthorized("Not signed in")
	}
	id := c.UserID()
	if id == uuid.Nil {
		return uuid.Nil, apperr.Unauthorized("Invalid token subject")
	}
	return id, nil
}

// idParam parses a UUID route parameter.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("Validation failed (uuid is expected)")
	}
	return id, nil
}

// decode limits and decodes a JSON request body.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return respond.Decode(r, dst)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers unmatched routes with the JSON error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Status(w, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Status(w, http.StatusMethodNotAllowed, "")
}
