// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"dndbuilder/internal/auth"
	"dndbuilder/internal/models"
	"dndbuilder/internal/respond"
)

// Auth groups the account endpoints.
type Auth struct {
	svc *auth.Service
}

// NewAuth creates the account handlers.
func NewAuth(svc *auth.Service) *Auth {
	return &Auth{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /auth/register.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decode(w, r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	s, err := h.svc.Register(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, s)
}

// Login handles POST /auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(w, r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	s, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), auth.ClaimsFrom(r.Context())); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Profile handles GET /auth/profile.
func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	u, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// UpdateProfile handles PUT /auth/profile.
func (h *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var upd models.ProfileUpdate
	if err := decode(w, r, &upd); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := validateProfile(upd); err != nil {
		respond.Error(w, r, err)
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// RegenerateLicenseKey handles PUT /auth/regenerate-license-key.
func (h *Auth) RegenerateLicenseKey(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	u, err := h.svc.RegenerateLicenseKey(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// ForgotPassword handles POST /auth/forgot-password. The answer is the
// same whether or not the address is registered.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decode(w, r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), in.Email); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, messageResponse{
		Message: "If an account exists for that email, a reset link has been sent",
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := decode(w, r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), in.Token, in.Password); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, messageResponse{Message: "Password has been reset"})
}
