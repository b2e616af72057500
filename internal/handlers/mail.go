package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dndbuilder/internal/mail"
	"dndbuilder/internal/respond"
)

// Mail exposes the email templates for inspection.
type Mail struct {
	svc *mail.Service
}

// NewMail creates the mail template handlers.
func NewMail(svc *mail.Service) *Mail {
	return &Mail{svc: svc}
}

// Templates handles GET /mail/templates.
func (h *Mail) Templates(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListTemplates()
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]string{"templates": names})
}

// Content handles GET /mail/templates/{name}/content.
func (h *Mail) Content(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	src, err := h.svc.TemplateContent(name)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"name": name, "content": src})
}

// Preview handles GET /mail/templates/{name}/preview and renders the
// template with sample data.
func (h *Mail) Preview(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.Preview(chi.URLParam(r, "name"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
