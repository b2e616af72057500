package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/content"
	"dndbuilder/internal/respond"
)

// Content groups the builder content endpoints.
type Content struct {
	svc *content.Service
	now func() time.Time
}

// NewContent creates the content handlers.
func NewContent(svc *content.Service) *Content {
	return &Content{svc: svc, now: time.Now}
}

// Get handles GET /content.
func (h *Content) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	doc, err := h.svc.Load(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}

// Put handles PUT /content. The body is the block map.
func (h *Content) Put(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxContentBody)
	doc, err := h.svc.Import(r.Context(), userID, r.Body)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}

// Import handles POST /content/import. It accepts either a multipart
// upload in the "file" field or a raw JSON body.
func (h *Content) Import(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxContentBody)

	var src io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			respond.Error(w, r, apperr.BadRequest("No file provided"))
			return
		}
		defer file.Close()
		src = file
	}

	doc, err := h.svc.Import(r.Context(), userID, src)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, doc)
}

// Export handles GET /content/export as a JSON file download.
func (h *Content) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), userID, &buf); err != nil {
		respond.Error(w, r, err)
		return
	}
	name := fmt.Sprintf("content-%d.json", h.now().UnixMilli())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Clear handles DELETE /content.
func (h *Content) Clear(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.svc.Clear(r.Context(), userID); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StyleSheet handles GET /content/styles.css.
func (h *Content) StyleSheet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	css, err := h.svc.StyleSheet(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, css)
}

// Preview handles GET /content/preview.
func (h *Content) Preview(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	html, err := h.svc.Preview(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src https: data:; style-src 'unsafe-inline'; frame-ancestors 'self'")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}
