package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/assets"
	"dndbuilder/internal/respond"
)

// Assets groups the media library endpoints.
type Assets struct {
	svc *assets.Service
}

// NewAssets creates the asset handlers.
func NewAssets(svc *assets.Service) *Assets {
	return &Assets{svc: svc}
}

// Upload handles POST /assets with a multipart "file" field.
func (h *Assets) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if !h.svc.Enabled() {
		respond.Status(w, http.StatusServiceUnavailable, "Asset storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, assets.MaxSize+1<<20)
	if err := r.ParseMultipartForm(assets.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Status(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respond.Error(w, r, apperr.BadRequest("Invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, apperr.BadRequest("No file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, assets.MaxSize+1))
	if err != nil {
		respond.Error(w, r, apperr.BadRequest("Could not read file"))
		return
	}

	a, err := h.svc.Upload(r.Context(), userID, header.Filename, data)
	if err != nil {
		if errors.Is(err, assets.ErrDisabled) {
			respond.Status(w, http.StatusServiceUnavailable, "Asset storage is not configured")
			return
		}
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, a)
}

// List handles GET /assets?page=&perPage=.
func (h *Assets) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	perPage, err := queryInt(r, "perPage", assets.DefaultPerPage)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.svc.List(r.Context(), userID, page, perPage)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Delete handles DELETE /assets/{id}.
func (h *Assets) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt reads a positive integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.BadRequest("%s must be a positive integer", name)
	}
	return n, nil
}
