package handlers

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"dndbuilder/internal/assets"
	"dndbuilder/internal/models"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type memAssets struct {
	mu    sync.Mutex
	items []models.Asset
}

func (m *memAssets) Create(_ context.Context, a *models.Asset) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *a
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.items = append(m.items, c)
	return &c, nil
}

func (m *memAssets) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Asset
	for _, a := range m.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	if offset >= len(out) {
		return []models.Asset{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (m *memAssets) Delete(_ context.Context, id, userID uuid.UUID) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.items {
		if a.ID == id && a.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAssets) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.items {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (o *memObjects) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = b
	return nil
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *memObjects) FileURL(key string) string { return "https://cdn.test/" + key }

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	r := httptest.NewRequest(http.MethodPost, "/assets", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestAssetsUploadListDelete(t *testing.T) {
	objects := &memObjects{objects: map[string][]byte{}}
	h := NewAssets(assets.New(&memAssets{}, objects))
	user := uuid.New()

	rec := httptest.NewRecorder()
	h.Upload(rec, withUser(uploadRequest(t, "logo.png", pngImage(t, 3, 2)), user, models.RoleCustomer))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body)
	}
	var created models.Asset
	decodeBody(t, rec, &created)
	if created.ContentType != "image/png" || created.OriginalName != "logo.png" || created.Width != 3 || created.Height != 2 {
		t.Errorf("created = %+v", created)
	}
	if len(objects.objects) != 1 {
		t.Errorf("stored objects = %d, want 1", len(objects.objects))
	}

	rec = httptest.NewRecorder()
	h.List(rec, withUser(httptest.NewRequest(http.MethodGet, "/assets?page=1&perPage=10", nil), user, models.RoleCustomer))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var page assets.Page
	decodeBody(t, rec, &page)
	if page.Total != 1 || len(page.Items) != 1 || page.PerPage != 10 {
		t.Errorf("page = %+v", page)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, withURLParams(withUser(httptest.NewRequest(http.MethodDelete, "/", nil), user, models.RoleCustomer), "id", created.ID.String()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(objects.objects) != 0 {
		t.Error("object was not removed")
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, withURLParams(withUser(httptest.NewRequest(http.MethodDelete, "/", nil), user, models.RoleCustomer), "id", created.ID.String()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestAssetsUploadRejects(t *testing.T) {
	h := NewAssets(assets.New(&memAssets{}, &memObjects{objects: map[string][]byte{}}))
	user := uuid.New()

	tests := []struct {
		name    string
		request func() *http.Request
	}{
		{"svg", func() *http.Request {
			return uploadRequest(t, "x.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`))
		}},
		{"empty file", func() *http.Request { return uploadRequest(t, "x.png", nil) }},
		{"not multipart", func() *http.Request { return jsonRequest(t, http.MethodPost, "/assets", `{}`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Upload(rec, withUser(tt.request(), user, models.RoleCustomer))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestAssetsUploadDisabled(t *testing.T) {
	h := NewAssets(assets.New(&memAssets{}, nil))
	rec := httptest.NewRecorder()
	h.Upload(rec, withUser(uploadRequest(t, "logo.png", pngImage(t, 3, 2)), uuid.New(), models.RoleCustomer))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAssetsListBadQuery(t *testing.T) {
	h := NewAssets(assets.New(&memAssets{}, nil))
	for _, q := range []string{"page=0", "perPage=abc", "page=-2"} {
		rec := httptest.NewRecorder()
		h.List(rec, withUser(httptest.NewRequest(http.MethodGet, "/assets?"+q, nil), uuid.New(), models.RoleCustomer))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}
