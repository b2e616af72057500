// Package assets manages the images users upload for image blocks. Files go
// to object storage; metadata goes to PostgreSQL.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/imaging"
	"dndbuilder/internal/logger"
	"dndbuilder/internal/models"
	"dndbuilder/internal/storage"
)

const (
	// MaxSize is the largest accepted upload (10 MiB).
	MaxSize = 10 << 20

	// DefaultPerPage and MaxPerPage bound List pagination.
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// ErrDisabled is returned when no object storage is configured.
var ErrDisabled = errors.New("object storage is not configured")

// allowedTypes maps accepted sniffed MIME types to file extensions. SVG is
// excluded because it can carry script.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Repository persists asset metadata. *store.AssetStore satisfies it.
type Repository interface {
	Create(ctx context.Context, a *models.Asset) (*models.Asset, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Asset, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (*models.Asset, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Objects stores file bodies. *storage.Client satisfies it.
type Objects interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// Page is one page of a user's assets.
type Page struct {
	Items   []models.Asset `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

// Service implements asset upload, listing and deletion.
type Service struct {
	repo    Repository
	objects Objects
}

// New creates an asset service. objects may be nil, in which case uploads
// fail with ErrDisabled.
func New(repo Repository, objects Objects) *Service {
	return &Service{repo: repo, objects: objects}
}

// Enabled reports whether uploads are possible.
func (s *Service) Enabled() bool {
	return s.objects != nil
}

// Upload validates and stores an image for the user.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*models.Asset, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if len(data) == 0 {
		return nil, apperr.BadRequest("No file provided")
	}
	if len(data) > MaxSize {
		return nil, apperr.BadRequest("File too large. Maximum size is 10 MB")
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, apperr.BadRequest("File type %q is not allowed", contentType)
	}

	info, err := imaging.Probe(data, contentType)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			return nil, apperr.BadRequest("Image dimensions exceed %dx%d", imaging.MaxDimension, imaging.MaxDimension).Wrap(err)
		}
		return nil, apperr.BadRequest("File is not a valid image").Wrap(err)
	}

	key := storage.ObjectKey(userID, ext)
	if err := s.objects.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}

	created, err := s.repo.Create(ctx, &models.Asset{
		UserID:       userID,
		OriginalName: originalName(filename, ext),
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		Width:        info.Width,
		Height:       info.Height,
		S3Key:        key,
		URL:          s.objects.FileURL(key),
	})
	if err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			logger.FromContext(ctx).Warn("orphaned asset object", zap.String("key", key), zap.Error(derr))
		}
		return nil, fmt.Errorf("save asset: %w", err)
	}
	return created, nil
}

// List returns a page of the user's assets, newest first. page is 1-based.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Delete removes an asset. The stored object is removed best-effort.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return apperr.NotFound("Asset with ID %s not found", id)
	}
	if s.objects != nil {
		if err := s.objects.Delete(ctx, deleted.S3Key); err != nil {
			logger.FromContext(ctx).Warn("s3 asset delete failed", zap.String("key", deleted.S3Key), zap.Error(err))
		}
	}
	return nil
}

// originalName keeps the base of the uploaded filename, falling back to a
// generic name with the sniffed extension.
func originalName(filename, ext string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, `\`, "/")))
	if name == "" || name == "." || name == "/" {
		return "upload" + ext
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
