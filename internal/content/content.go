// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content persists each user's builder content and renders it as
// a stylesheet and an HTML preview.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/builder"
	"dndbuilder/internal/cache"
	"dndbuilder/internal/engine"
	"dndbuilder/internal/models"
	"dndbuilder/internal/registry"
)

// MaxDocumentSize bounds stored content.
const MaxDocumentSize = 5 << 20

// Repository stores one content document per user. *store.ContentStore
// satisfies it.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Content, error)
	Save(ctx context.Context, userID uuid.UUID, data json.RawMessage) (*models.Content, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// ThemeSource resolves the active theme used to style previews.
// *themes.Service satisfies it.
type ThemeSource interface {
	FindActive(ctx context.Context, userID uuid.UUID) (*models.Theme, error)
}

// PageCache caches rendered previews. *cache.PageCache satisfies it.
type PageCache interface {
	Page(ctx context.Context, userID uuid.UUID, render cache.Renderer) ([]byte, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Document is a user's content as returned by the API.
type Document struct {
	Content   *builder.Content `json:"content"`
	UpdatedAt *time.Time       `json:"updatedAt"`
}

// Service implements the content operations.
type Service struct {
	repo   Repository
	reg    *registry.Registry
	engine *engine.Engine
	themes ThemeSource
	pages  PageCache
}

// Option configures a Service.
type Option func(*Service)

// WithThemes styles previews and stylesheets with the user's active theme.
func WithThemes(t ThemeSource) Option {
	return func(s *Service) { s.themes = t }
}

// WithPageCache caches rendered previews.
func WithPageCache(pc PageCache) Option {
	return func(s *Service) { s.pages = pc }
}

// New creates a content service. Block types are checked against reg.
func New(repo Repository, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{repo: repo, reg: reg, engine: engine.New(reg)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the user's content. A user who never saved gets an empty
// tree and a nil UpdatedAt.
func (s *Service) Load(ctx context.Context, userID uuid.UUID) (*Document, error) {
	row, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &Document{Content: builder.NewContent()}, nil
	}
	c, err := builder.Decode(bytes.NewReader(row.Data))
	if err != nil {
		return nil, fmt.Errorf("stored content for %s: %w", userID, err)
	}
	updated := row.UpdatedAt
	return &Document{Content: c, UpdatedAt: &updated}, nil
}

// Save validates and stores c, replacing the previous document.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, c *builder.Content) (*Document, error) {
	if err := c.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := c.ValidateTypes(s.reg.Has); err != nil {
		return nil, invalid(err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, tooLarge()
	}

	row, err := s.repo.Save(ctx, userID, data)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	updated := row.UpdatedAt
	return &Document{Content: c, UpdatedAt: &updated}, nil
}

// Import decodes a JSON tree from r and saves it.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, apperr.BadRequest("Could not read content").Wrap(err)
	}
	if len(data) > MaxDocumentSize {
		return nil, tooLarge()
	}
	c, err := builder.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalid(err)
	}
	return s.Save(ctx, userID, c)
}

// Export writes the user's content as indented JSON.
func (s *Service) Export(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	doc, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	return builder.NewActions(doc.Content).Export(w)
}

// Clear deletes the user's content.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Saver returns a builder.Saver that stores trees for userID.
func (s *Service) Saver(userID uuid.UUID) builder.Saver {
	return builder.SaverFunc(func(ctx context.Context, c *builder.Content) error {
		_, err := s.Save(ctx, userID, c)
		return err
	})
}

// StyleSheet renders the theme variables and block styles of the user's
// content.
func (s *Service) StyleSheet(ctx context.Context, userID uuid.UUID) (string, error) {
	doc, theme, err := s.loadWithTheme(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.engine.StyleSheet(doc.Content, theme)
}

// Preview renders the user's content as a standalone HTML page.
func (s *Service) Preview(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	if s.pages != nil {
		return s.pages.Page(ctx, userID, s.renderPreview)
	}
	return s.renderPreview(ctx, userID)
}

func (s *Service) renderPreview(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	doc, theme, err := s.loadWithTheme(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.RenderPage(doc.Content, theme, "Preview")
}

// ThemeChanged drops cached previews after the user's themes changed.
func (s *Service) ThemeChanged(ctx context.Context, userID uuid.UUID) {
	s.invalidate(ctx, userID)
}

// ThemeRemoved forgets rendered variables of a deleted theme.
func (s *Service) ThemeRemoved(id uuid.UUID) {
	s.engine.InvalidateTheme(id)
}

func (s *Service) loadWithTheme(ctx context.Context, userID uuid.UUID) (*Document, *models.Theme, error) {
	doc, err := s.Load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	var theme *models.Theme
	if s.themes != nil {
		if theme, err = s.themes.FindActive(ctx, userID); err != nil {
			return nil, nil, err
		}
	}
	return doc, theme, nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.pages != nil {
		s.pages.Invalidate(ctx, userID)
	}
}

func tooLarge() error {
	return apperr.BadRequest("Content is too large (max %d MB)", MaxDocumentSize>>20)
}

// invalid reports validation failures, which all wrap
// builder.ErrInvalidContent, as bad requests.
func invalid(err error) error {
	return apperr.BadRequest("%s", err.Error()).Wrap(err)
}
