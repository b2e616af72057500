// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package themes implements per-user theme management. A user may own any
// number of themes but at most one of them is active at a time.
package themes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/cache"
	"dndbuilder/internal/logger"
	"dndbuilder/internal/models"
	"dndbuilder/internal/store"
)

// MaxNameLength is the longest theme name accepted, in characters.
const MaxNameLength = 200

// Repository is the persistence the service needs. *store.ThemeStore
// satisfies it. Lookups return nil, nil when nothing matches.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Theme, error)
	FindByID(ctx context.Context, id, userID uuid.UUID) (*models.Theme, error)
	FindByName(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (*models.Theme, error)
	FindActive(ctx context.Context, userID uuid.UUID) (*models.Theme, error)
	Create(ctx context.Context, t *models.Theme) (*models.Theme, error)
	Update(ctx context.Context, id, userID uuid.UUID, patch models.ThemePatch) (*models.Theme, error)
	DeactivateAll(ctx context.Context, userID, excludeID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// ActiveCache caches the active theme of each user. *cache.ThemeCache
// satisfies it.
type ActiveCache interface {
	Active(ctx context.Context, userID uuid.UUID, load cache.ThemeLoader) (*models.Theme, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// CreateInput is the payload for creating a theme.
type CreateInput struct {
	Name     string         `json:"name"`
	Settings map[string]any `json:"settings"`
	IsActive bool           `json:"isActive"`
}

// ActiveSelector picks the theme to activate: either an existing theme by
// ID, or a brand-new theme described by Name and Settings.
type ActiveSelector struct {
	ID       *uuid.UUID     `json:"id,omitempty"`
	Name     *string        `json:"name,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Service enforces the theme rules on top of a Repository.
type Service struct {
	repo      Repository
	cache     ActiveCache
	listeners []func(ctx context.Context, userID uuid.UUID)
}

// Option configures a Service.
type Option func(*Service)

// WithCache serves FindActive through c and invalidates it on writes.
func WithCache(c ActiveCache) Option {
	return func(s *Service) { s.cache = c }
}

// OnChange registers fn to run after any write to a user's themes.
func OnChange(fn func(ctx context.Context, userID uuid.UUID)) Option {
	return func(s *Service) { s.listeners = append(s.listeners, fn) }
}

// New creates a theme service.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new theme for ownerID. When in.IsActive is set, every
// other theme of the owner is deactivated first.
func (s *Service) Create(ctx context.Context, in CreateInput, ownerID uuid.UUID) (*models.Theme, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.Settings == nil {
		return nil, apperr.BadRequest("settings must be an object")
	}

	existing, err := s.repo.FindByName(ctx, ownerID, name, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("create theme: %w", err)
	}
	if existing != nil {
		return nil, nameConflict(name)
	}

	if in.IsActive {
		if _, err := s.repo.DeactivateAll(ctx, ownerID, uuid.Nil); err != nil {
			return nil, fmt.Errorf("create theme: %w", err)
		}
	}

	created, err := s.repo.Create(ctx, &models.Theme{
		Name:     name,
		Settings: in.Settings,
		IsActive: in.IsActive,
		UserID:   ownerID,
	})
	if err != nil {
		return nil, translate("create theme", name, err)
	}

	s.changed(ctx, ownerID)
	logger.FromContext(ctx).Info("theme created",
		zap.Stringer("theme_id", created.ID), zap.Bool("active", created.IsActive))
	return created, nil
}

// FindAll returns the owner's themes, newest first.
func (s *Service) FindAll(ctx context.Context, ownerID uuid.UUID) ([]models.Theme, error) {
	list, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return list, nil
}

// FindOneOrFail returns the owner's theme or a NotFound error.
func (s *Service) FindOneOrFail(ctx context.Context, id, ownerID uuid.UUID) (*models.Theme, error) {
	t, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find theme: %w", err)
	}
	if t == nil {
		return nil, notFound(id)
	}
	return t, nil
}

// FindActive returns the owner's active theme, or nil when none is active.
func (s *Service) FindActive(ctx context.Context, ownerID uuid.UUID) (*models.Theme, error) {
	var (
		t   *models.Theme
		err error
	)
	if s.cache != nil {
		t, err = s.cache.Active(ctx, ownerID, s.repo.FindActive)
	} else {
		t, err = s.repo.FindActive(ctx, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("find active theme: %w", err)
	}
	return t, nil
}

// Update applies patch to the owner's theme. Activating a theme through
// the patch deactivates every other theme of the owner.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.ThemePatch, ownerID uuid.UUID) (*models.Theme, error) {
	existing, err := s.FindOneOrFail(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name, err := validateName(*patch.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
		if name != existing.Name {
			dup, err := s.repo.FindByName(ctx, ownerID, name, id)
			if err != nil {
				return nil, fmt.Errorf("update theme: %w", err)
			}
			if dup != nil {
				return nil, nameConflict(name)
			}
		}
	}

	if patch.IsActive != nil && *patch.IsActive {
		if _, err := s.repo.DeactivateAll(ctx, ownerID, id); err != nil {
			return nil, fmt.Errorf("update theme: %w", err)
		}
	}

	name := existing.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	updated, err := s.repo.Update(ctx, id, ownerID, patch)
	if err != nil {
		return nil, translate("update theme", name, err)
	}
	if updated == nil {
		return nil, notFound(id)
	}

	s.changed(ctx, ownerID)
	return updated, nil
}

// Remove deletes the owner's theme. The active theme cannot be removed.
func (s *Service) Remove(ctx context.Context, id, ownerID uuid.UUID) error {
	existing, err := s.FindOneOrFail(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if existing.IsActive {
		return apperr.Conflict("Cannot delete the active theme")
	}

	ok, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("remove theme: %w", err)
	}
	if !ok {
		return notFound(id)
	}

	s.changed(ctx, ownerID)
	return nil
}

// SetActiveTheme activates the theme chosen by sel. Activating the theme
// that is already active changes nothing.
func (s *Service) SetActiveTheme(ctx context.Context, sel ActiveSelector, ownerID uuid.UUID) (*models.Theme, error) {
	switch {
	case sel.ID != nil:
		return s.activate(ctx, *sel.ID, ownerID)
	case sel.Name != nil && sel.Settings != nil:
		return s.Create(ctx, CreateInput{Name: *sel.Name, Settings: sel.Settings, IsActive: true}, ownerID)
	default:
		return nil, apperr.BadRequest("Either id or name and settings must be provided")
	}
}

func (s *Service) activate(ctx context.Context, id, ownerID uuid.UUID) (*models.Theme, error) {
	target, err := s.FindOneOrFail(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if target.IsActive {
		return target, nil
	}

	if _, err := s.repo.DeactivateAll(ctx, ownerID, id); err != nil {
		return nil, fmt.Errorf("activate theme: %w", err)
	}
	active := true
	updated, err := s.repo.Update(ctx, id, ownerID, models.ThemePatch{IsActive: &active})
	if err != nil {
		return nil, translate("activate theme", target.Name, err)
	}
	if updated == nil {
		return nil, notFound(id)
	}

	s.changed(ctx, ownerID)
	logger.FromContext(ctx).Info("theme activated", zap.Stringer("theme_id", id))
	return updated, nil
}

// changed invalidates cached state derived from the owner's themes.
func (s *Service) changed(ctx context.Context, ownerID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ownerID)
	}
	for _, fn := range s.listeners {
		fn(ctx, ownerID)
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.BadRequest("name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperr.BadRequest("name must be at most %d characters", MaxNameLength)
	}
	return name, nil
}

func notFound(id uuid.UUID) *apperr.Error {
	return apperr.NotFound("Theme with ID %s not found", id)
}

func nameConflict(name string) *apperr.Error {
	return apperr.Conflict("Theme with name %q already exists", name)
}

// translate maps unique index violations raced past the pre-checks onto
// Conflict errors.
func translate(op, name string, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nameConflict(name).Wrap(err)
	case errors.Is(err, store.ErrActiveConflict):
		return apperr.Conflict("Another theme was activated at the same time").Wrap(err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
