// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed cache of rendered preview pages.
// The preview of a user's content is rebuilt only after the content or the
// active theme changes.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dndbuilder/internal/logger"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached previews.
	pageKeyPrefix = "preview:"

	// DefaultPageTTL is how long a rendered preview stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages rendered preview HTML in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new preview cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// PageKey returns the cache key for a user's preview.
func PageKey(userID uuid.UUID) string {
	return pageKeyPrefix + userID.String()
}

// Renderer builds a user's preview page.
type Renderer func(ctx context.Context, userID uuid.UUID) ([]byte, error)

// Page returns the cached preview of a user, rendering it on a miss. A
// render that overlaps Invalidate is served but not cached. Cache failures
// fall through to render.
func (pc *PageCache) Page(ctx context.Context, userID uuid.UUID, render Renderer) ([]byte, error) {
	key := PageKey(userID)
	log := logger.FromContext(ctx).With(zap.Stringer("user_id", userID))

	html, err := pc.client.Get(ctx, key).Bytes()
	if err == nil {
		return html, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Warn("page cache get error", zap.Error(err))
		return render(ctx, userID)
	}

	gen, err := generation(ctx, pc.client, key)
	if err != nil {
		log.Warn("page cache generation error", zap.Error(err))
		return render(ctx, userID)
	}
	if html, err = render(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := storeIfCurrent(ctx, pc.client, key, gen, html, pc.ttl); err != nil {
		log.Warn("page cache set error", zap.Error(err))
	}
	return html, nil
}

// Invalidate removes a user's cached preview.
func (pc *PageCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := invalidate(ctx, pc.client, PageKey(userID)); err != nil {
		logger.FromContext(ctx).Warn("page cache invalidate error", zap.Stringer("user_id", userID), zap.Error(err))
	}
}

// InvalidateAll removes every cached preview by scanning for the prefix.
// Used when the block registry styles change on deploy.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			logger.FromContext(ctx).Warn("page cache scan error", zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				logger.FromContext(ctx).Warn("page cache bulk delete error", zap.Error(err))
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		logger.FromContext(ctx).Info("page cache fully cleared", zap.Int("deleted", deleted))
	}
}
