package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"dndbuilder/internal/logger"
	"dndbuilder/internal/models"
)

const (
	themeKeyPrefix = "theme:active:"

	// DefaultThemeTTL bounds staleness if an invalidation is lost.
	DefaultThemeTTL = 10 * time.Minute
)

// nullTheme marks a cached "no active theme" answer.
var nullTheme = []byte("null")

// ThemeLoader fetches the active theme from the source of truth.
type ThemeLoader func(ctx context.Context, userID uuid.UUID) (*models.Theme, error)

// ThemeCache caches each user's active theme. Concurrent misses for the same
// user share a single load.
type ThemeCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewThemeCache creates a theme cache backed by the given Valkey client.
func NewThemeCache(client *redis.Client, ttl time.Duration) *ThemeCache {
	if ttl == 0 {
		ttl = DefaultThemeTTL
	}
	return &ThemeCache{client: client, ttl: ttl}
}

// ThemeKey returns the cache key for a user's active theme.
func ThemeKey(userID uuid.UUID) string {
	return themeKeyPrefix + userID.String()
}

// Active returns the cached active theme, calling load on a miss. Cache
// failures fall through to load. A load that overlaps Invalidate is
// returned but not cached.
func (c *ThemeCache) Active(ctx context.Context, userID uuid.UUID, load ThemeLoader) (*models.Theme, error) {
	key := ThemeKey(userID)
	log := logger.FromContext(ctx)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var t *models.Theme
		decodeErr := json.Unmarshal(raw, &t)
		if decodeErr == nil {
			return t, nil
		}
		log.Warn("theme cache decode error", zap.String("key", key), zap.Error(decodeErr))
	case !errors.Is(err, redis.Nil):
		log.Warn("theme cache get error", zap.String("key", key), zap.Error(err))
		return load(ctx, userID)
	}

	gen, err := generation(ctx, c.client, key)
	if err != nil {
		log.Warn("theme cache generation error", zap.String("key", key), zap.Error(err))
		return load(ctx, userID)
	}

	v, err, _ := c.group.Do(flightKey(key, gen), func() (any, error) {
		t, err := load(ctx, userID)
		if err != nil {
			return nil, err
		}
		payload := nullTheme
		if t != nil {
			if payload, err = json.Marshal(t); err != nil {
				return t, nil
			}
		}
		if _, err := storeIfCurrent(ctx, c.client, key, gen, payload, c.ttl); err != nil {
			log.Warn("theme cache set error", zap.String("key", key), zap.Error(err))
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	t, _ := v.(*models.Theme)
	return t, nil
}

// Invalidate drops the cached active theme of a user.
func (c *ThemeCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := invalidate(ctx, c.client, ThemeKey(userID)); err != nil {
		logger.FromContext(ctx).Warn("theme cache invalidate error",
			zap.Stringer("user_id", userID), zap.Error(err))
	}
}
