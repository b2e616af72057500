// cache.go provides an in-memory cache of rendered theme variables.
// Entries are keyed by theme ID and last update time, so any theme write
// produces a cache miss without explicit invalidation.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dndbuilder/internal/logger"
)

// maxVarsEntries bounds the cache; it is cleared when full.
const maxVarsEntries = 1024

// cacheKey uniquely identifies a theme version.
type cacheKey struct {
	id      uuid.UUID
	version int64
}

// varsCache is a concurrency-safe in-memory cache of theme CSS variables.
type varsCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]string
}

// newVarsCache creates an empty cache.
func newVarsCache() *varsCache {
	return &varsCache{entries: make(map[cacheKey]string)}
}

func keyFor(id uuid.UUID, updated time.Time) cacheKey {
	return cacheKey{id: id, version: updated.UnixNano()}
}

// get retrieves rendered variables. Reports false on a miss.
func (c *varsCache) get(k cacheKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[k]
	return v, ok
}

// put stores rendered variables, clearing the cache when it is full.
func (c *varsCache) put(k cacheKey, css string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxVarsEntries {
		c.entries = make(map[cacheKey]string)
		logger.L().Debug("theme variable cache reset")
	}
	c.entries[k] = css
	logger.L().Debug("theme variables cached", zap.Stringer("theme_id", k.id), zap.Int("size", len(c.entries)))
}

// invalidate removes all cached versions of a theme.
func (c *varsCache) invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.id == id {
			delete(c.entries, k)
		}
	}
}
