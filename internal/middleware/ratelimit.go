// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dndbuilder/internal/logger"
	"dndbuilder/internal/respond"
)

// HitCounter records one request for key and reports how many requests
// the key made in the current window and when the window frees up.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, retryAfter time.Duration, err error)
}

// RateLimiter limits requests per client IP. It counts in process memory
// by default; WithCounter moves the counts to a shared store.
type RateLimiter struct {
	counter HitCounter
	limit   int64
	window  time.Duration
	stop    func()
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithCounter replaces the in-memory counter.
func WithCounter(c HitCounter) RateLimiterOption {
	return func(rl *RateLimiter) { rl.counter = c }
}

// NewRateLimiter allows limit requests per window and client.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{limit: int64(limit), window: window, stop: func() {}}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.counter == nil {
		mem := newMemoryCounter(5 * time.Minute)
		rl.counter = mem
		rl.stop = mem.close
	}
	return rl
}

// Stop releases the background cleanup of the in-memory counter.
func (rl *RateLimiter) Stop() {
	rl.stop()
}

// Middleware rejects clients over the limit with 429 and a Retry-After
// header. Counter failures let the request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, retry, err := rl.counter.Hit(r.Context(), clientIP(r), rl.window)
		if err != nil {
			logger.FromContext(r.Context()).Warn("rate limit counter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if count > rl.limit {
			w.Header().Set("Retry-After", strconv.Itoa(ceilSeconds(retry)))
			respond.Status(w, http.StatusTooManyRequests, "Too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ceilSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	return max(s, 1)
}

// memoryCounter is a sliding-window counter for a single process.
type memoryCounter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
	done chan struct{}
	once sync.Once
}

func newMemoryCounter(sweep time.Duration) *memoryCounter {
	m := &memoryCounter{
		hits: make(map[string][]time.Time),
		now:  time.Now,
		done: make(chan struct{}),
	}
	go func() {
		ticker := time.NewTicker(sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.done:
				return
			}
		}
	}()
	return m
}

func (m *memoryCounter) close() {
	m.once.Do(func() { close(m.done) })
}

// Hit counts the request even when it is over the limit, so a client that
// keeps hammering stays blocked until it slows down.
func (m *memoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := prune(m.hits[key], now.Add(-window))
	recent = append(recent, now)
	m.hits[key] = recent
	return int64(len(recent)), recent[0].Add(window).Sub(now), nil
}

// sweep drops keys idle for an hour, longer than any configured window.
func (m *memoryCounter) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, ts := range m.hits {
		if len(ts) == 0 || !ts[len(ts)-1].After(now.Add(-time.Hour)) {
			delete(m.hits, key)
		}
	}
}

// prune keeps the timestamps after cutoff. ts is sorted.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// ValkeyCounter is a fixed-window counter shared by every API instance.
type ValkeyCounter struct {
	client *redis.Client
	prefix string
}

// NewValkeyCounter counts hits under keys starting with prefix.
func NewValkeyCounter(client *redis.Client, prefix string) *ValkeyCounter {
	return &ValkeyCounter{client: client, prefix: prefix}
}

// Hit increments the window counter and starts its expiry on first use.
func (v *ValkeyCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := v.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := v.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	retry := ttl.Val()
	if retry <= 0 {
		retry = window
	}
	return incr.Val(), retry, nil
}

// clientIP extracts the client's IP address. Proxy headers win over the
// socket address; the leftmost X-Forwarded-For entry is the client.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
