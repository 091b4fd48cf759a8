package cache

import (
	"context"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
)

// TTLCache is the process-local series cache. Entries are replaced whole and
// judged fresh against the TTL at read time.
type TTLCache struct {
	mu  sync.RWMutex
	m   map[string]*models.CacheEntry
	ttl time.Duration
	now func() time.Time
}

var _ SeriesCache = (*TTLCache)(nil)

// TTLOption configures TTLCache.
type TTLOption func(*TTLCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TTLOption {
	return func(c *TTLCache) {
		c.now = now
	}
}

func NewTTLCache(ttl time.Duration, opts ...TTLOption) *TTLCache {
	c := &TTLCache{
		m:   make(map[string]*models.CacheEntry),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TTLCache) Get(_ context.Context, symbol, rng string) (*models.Series, bool) {
	e, ok := c.entry(Key(symbol, rng))
	if !ok {
		return nil, false
	}
	return e.Series, true
}

func (c *TTLCache) Put(_ context.Context, s *models.Series) {
	if s == nil {
		return
	}
	c.store(&models.CacheEntry{
		Key:       Key(s.Symbol, s.Range),
		Series:    s,
		WrittenAt: c.now(),
	})
}

// entry returns the entry for key if it is still fresh. Stale entries are evicted.
func (c *TTLCache) entry(key string) (*models.CacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.Fresh(c.now(), c.ttl) {
		c.mu.Lock()
		if cur, still := c.m[key]; still && cur == e {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e, true
}

// store writes e as-is, keeping its original write time.
func (c *TTLCache) store(e *models.CacheEntry) {
	c.mu.Lock()
	c.m[e.Key] = e
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
