package cache

import (
	"context"

	"FinSignal/internal/domain/models"
	applogger "FinSignal/pkg/logger"
)

// LayeredCache is a two-level series cache (L1: TTLCache, L2: EntryStore).
// L1 decides freshness; an L2 hit is re-checked against the same TTL and
// promoted with its original write time.
type LayeredCache struct {
	l1 *TTLCache
	l2 EntryStore
	l  *applogger.Logger
}

var _ SeriesCache = (*LayeredCache)(nil)

func NewLayeredCache(l1 *TTLCache, l2 EntryStore, l *applogger.Logger) *LayeredCache {
	return &LayeredCache{l1: l1, l2: l2, l: l}
}

func (lc *LayeredCache) Get(ctx context.Context, symbol, rng string) (*models.Series, bool) {
	if s, ok := lc.l1.Get(ctx, symbol, rng); ok {
		return s, true
	}

	key := Key(symbol, rng)
	e, ok, err := lc.l2.GetEntry(ctx, key)
	if err != nil {
		lc.l.Warn("series cache l2 read failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	if !ok || !e.Fresh(lc.l1.now(), lc.l1.ttl) {
		return nil, false
	}
	e.Key = key
	lc.l1.store(e)
	return e.Series, true
}

func (lc *LayeredCache) Put(ctx context.Context, s *models.Series) {
	if s == nil {
		return
	}
	e := &models.CacheEntry{
		Key:       Key(s.Symbol, s.Range),
		Series:    s,
		WrittenAt: lc.l1.now(),
	}
	lc.l1.store(e)
	if err := lc.l2.SetEntry(ctx, e); err != nil {
		lc.l.Warn("series cache l2 write failed", applogger.String("key", e.Key), applogger.Error(err))
	}
}
