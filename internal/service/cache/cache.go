package cache

import (
	"context"

	"FinSignal/internal/domain/models"
)

// SeriesCache is the (symbol, range) -> series store consulted before any vendor.
type SeriesCache interface {
	Get(ctx context.Context, symbol, rng string) (*models.Series, bool)
	Put(ctx context.Context, s *models.Series)
}

// EntryStore is a shared second level that keeps whole entries with their write time.
type EntryStore interface {
	GetEntry(ctx context.Context, key string) (*models.CacheEntry, bool, error)
	SetEntry(ctx context.Context, e *models.CacheEntry) error
}

// Key builds the cache key for (symbol, range).
func Key(symbol, rng string) string {
	return symbol + "|" + rng
}
