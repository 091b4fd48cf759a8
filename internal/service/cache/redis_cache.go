package cache

import (
	"context"
	"errors"
	"time"

	"FinSignal/internal/domain/models"
	pkgcache "FinSignal/pkg/cache"
)

// RedisStore keeps cache entries in the shared key-value cache as JSON.
type RedisStore struct {
	kv  pkgcache.Service
	ttl time.Duration
}

var _ EntryStore = (*RedisStore)(nil)

func NewRedisStore(kv pkgcache.Service, ttl time.Duration) *RedisStore {
	return &RedisStore{kv: kv, ttl: ttl}
}

func (r *RedisStore) GetEntry(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	var e models.CacheEntry
	if err := r.kv.Get(ctx, pkgcache.GenerateKeyWithParams("series", key), &e); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &e, true, nil
}

func (r *RedisStore) SetEntry(ctx context.Context, e *models.CacheEntry) error {
	return r.kv.Set(ctx, pkgcache.GenerateKeyWithParams("series", e.Key), e, r.ttl)
}
