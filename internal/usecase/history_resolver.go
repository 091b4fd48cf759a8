package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	svccache "FinSignal/internal/service/cache"
	applogger "FinSignal/pkg/logger"
)

// RateLimiter hands out per-key tokens.
type RateLimiter interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// SeriesSynthesizer produces the last-resort simulated series.
type SeriesSynthesizer interface {
	Series(symbol string, w drepo.Window, seed decimal.Decimal) *models.Series
}

// PriceStore is the live price map.
type PriceStore interface {
	Get(symbol string) (decimal.Decimal, bool)
	Set(symbol string, v decimal.Decimal)
}

// TierLimit is the token bucket applied to each vendor tier.
type TierLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// HistoryResolver serves price history from cache, vendor tiers in order,
// and finally the synthetic generator. It never returns an empty series for
// a valid range.
type HistoryResolver struct {
	cache   svccache.SeriesCache
	tiers   []domsvc.SeriesVendor
	limiter RateLimiter
	limit   TierLimit
	synth   SeriesSynthesizer
	assets  AssetResolver
	prices  PriceStore
	metrics drepo.Metrics
	l       *applogger.Logger
	now     func() time.Time

	group singleflight.Group
}

// ResolverOption configures HistoryResolver.
type ResolverOption func(*HistoryResolver)

// WithResolverClock overrides the clock used to compute query windows.
func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *HistoryResolver) { r.now = now }
}

// NewHistoryResolver creates a resolver. tiers are tried in the given order.
func NewHistoryResolver(
	cache svccache.SeriesCache,
	tiers []domsvc.SeriesVendor,
	limiter RateLimiter,
	limit TierLimit,
	synth SeriesSynthesizer,
	assets AssetResolver,
	prices PriceStore,
	metrics drepo.Metrics,
	l *applogger.Logger,
	opts ...ResolverOption,
) *HistoryResolver {
	r := &HistoryResolver{
		cache:   cache,
		tiers:   tiers,
		limiter: limiter,
		limit:   limit,
		synth:   synth,
		assets:  assets,
		prices:  prices,
		metrics: metrics,
		l:       l,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the series for (symbol, range). Concurrent misses for one
// key share a single resolution.
func (r *HistoryResolver) Resolve(ctx context.Context, symbol, rng string) (*models.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !drepo.IsValidRange(drepo.Range(rng)) {
		return nil, fmt.Errorf("resolve history: %w: %q", models.ErrUnknownRange, rng)
	}

	if s, ok := r.cache.Get(ctx, symbol, rng); ok {
		r.metrics.RecordVendor("cache", "hit")
		return s, nil
	}
	r.metrics.RecordVendor("cache", "miss")

	// The flight is shared by every coalesced caller and outlives any one of them.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := r.group.Do(svccache.Key(symbol, rng), func() (interface{}, error) {
		// A concurrent flight may have filled the cache while we waited.
		if s, ok := r.cache.Get(flightCtx, symbol, rng); ok {
			return s, nil
		}
		return r.produce(flightCtx, symbol, drepo.Range(rng))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.l.Debug("history request coalesced",
			applogger.String("symbol", symbol),
			applogger.String("range", rng),
		)
	}
	return v.(*models.Series), nil
}

func (r *HistoryResolver) produce(ctx context.Context, symbol string, rng drepo.Range) (*models.Series, error) {
	start := time.Now()
	defer func() { r.metrics.RecordLatency("resolve_history", time.Since(start).Seconds()) }()

	w, err := drepo.WindowFor(rng, r.now())
	if err != nil {
		return nil, err
	}
	asset := r.assets.Resolve(symbol)

	series := r.fromTiers(ctx, asset, w)
	if series == nil {
		seed, ok := r.prices.Get(asset.Symbol)
		if !ok {
			seed = asset.DefaultPrice
		}
		series = r.synth.Series(asset.Symbol, w, seed)
		r.metrics.RecordVendor("synthetic", "ok")
		r.l.Info("serving simulated history",
			applogger.String("symbol", asset.Symbol),
			applogger.String("range", string(rng)),
		)
	}
	series.Range = string(rng)

	r.cache.Put(ctx, series)
	if last, ok := series.Last(); ok {
		r.prices.Set(asset.Symbol, last.Value)
		f, _ := last.Value.Float64()
		r.metrics.RecordLastPrice(asset.Symbol, f)
	}
	return series, nil
}

// fromTiers walks the vendor chain. Every failure is soft; nil means all tiers
// were exhausted.
func (r *HistoryResolver) fromTiers(ctx context.Context, asset models.AssetConfig, w drepo.Window) *models.Series {
	for _, tier := range r.tiers {
		name := string(tier.Name())
		if !r.limiter.Allow(name, r.limit.Capacity, r.limit.RefillPerSec) {
			r.metrics.RecordVendor(name, "limited")
			r.l.Debug("vendor tier rate limited",
				applogger.String("vendor", name),
				applogger.String("symbol", asset.Symbol),
			)
			continue
		}

		points, err := tier.FetchSeries(ctx, asset, w)
		if err != nil {
			r.metrics.RecordVendor(name, "error")
			r.l.Warn("vendor tier failed",
				applogger.String("vendor", name),
				applogger.String("symbol", asset.Symbol),
				applogger.Error(fmt.Errorf("%w: %w", models.ErrVendorUnavailable, err)),
			)
			continue
		}
		if len(points) == 0 {
			r.metrics.RecordVendor(name, "empty")
			continue
		}

		r.metrics.RecordVendor(name, "ok")
		sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })
		return &models.Series{
			Symbol: asset.Symbol,
			Source: name,
			Points: points,
		}
	}
	return nil
}
