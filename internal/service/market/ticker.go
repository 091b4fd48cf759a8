package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

// AssetLister is the part of the registry the ticker needs.
type AssetLister interface {
	Assets() []models.AssetConfig
}

// PriceTicker perturbs every tracked asset's live price on a fixed interval
// and broadcasts the new value.
type PriceTicker struct {
	assets     AssetLister
	prices     *LivePrices
	out        repository.Broadcaster
	metrics    repository.Metrics
	l          *applogger.Logger
	interval   time.Duration
	volatility float64

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// TickerOption configures PriceTicker.
type TickerOption func(*PriceTicker)

// WithRand sets the random source.
func WithRand(r *rand.Rand) TickerOption {
	return func(t *PriceTicker) { t.rnd = r }
}

func NewPriceTicker(assets AssetLister, prices *LivePrices, out repository.Broadcaster, m repository.Metrics, l *applogger.Logger, interval time.Duration, volatility float64, opts ...TickerOption) *PriceTicker {
	t := &PriceTicker{
		assets:     assets,
		prices:     prices,
		out:        out,
		metrics:    m,
		l:          l,
		interval:   interval,
		volatility: volatility,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run ticks until ctx is cancelled.
func (t *PriceTicker) Run(ctx context.Context) {
	if t.interval <= 0 {
		return
	}
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	t.l.Info("price ticker started", applogger.Duration("interval", t.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.Tick()
		}
	}
}

// Tick performs one perturbation round over all assets.
func (t *PriceTicker) Tick() {
	ts := t.now().Unix()
	for _, a := range t.assets.Assets() {
		cur := t.prices.GetOr(a.Symbol, a.DefaultPrice)
		next := t.step(cur)
		t.prices.Set(a.Symbol, next)

		f, _ := next.Float64()
		t.metrics.RecordLastPrice(a.Symbol, f)
		t.out.BroadcastPrice(models.PriceTick{Symbol: a.Symbol, Value: next, Time: ts})
	}
}

// step applies a uniform move in [-volatility, +volatility]; prices never go
// non-positive.
func (t *PriceTicker) step(cur decimal.Decimal) decimal.Decimal {
	t.mu.Lock()
	move := (t.rnd.Float64()*2 - 1) * t.volatility
	t.mu.Unlock()

	next := cur.Mul(decimal.NewFromFloat(1 + move)).Round(4)
	if !next.IsPositive() {
		return cur
	}
	return next
}
