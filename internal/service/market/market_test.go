package market

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
)

type staticAssets []models.AssetConfig

func (s staticAssets) Assets() []models.AssetConfig { return s }

type tickSink struct {
	mu    sync.Mutex
	ticks []models.PriceTick
}

func (s *tickSink) BroadcastSignal(models.Signal) {}

func (s *tickSink) BroadcastPrice(t models.PriceTick) {
	s.mu.Lock()
	s.ticks = append(s.ticks, t)
	s.mu.Unlock()
}

func TestLivePrices(t *testing.T) {
	p := NewLivePrices()
	_, ok := p.Get("SPY")
	assert.False(t, ok)
	assert.True(t, p.GetOr("SPY", decimal.NewFromInt(7)).Equal(decimal.NewFromInt(7)))

	p.Set("SPY", decimal.NewFromInt(500))
	v, ok := p.Get("SPY")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(500)))

	snap := p.Snapshot()
	p.Set("SPY", decimal.NewFromInt(1))
	assert.True(t, snap["SPY"].Equal(decimal.NewFromInt(500)), "snapshot is a copy")
}

func TestPriceTicker_TickSeedsFromDefaultAndStaysBounded(t *testing.T) {
	assets := staticAssets{
		{Symbol: "SPY", DefaultPrice: decimal.NewFromInt(500)},
		{Symbol: "BTC", DefaultPrice: decimal.NewFromInt(60000)},
	}
	prices := NewLivePrices()
	sink := &tickSink{}
	tk := NewPriceTicker(assets, prices, sink, metrics.Nop{}, logger.Nop(), time.Second, 0.01, WithRand(rand.New(rand.NewSource(7))))

	tk.Tick()

	require.Len(t, sink.ticks, 2)
	assert.Equal(t, "SPY", sink.ticks[0].Symbol)
	spy, ok := prices.Get("SPY")
	require.True(t, ok)
	assert.True(t, spy.Equal(sink.ticks[0].Value))
	assert.True(t, spy.GreaterThanOrEqual(decimal.NewFromInt(495)) && spy.LessThanOrEqual(decimal.NewFromInt(505)))

	// The next tick moves from the stored price, not the default.
	prices.Set("SPY", decimal.NewFromInt(10))
	tk.Tick()
	spy, _ = prices.Get("SPY")
	assert.True(t, spy.LessThanOrEqual(decimal.NewFromFloat(10.1)))
}

func TestPriceTicker_RunStopsOnCancel(t *testing.T) {
	sink := &tickSink{}
	tk := NewPriceTicker(staticAssets{{Symbol: "SPY", DefaultPrice: decimal.NewFromInt(1)}}, NewLivePrices(), sink, metrics.Nop{}, logger.Nop(), 5*time.Millisecond, 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.ticks) >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
}
