package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/service/registry"
)

type memStore struct {
	mu        sync.Mutex
	saved     []models.Signal
	saveErr   error
	existsErr error
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) ExistsByHeadline(_ context.Context, h string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	for _, sig := range s.saved {
		if sig.Headline == h && !sig.IsTechnicalCheck {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Save(_ context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, *sig)
	return nil
}

func (s *memStore) Recent(_ context.Context, limit int) ([]models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Signal, 0, limit)
	for i := len(s.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.saved[i])
	}
	return out, nil
}

func (s *memStore) RecentBySymbol(ctx context.Context, _ string, limit int) ([]models.Signal, error) {
	return s.Recent(ctx, limit)
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type stubGateway struct {
	mu    sync.Mutex
	resp  models.Analysis
	err   error
	calls []models.AnalysisRequest
}

func (g *stubGateway) Analyze(_ context.Context, req models.AnalysisRequest) (models.Analysis, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.resp, g.err
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	signals []models.Signal
	ticks   []models.PriceTick
}

func (b *recordingBroadcaster) BroadcastSignal(s models.Signal) {
	b.mu.Lock()
	b.signals = append(b.signals, s)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) BroadcastPrice(t models.PriceTick) {
	b.mu.Lock()
	b.ticks = append(b.ticks, t)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) sent() []models.Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Signal(nil), b.signals...)
}

var _ drepo.Broadcaster = (*recordingBroadcaster)(nil)

func testRegistry() *registry.Registry {
	r, err := registry.New([]models.AssetConfig{
		{Symbol: "SPY", NewsFeedURL: "https://feeds.example/spy", DefaultPrice: decimal.NewFromInt(450)},
		{Symbol: "BTC", NewsFeedURL: "https://feeds.example/btc", DefaultPrice: decimal.NewFromInt(60000),
			VendorTickers: map[models.VendorName]string{models.VendorBinance: "BTCUSDT"}},
	}, decimal.NewFromInt(100))
	if err != nil {
		panic(err)
	}
	return r
}

var errBoom = errors.New("boom")
