package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
)

type stubNews struct {
	items map[string]*models.NewsItem
	errs  map[string]error
}

func (n *stubNews) Latest(_ context.Context, url string) (*models.NewsItem, error) {
	if err := n.errs[url]; err != nil {
		return nil, err
	}
	return n.items[url], nil
}

type recordingProcessor struct {
	mu         sync.Mutex
	candidates []models.Candidate
	err        error
	created    bool
}

func (p *recordingProcessor) Process(_ context.Context, c models.Candidate) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candidates = append(p.candidates, c)
	return p.created, p.err
}

func (p *recordingProcessor) seen() []models.Candidate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Candidate(nil), p.candidates...)
}

type stubHistory struct {
	series *models.Series
	err    error
}

func (h stubHistory) Resolve(context.Context, string, string) (*models.Series, error) {
	return h.series, h.err
}

func newScheduler(news *stubNews, proc *recordingProcessor, hist HistoryProvider) *ScanScheduler {
	return NewScanScheduler(context.Background(), testRegistry(), news, proc, hist, metrics.Nop{}, logger.Nop(), 0, 0)
}

func TestRunPass_NewsThenHeartbeatPerAsset(t *testing.T) {
	news := &stubNews{items: map[string]*models.NewsItem{
		"https://feeds.example/spy": {Title: "SPY rallies"},
	}}
	proc := &recordingProcessor{created: true}
	s := newScheduler(news, proc, nil)

	rep := s.RunPass(context.Background())

	got := proc.seen()
	require.Len(t, got, 3)
	assert.Equal(t, models.Candidate{Symbol: "SPY", Headline: "SPY rallies"}, got[0])
	assert.True(t, got[1].IsTechnicalCheck)
	assert.Equal(t, "SPY", got[1].Symbol)
	assert.True(t, got[2].IsTechnicalCheck)
	assert.Equal(t, "BTC", got[2].Symbol)
	assert.Equal(t, models.ModeTechnicalOnly, got[2].Mode())

	assert.Equal(t, 2, rep.AssetsVisited)
	assert.Equal(t, 1, rep.NewsCandidates)
	assert.Equal(t, 3, rep.SignalsCreated)
	assert.Zero(t, rep.FeedFailures)
	assert.False(t, rep.Manual)
}

func TestRunPass_FeedFailureStillSubmitsHeartbeat(t *testing.T) {
	news := &stubNews{errs: map[string]error{
		"https://feeds.example/spy": fmt.Errorf("fetch: %w", models.ErrFeedUnavailable),
		"https://feeds.example/btc": fmt.Errorf("fetch: %w", models.ErrFeedUnavailable),
	}}
	proc := &recordingProcessor{}
	s := newScheduler(news, proc, nil)

	rep := s.RunPass(context.Background())

	got := proc.seen()
	require.Len(t, got, 2)
	for _, c := range got {
		assert.True(t, c.IsTechnicalCheck)
	}
	assert.Equal(t, 2, rep.FeedFailures)
	assert.Zero(t, rep.NewsCandidates)
}

func TestRunPass_CountsAnalysisFailures(t *testing.T) {
	proc := &recordingProcessor{err: fmt.Errorf("analyze: %w", models.ErrAnalysisUnavailable)}
	s := newScheduler(&stubNews{}, proc, nil)

	rep := s.RunPass(context.Background())
	assert.Equal(t, 2, rep.AnalysisFailures)
	assert.Zero(t, rep.SignalsCreated)
}

func TestRunPass_HeartbeatCarriesPriceSummary(t *testing.T) {
	series := &models.Series{Symbol: "SPY", Points: pts(100, 105, 110)}
	proc := &recordingProcessor{}
	s := newScheduler(&stubNews{}, proc, stubHistory{series: series})

	s.RunPass(context.Background())

	hb := proc.seen()[0]
	assert.True(t, strings.HasPrefix(hb.Headline, "Technical check: SPY last 110.00"), hb.Headline)
	assert.Contains(t, hb.Headline, "+10.00%")
}

func TestRunPass_HistoryErrorStillSubmitsHeartbeat(t *testing.T) {
	proc := &recordingProcessor{}
	s := newScheduler(&stubNews{}, proc, stubHistory{err: errBoom})

	s.RunPass(context.Background())
	got := proc.seen()
	require.Len(t, got, 2)
	assert.Equal(t, "Technical check: SPY (no price history)", got[0].Headline)
}

func TestRunPass_StopsOnCancelledContext(t *testing.T) {
	proc := &recordingProcessor{}
	s := newScheduler(&stubNews{}, proc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := s.RunPass(ctx)
	assert.Zero(t, rep.AssetsVisited)
	assert.Empty(t, proc.seen())
}

func TestRun_LoopsUntilCancelled(t *testing.T) {
	proc := &recordingProcessor{}
	s := NewScanScheduler(context.Background(), testRegistry(), &stubNews{}, proc, nil, metrics.Nop{}, logger.Nop(), 0, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.State().Passes >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	st := s.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	require.NotNil(t, st.LastPass)
	assert.Zero(t, st.ActivePasses)
}

func TestTrigger_RunsExtraPass(t *testing.T) {
	proc := &recordingProcessor{}
	s := newScheduler(&stubNews{}, proc, nil)
	assert.Equal(t, PhaseIdle, s.State().Phase)

	s.Trigger()
	require.Eventually(t, func() bool { return s.State().Passes == 1 }, time.Second, time.Millisecond)

	st := s.State()
	require.NotNil(t, st.LastPass)
	assert.True(t, st.LastPass.Manual)
	assert.Len(t, proc.seen(), 2)
}

func TestTrigger_StopsWithRootContext(t *testing.T) {
	root, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &recordingProcessor{}
	s := NewScanScheduler(root, testRegistry(), &stubNews{}, proc, nil, metrics.Nop{}, logger.Nop(), 0, 0)

	s.Trigger()
	require.Eventually(t, func() bool { return s.State().Passes == 1 }, time.Second, time.Millisecond)

	st := s.State()
	require.NotNil(t, st.LastPass)
	assert.True(t, st.LastPass.Manual)
	assert.Zero(t, st.LastPass.AssetsVisited)
	assert.Empty(t, proc.seen())
}
