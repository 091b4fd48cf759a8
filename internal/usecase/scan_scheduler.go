package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/features"
	applogger "FinSignal/pkg/logger"
)

// Phase is the scheduler's position in its scan cycle.
type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseScanning Phase = "SCANNING"
	PhaseWaiting  Phase = "WAITING"
	PhaseSleeping Phase = "SLEEPING"
)

// heartbeatRange is the history window summarized into each heartbeat.
const heartbeatRange = "1mo"

// AssetLister yields the registry in its configured order.
type AssetLister interface {
	Assets() []models.AssetConfig
}

// CandidateProcessor classifies and persists one candidate.
type CandidateProcessor interface {
	Process(ctx context.Context, c models.Candidate) (bool, error)
}

// HistoryProvider resolves a price series for heartbeat summaries.
type HistoryProvider interface {
	Resolve(ctx context.Context, symbol, rng string) (*models.Series, error)
}

// PassReport summarizes one sweep over the registry.
type PassReport struct {
	Manual           bool      `json:"manual"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	AssetsVisited    int       `json:"assets_visited"`
	NewsCandidates   int       `json:"news_candidates"`
	SignalsCreated   int       `json:"signals_created"`
	FeedFailures     int       `json:"feed_failures"`
	AnalysisFailures int       `json:"analysis_failures"`
}

// SchedulerState is a read-only snapshot for the status endpoint.
type SchedulerState struct {
	Phase        Phase       `json:"phase"`
	Asset        string      `json:"asset,omitempty"`
	ActivePasses int32       `json:"active_passes"`
	Passes       int         `json:"passes"`
	LastPass     *PassReport `json:"last_pass,omitempty"`
}

// ScanScheduler walks the registry on a fixed cadence and submits news and
// heartbeat candidates for each asset.
type ScanScheduler struct {
	assets     AssetLister
	news       domsvc.NewsSource
	proc       CandidateProcessor
	history    HistoryProvider
	metrics    drepo.Metrics
	l          *applogger.Logger
	assetDelay time.Duration
	cycleDelay time.Duration

	// root bounds manual passes; it ends with the application.
	root   context.Context
	active atomic.Int32

	mu     sync.RWMutex
	phase  Phase
	asset  string
	passes int
	last   *PassReport
}

// NewScanScheduler creates a scheduler bound to the application context root.
// history may be nil, in which case heartbeats carry no price summary.
func NewScanScheduler(
	root context.Context,
	assets AssetLister,
	news domsvc.NewsSource,
	proc CandidateProcessor,
	history HistoryProvider,
	metrics drepo.Metrics,
	l *applogger.Logger,
	assetDelay, cycleDelay time.Duration,
) *ScanScheduler {
	return &ScanScheduler{
		assets:     assets,
		news:       news,
		proc:       proc,
		history:    history,
		metrics:    metrics,
		l:          l,
		assetDelay: assetDelay,
		cycleDelay: cycleDelay,
		root:       root,
		phase:      PhaseIdle,
	}
}

// Run loops until ctx is cancelled: pass, sleep, repeat.
func (s *ScanScheduler) Run(ctx context.Context) {
	s.l.Info("scan scheduler started",
		applogger.Int("assets", len(s.assets.Assets())),
		applogger.Duration("asset_delay", s.assetDelay),
		applogger.Duration("cycle_delay", s.cycleDelay),
	)
	for {
		s.RunPass(ctx)
		if ctx.Err() != nil {
			break
		}
		s.setPhase(PhaseSleeping, "")
		if !sleepCtx(ctx, s.cycleDelay) {
			break
		}
		s.setPhase(PhaseIdle, "")
	}
	s.setPhase(PhaseIdle, "")
	s.l.Info("scan scheduler stopped")
}

// Trigger starts an extra pass in its own goroutine. It may overlap with the
// scheduled loop and stops with the root context, even when Run never started.
func (s *ScanScheduler) Trigger() {
	go func() {
		rep := s.runPass(s.root, true)
		s.l.Info("manual scan finished", applogger.Any("report", rep))
	}()
}

// RunPass performs one sweep over the registry.
func (s *ScanScheduler) RunPass(ctx context.Context) PassReport {
	return s.runPass(ctx, false)
}

// State returns the current scheduler snapshot.
func (s *ScanScheduler) State() SchedulerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := SchedulerState{
		Phase:        s.phase,
		Asset:        s.asset,
		ActivePasses: s.active.Load(),
		Passes:       s.passes,
	}
	if s.last != nil {
		last := *s.last
		st.LastPass = &last
	}
	return st
}

func (s *ScanScheduler) runPass(ctx context.Context, manual bool) PassReport {
	s.active.Add(1)
	defer s.active.Add(-1)

	rep := PassReport{Manual: manual, StartedAt: time.Now()}
	assets := s.assets.Assets()
	for i, asset := range assets {
		if ctx.Err() != nil {
			break
		}
		s.setPhase(PhaseScanning, asset.Symbol)
		s.scanAsset(ctx, asset, &rep)
		rep.AssetsVisited++

		if i < len(assets)-1 {
			s.setPhase(PhaseWaiting, asset.Symbol)
			if !sleepCtx(ctx, s.assetDelay) {
				break
			}
		}
	}
	rep.FinishedAt = time.Now()
	s.metrics.RecordLatency("scan_pass", rep.FinishedAt.Sub(rep.StartedAt).Seconds())

	s.mu.Lock()
	s.passes++
	s.last = &rep
	s.mu.Unlock()

	s.l.Info("scan pass finished",
		applogger.Bool("manual", manual),
		applogger.Int("assets", rep.AssetsVisited),
		applogger.Int("news", rep.NewsCandidates),
		applogger.Int("created", rep.SignalsCreated),
		applogger.Int("feed_failures", rep.FeedFailures),
		applogger.Int("analysis_failures", rep.AnalysisFailures),
	)
	return rep
}

func (s *ScanScheduler) scanAsset(ctx context.Context, asset models.AssetConfig, rep *PassReport) {
	if asset.NewsFeedURL != "" {
		item, err := s.news.Latest(ctx, asset.NewsFeedURL)
		switch {
		case err != nil:
			rep.FeedFailures++
			s.metrics.RecordError("feed")
			s.l.Warn("news feed unavailable",
				applogger.String("symbol", asset.Symbol),
				applogger.Error(err),
			)
		case item != nil:
			rep.NewsCandidates++
			s.submit(ctx, models.Candidate{Symbol: asset.Symbol, Headline: item.Title}, rep)
		}
	}

	// Heartbeat goes out every pass, whatever happened to the feed.
	s.submit(ctx, models.Candidate{
		Symbol:           asset.Symbol,
		Headline:         s.heartbeatHeadline(ctx, asset.Symbol),
		IsTechnicalCheck: true,
	}, rep)
}

func (s *ScanScheduler) heartbeatHeadline(ctx context.Context, symbol string) string {
	if s.history == nil {
		return features.TechnicalHeadline(symbol, heartbeatRange, features.Summary{}, false)
	}
	series, err := s.history.Resolve(ctx, symbol, heartbeatRange)
	if err != nil {
		s.l.Warn("heartbeat history unavailable", applogger.String("symbol", symbol), applogger.Error(err))
		return features.TechnicalHeadline(symbol, heartbeatRange, features.Summary{}, false)
	}
	sum, ok := features.Summarize(series)
	return features.TechnicalHeadline(symbol, heartbeatRange, sum, ok)
}

func (s *ScanScheduler) submit(ctx context.Context, c models.Candidate, rep *PassReport) {
	created, err := s.proc.Process(ctx, c)
	if err != nil {
		if errors.Is(err, models.ErrAnalysisUnavailable) {
			rep.AnalysisFailures++
		}
		s.l.Warn("candidate discarded",
			applogger.String("symbol", c.Symbol),
			applogger.Bool("technical", c.IsTechnicalCheck),
			applogger.Error(err),
		)
	}
	if created {
		rep.SignalsCreated++
	}
}

func (s *ScanScheduler) setPhase(p Phase, asset string) {
	s.mu.Lock()
	s.phase, s.asset = p, asset
	s.mu.Unlock()
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
