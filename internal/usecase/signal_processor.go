package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	applogger "FinSignal/pkg/logger"
)

// AssetResolver maps a symbol to its registry entry or an ad-hoc one.
type AssetResolver interface {
	Resolve(symbol string) models.AssetConfig
}

// PriceLookup reads the live price map.
type PriceLookup interface {
	GetOr(symbol string, def decimal.Decimal) decimal.Decimal
}

// SignalProcessor turns candidates into classified, persisted and broadcast signals.
type SignalProcessor struct {
	store   drepo.SignalStore
	gateway domsvc.AnalysisGateway
	assets  AssetResolver
	prices  PriceLookup
	out     drepo.Broadcaster
	metrics drepo.Metrics
	l       *applogger.Logger

	now   func() time.Time
	newID func() string
}

// ProcessorOption configures SignalProcessor.
type ProcessorOption func(*SignalProcessor)

// WithProcessorClock overrides the timestamp source.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *SignalProcessor) { p.now = now }
}

// NewSignalProcessor creates a new SignalProcessor instance.
func NewSignalProcessor(
	store drepo.SignalStore,
	gateway domsvc.AnalysisGateway,
	assets AssetResolver,
	prices PriceLookup,
	out drepo.Broadcaster,
	metrics drepo.Metrics,
	l *applogger.Logger,
	opts ...ProcessorOption,
) *SignalProcessor {
	p := &SignalProcessor{
		store:   store,
		gateway: gateway,
		assets:  assets,
		prices:  prices,
		out:     out,
		metrics: metrics,
		l:       l,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Classify buckets a confidence value. IGNORE is always noise.
func Classify(confidence float64, action models.Verdict) models.Status {
	switch {
	case action == models.VerdictIgnore:
		return models.StatusNoise
	case confidence >= models.ActiveThreshold:
		return models.StatusActive
	case confidence >= models.PassiveThreshold:
		return models.StatusPassive
	default:
		return models.StatusNoise
	}
}

// NormalizeSentiment maps an engine score on -10..10 into [-1, 1].
func NormalizeSentiment(x float64) float64 {
	return clamp(finiteOrZero(x)/10, -1, 1)
}

// NormalizeConfidence maps a confidence into [0, 1].
func NormalizeConfidence(x float64) float64 {
	return clamp(finiteOrZero(x), 0, 1)
}

// Process runs one candidate through dedup, analysis, classification,
// persistence and broadcast. It reports whether a signal was durably created.
func (p *SignalProcessor) Process(ctx context.Context, c models.Candidate) (bool, error) {
	start := time.Now()
	defer func() { p.metrics.RecordLatency("process_candidate", time.Since(start).Seconds()) }()

	if !c.IsTechnicalCheck {
		seen, err := p.store.ExistsByHeadline(ctx, c.Headline)
		if err != nil {
			p.metrics.RecordError("dedup")
			return false, fmt.Errorf("dedup lookup: %w", err)
		}
		if seen {
			p.l.Debug("headline already processed", applogger.String("symbol", c.Symbol))
			return false, nil
		}
	}

	analysis, err := p.gateway.Analyze(ctx, models.AnalysisRequest{
		Headline: c.Headline,
		Symbol:   c.Symbol,
		Mode:     c.Mode(),
	})
	if err != nil {
		p.metrics.RecordError("analysis")
		return false, fmt.Errorf("analyze %s: %w", c.Symbol, err)
	}

	sig := p.buildSignal(c, analysis)
	if sig.Status == models.StatusNoise && !c.IsTechnicalCheck {
		p.metrics.RecordSignal(sig.Symbol, sig.Status, false)
		p.l.Debug("noise suppressed",
			applogger.String("symbol", sig.Symbol),
			applogger.Float64("confidence", sig.Confidence),
		)
		return false, nil
	}

	if err := p.store.Save(ctx, &sig); err != nil {
		if errors.Is(err, models.ErrDuplicateSignal) {
			p.l.Debug("duplicate headline rejected by store", applogger.String("symbol", sig.Symbol))
			return false, nil
		}
		p.metrics.RecordError("persist")
		p.metrics.RecordSignal(sig.Symbol, sig.Status, false)
		p.l.Error("persist signal failed, broadcasting ephemeral copy",
			applogger.String("id", sig.ID),
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err),
		)
		sig.Ephemeral = true
		p.out.BroadcastSignal(sig)
		return false, fmt.Errorf("%w: %w", models.ErrPersistenceFailure, err)
	}

	p.metrics.RecordSignal(sig.Symbol, sig.Status, true)
	p.out.BroadcastSignal(sig)
	p.l.Info("signal created",
		applogger.String("id", sig.ID),
		applogger.String("symbol", sig.Symbol),
		applogger.String("status", string(sig.Status)),
		applogger.String("verdict", string(sig.Verdict)),
		applogger.Bool("technical", sig.IsTechnicalCheck),
	)
	return true, nil
}

func (p *SignalProcessor) buildSignal(c models.Candidate, a models.Analysis) models.Signal {
	asset := p.assets.Resolve(c.Symbol)
	price := p.prices.GetOr(asset.Symbol, asset.DefaultPrice)

	verdict := a.Action
	if !verdict.Valid() {
		verdict = models.VerdictWatch
	}
	confidence := NormalizeConfidence(a.Confidence)

	return models.Signal{
		ID:               p.newID(),
		Symbol:           asset.Symbol,
		Headline:         c.Headline,
		SentimentScore:   NormalizeSentiment(a.SentimentScore),
		Confidence:       confidence,
		Verdict:          verdict,
		Status:           Classify(confidence, verdict),
		RiskLevel:        a.RiskLevel,
		Reasoning:        a.Reasoning,
		EntryPrice:       price,
		IsTechnicalCheck: c.IsTechnicalCheck,
		Timestamp:        p.now().UTC(),
	}
}

func finiteOrZero(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
