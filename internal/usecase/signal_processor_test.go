package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/service/market"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
)

type processorFixture struct {
	store  *memStore
	gw     *stubGateway
	out    *recordingBroadcaster
	prices *market.LivePrices
	proc   *SignalProcessor
}

func newProcessorFixture(resp models.Analysis) *processorFixture {
	f := &processorFixture{
		store:  &memStore{},
		gw:     &stubGateway{resp: resp},
		out:    &recordingBroadcaster{},
		prices: market.NewLivePrices(),
	}
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	f.proc = NewSignalProcessor(f.store, f.gw, testRegistry(), f.prices, f.out, metrics.Nop{}, logger.Nop(),
		WithProcessorClock(func() time.Time { return now }))
	return f
}

func news(symbol, headline string) models.Candidate {
	return models.Candidate{Symbol: symbol, Headline: headline}
}

func heartbeat(symbol string) models.Candidate {
	return models.Candidate{Symbol: symbol, Headline: "Technical check: " + symbol, IsTechnicalCheck: true}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		conf float64
		want models.Status
	}{
		{0.10, models.StatusNoise},
		{0.2999, models.StatusNoise},
		{0.30, models.StatusPassive},
		{0.45, models.StatusPassive},
		{0.5999, models.StatusPassive},
		{0.60, models.StatusActive},
		{0.75, models.StatusActive},
		{1, models.StatusActive},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%.4f", tc.conf), func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.conf, models.VerdictLong))
		})
	}
	assert.Equal(t, models.StatusNoise, Classify(0.95, models.VerdictIgnore))
}

func TestNormalizeSentimentAndConfidence(t *testing.T) {
	assert.InDelta(t, 0.7, NormalizeSentiment(7), 1e-9)
	assert.InDelta(t, -0.35, NormalizeSentiment(-3.5), 1e-9)
	assert.InDelta(t, 0.05, NormalizeSentiment(0.5), 1e-9)
	assert.InDelta(t, 0.1, NormalizeSentiment(1), 1e-9)
	assert.InDelta(t, -0.1, NormalizeSentiment(-1), 1e-9)
	assert.InDelta(t, 0.15, NormalizeSentiment(1.5), 1e-9)
	assert.InDelta(t, -0.15, NormalizeSentiment(-1.5), 1e-9)
	assert.InDelta(t, 1.0, NormalizeSentiment(10), 1e-9)
	for x := -10.0; x < 10; x += 0.5 {
		assert.LessOrEqual(t, NormalizeSentiment(x), NormalizeSentiment(x+0.5))
	}
	assert.Equal(t, -1.0, NormalizeSentiment(-15))
	assert.Equal(t, 0.0, NormalizeSentiment(math.NaN()))
	assert.Equal(t, 0.0, NormalizeSentiment(math.Inf(1)))

	assert.Equal(t, 1.0, NormalizeConfidence(3))
	assert.Equal(t, 0.0, NormalizeConfidence(-0.2))
	assert.Equal(t, 0.0, NormalizeConfidence(math.NaN()))
}

func TestProcess_SameHeadlineTwicePersistsOnce(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.8, Action: models.VerdictLong, SentimentScore: 6})
	ctx := context.Background()

	created, err := f.proc.Process(ctx, news("SPY", "Fed holds rates"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.proc.Process(ctx, news("SPY", "Fed holds rates"))
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, 1, f.gw.callCount(), "duplicate must not reach the engine")
	assert.Len(t, f.out.sent(), 1)
}

func TestProcess_PersistsAndBroadcastsFullRecord(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.75, Action: models.VerdictShort, SentimentScore: -4, Reasoning: "weak guidance", RiskLevel: "HIGH"})
	f.prices.Set("SPY", decimal.RequireFromString("451.5"))

	created, err := f.proc.Process(context.Background(), news("spy", "Guidance cut"))
	require.NoError(t, err)
	require.True(t, created)

	sent := f.out.sent()
	require.Len(t, sent, 1)
	sig := sent[0]
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, "SPY", sig.Symbol)
	assert.Equal(t, models.StatusActive, sig.Status)
	assert.Equal(t, models.VerdictShort, sig.Verdict)
	assert.InDelta(t, -0.4, sig.SentimentScore, 1e-9)
	assert.True(t, sig.EntryPrice.Equal(decimal.RequireFromString("451.5")))
	assert.Equal(t, "HIGH", sig.RiskLevel)
	assert.False(t, sig.Ephemeral)
	assert.Equal(t, f.store.saved[0], sig)

	require.Len(t, f.gw.calls, 1)
	assert.Equal(t, models.ModeStandard, f.gw.calls[0].Mode)
}

func TestProcess_EntryPriceFallsBackToDefault(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.9, Action: models.VerdictLong})
	_, err := f.proc.Process(context.Background(), news("BTC", "ETF inflows"))
	require.NoError(t, err)
	assert.True(t, f.store.saved[0].EntryPrice.Equal(decimal.NewFromInt(60000)))

	_, err = f.proc.Process(context.Background(), news("XYZ", "unknown ticker news"))
	require.NoError(t, err)
	assert.True(t, f.store.saved[1].EntryPrice.Equal(decimal.NewFromInt(100)))
}

func TestProcess_HeartbeatNoiseIsPersistedAndBroadcast(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.05, Action: models.VerdictWatch})

	created, err := f.proc.Process(context.Background(), heartbeat("SPY"))
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, f.store.saved, 1)
	assert.Equal(t, models.StatusNoise, f.store.saved[0].Status)
	assert.True(t, f.store.saved[0].IsTechnicalCheck)
	require.Len(t, f.out.sent(), 1)
	assert.Equal(t, models.ModeTechnicalOnly, f.gw.calls[0].Mode)
}

func TestProcess_HeartbeatBypassesDedup(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.5, Action: models.VerdictHedge})
	for i := 0; i < 3; i++ {
		created, err := f.proc.Process(context.Background(), heartbeat("SPY"))
		require.NoError(t, err)
		assert.True(t, created)
	}
	assert.Equal(t, 3, f.store.count())
}

func TestProcess_NewsNoiseIsSuppressed(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.10, Action: models.VerdictLong})
	created, err := f.proc.Process(context.Background(), news("SPY", "minor"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, f.store.count())
	assert.Empty(t, f.out.sent())
}

func TestProcess_IgnoreIsNoise(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.95, Action: models.VerdictIgnore})
	created, err := f.proc.Process(context.Background(), news("SPY", "irrelevant"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, f.store.count())
}

func TestProcess_NaNConfidenceStoredAsZero(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: math.NaN(), SentimentScore: math.Inf(-1), Action: models.VerdictWatch})
	created, err := f.proc.Process(context.Background(), heartbeat("SPY"))
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, 0.0, f.store.saved[0].Confidence)
	assert.Equal(t, 0.0, f.store.saved[0].SentimentScore)
	assert.Equal(t, models.StatusNoise, f.store.saved[0].Status)
}

func TestProcess_UnknownVerdictBecomesWatch(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.7, Action: models.Verdict("MOON")})
	_, err := f.proc.Process(context.Background(), news("SPY", "h"))
	require.NoError(t, err)
	assert.Equal(t, models.VerdictWatch, f.store.saved[0].Verdict)
}

func TestProcess_StoreFailureBroadcastsEphemeral(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.7, Action: models.VerdictLong})
	f.store.saveErr = errBoom

	created, err := f.proc.Process(context.Background(), news("SPY", "h"))
	assert.False(t, created)
	assert.ErrorIs(t, err, models.ErrPersistenceFailure)
	assert.ErrorIs(t, err, errBoom)

	sent := f.out.sent()
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Ephemeral)
	assert.Equal(t, models.StatusActive, sent[0].Status)
}

func TestProcess_AnalysisUnavailableDiscards(t *testing.T) {
	f := newProcessorFixture(models.Analysis{})
	f.gw.err = fmt.Errorf("post: %w", models.ErrAnalysisUnavailable)

	created, err := f.proc.Process(context.Background(), news("SPY", "h"))
	assert.False(t, created)
	assert.True(t, errors.Is(err, models.ErrAnalysisUnavailable))
	assert.Zero(t, f.store.count())
	assert.Empty(t, f.out.sent())
}

func TestProcess_DedupLookupErrorDiscards(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.9, Action: models.VerdictLong})
	f.store.existsErr = errBoom

	created, err := f.proc.Process(context.Background(), news("SPY", "h"))
	assert.False(t, created)
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, f.gw.callCount())
}

func TestProcess_StoreDuplicateIsDiscard(t *testing.T) {
	f := newProcessorFixture(models.Analysis{Confidence: 0.9, Action: models.VerdictLong})
	// Another pass wrote the headline between the lookup and the insert.
	f.store.saveErr = fmt.Errorf("insert signal: %w", models.ErrDuplicateSignal)

	created, err := f.proc.Process(context.Background(), news("SPY", "race"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, f.out.sent())
}
