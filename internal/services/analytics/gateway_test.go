package analytics

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
)

func newGateway(t *testing.T, h http.HandlerFunc) *HTTPAnalysisGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPAnalysisGateway(NewHTTPServiceBase(srv.URL, time.Second))
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestAnalyze_SendsRequestAndParsesVerdict(t *testing.T) {
	var got models.AnalysisRequest
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"sentiment_score":7,"confidence":0.82,"action":"long","reasoning":"breakout","risk_level":"MEDIUM"}`))
	})

	a, err := g.Analyze(context.Background(), models.AnalysisRequest{Headline: "NVDA beats", Symbol: "NVDA", Mode: models.ModeStandard})
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisRequest{Headline: "NVDA beats", Symbol: "NVDA", Mode: models.ModeStandard}, got)
	assert.Equal(t, 7.0, a.SentimentScore)
	assert.Equal(t, 0.82, a.Confidence)
	assert.Equal(t, models.VerdictLong, a.Action)
	assert.Equal(t, "breakout", a.Reasoning)
	assert.Equal(t, "MEDIUM", a.RiskLevel)
}

func TestAnalyze_StringNumbers(t *testing.T) {
	g := newGateway(t, respond(`{"sentiment_score":"Infinity","confidence":"NaN","action":"WATCH"}`))

	a, err := g.Analyze(context.Background(), models.AnalysisRequest{Symbol: "SPY"})
	require.NoError(t, err)
	assert.True(t, math.IsInf(a.SentimentScore, 1))
	assert.True(t, math.IsNaN(a.Confidence))

	g = newGateway(t, respond(`{"confidence":"0.7"}`))
	a, err = g.Analyze(context.Background(), models.AnalysisRequest{Symbol: "SPY"})
	require.NoError(t, err)
	assert.Equal(t, 0.7, a.Confidence)
	assert.Equal(t, models.VerdictWatch, a.Action, "missing or unknown action falls back to WATCH")
}

func TestAnalyze_FailuresMapToUnavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"empty body":              respond(""),
		"malformed body":          respond(`{"confidence":`),
		"error field":             respond(`{"error":"rate limited"}`),
		"no action or confidence": respond(`{"reasoning":"?"}`),
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newGateway(t, h).Analyze(context.Background(), models.AnalysisRequest{Symbol: "SPY"})
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrAnalysisUnavailable)
		})
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewHTTPAnalysisGateway(NewHTTPServiceBase(srv.URL, 50*time.Millisecond))
	_, err := g.Analyze(context.Background(), models.AnalysisRequest{Symbol: "SPY"})
	assert.ErrorIs(t, err, models.ErrAnalysisUnavailable)
}

func TestAnalyze_Unconfigured(t *testing.T) {
	g := NewHTTPAnalysisGateway(NewHTTPServiceBase("", time.Second))
	_, err := g.Analyze(context.Background(), models.AnalysisRequest{Symbol: "SPY"})
	assert.ErrorIs(t, err, models.ErrAnalysisUnavailable)
}
