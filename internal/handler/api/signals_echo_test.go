package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "FinSignal/internal/domain/models"
	"FinSignal/internal/usecase"
	xlogger "FinSignal/pkg/logger"
)

type stubHistory struct {
	series *models.Series
	err    error
	calls  []string
}

func (s *stubHistory) Resolve(_ context.Context, symbol, rng string) (*models.Series, error) {
	s.calls = append(s.calls, symbol+"|"+rng)
	return s.series, s.err
}

type stubSignals struct {
	all      []models.Signal
	bySymbol string
	limit    int
	err      error
}

func (s *stubSignals) Recent(_ context.Context, limit int) ([]models.Signal, error) {
	s.limit = limit
	return s.all, s.err
}

func (s *stubSignals) RecentBySymbol(_ context.Context, symbol string, limit int) ([]models.Signal, error) {
	s.bySymbol, s.limit = symbol, limit
	return s.all, s.err
}

type stubScanner struct {
	triggered int
}

func (s *stubScanner) Trigger() { s.triggered++ }

func (s *stubScanner) State() usecase.SchedulerState {
	return usecase.SchedulerState{Phase: usecase.PhaseScanning, Asset: "SPY"}
}

type stubStream struct{}

func (stubStream) ServeWS(http.ResponseWriter, *http.Request) error { return nil }
func (stubStream) Subscribers() int                                 { return 3 }

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, h *SignalsEchoHandler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func newHandler(hist *stubHistory, sigs *stubSignals, sc *stubScanner) *SignalsEchoHandler {
	return NewSignalsEchoHandler(xlogger.Nop(), hist, sigs, sc, stubStream{})
}

func TestHistory_DefaultsRangeAndFlagsSimulated(t *testing.T) {
	hist := &stubHistory{series: &models.Series{
		Symbol: "XYZ", Range: "1mo", Simulated: true,
		Points: []models.Point{{Time: 1, Value: decimal.NewFromInt(100)}},
	}}
	rec, env := do(t, newHandler(hist, &stubSignals{}, &stubScanner{}), http.MethodGet, "/api/history?symbol=XYZ")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"XYZ|1mo"}, hist.calls)
	assert.Equal(t, "true", rec.Header().Get("X-Data-Simulated"))

	var s models.Series
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.True(t, s.Simulated)
	require.Len(t, s.Points, 1)
}

func TestHistory_Validation(t *testing.T) {
	h := newHandler(&stubHistory{}, &stubSignals{}, &stubScanner{})

	rec, _ := do(t, h, http.MethodGet, "/api/history?range=1mo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/history?symbol=SPY&range=10y")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_ResolverErrors(t *testing.T) {
	hist := &stubHistory{err: fmt.Errorf("resolve: %w", models.ErrUnknownRange)}
	rec, _ := do(t, newHandler(hist, &stubSignals{}, &stubScanner{}), http.MethodGet, "/api/history?symbol=SPY&range=1d")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hist.err = errors.New("boom")
	rec, _ = do(t, newHandler(hist, &stubSignals{}, &stubScanner{}), http.MethodGet, "/api/history?symbol=SPY&range=1d")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSignals_BySymbolAndDefaultLimit(t *testing.T) {
	sigs := &stubSignals{all: []models.Signal{{ID: "b"}, {ID: "a"}}}
	h := newHandler(&stubHistory{}, sigs, &stubScanner{})

	rec, env := do(t, h, http.MethodGet, "/api/signals?symbol=BTC")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTC", sigs.bySymbol)
	assert.Equal(t, 50, sigs.limit)

	var got []models.Signal
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	rec, _ = do(t, h, http.MethodGet, "/api/signals?limit=1000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignals_EmptyIsArray(t *testing.T) {
	rec, env := do(t, newHandler(&stubHistory{}, &stubSignals{}, &stubScanner{}), http.MethodGet, "/api/signals?limit=5")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestSignals_StoreError(t *testing.T) {
	rec, _ := do(t, newHandler(&stubHistory{}, &stubSignals{err: errors.New("down")}, &stubScanner{}), http.MethodGet, "/api/signals")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScan_TriggersAndAccepts(t *testing.T) {
	sc := &stubScanner{}
	rec, env := do(t, newHandler(&stubHistory{}, &stubSignals{}, sc), http.MethodPost, "/api/scan")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, sc.triggered)

	var st usecase.SchedulerState
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, usecase.PhaseScanning, st.Phase)
}

func TestStatus(t *testing.T) {
	rec, env := do(t, newHandler(&stubHistory{}, &stubSignals{}, &stubScanner{}), http.MethodGet, "/api/status")
	assert.Equal(t, http.StatusOK, rec.Code)

	var st StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, 3, st.Subscribers)
	assert.Equal(t, "SPY", st.Scheduler.Asset)
}
