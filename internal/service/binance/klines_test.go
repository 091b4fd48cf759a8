package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
)

func TestFetchSeries_ParsesKlines(t *testing.T) {
	var gotInterval, gotSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		gotSymbol = r.URL.Query().Get("symbol")
		gotInterval = r.URL.Query().Get("interval")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			[1718409600000,"66000.00","66500.00","65800.00","66250.50","120.5",1718413199999,"7950000.0",1500,"60.1","3970000.0","0"],
			[1718413200000,"66250.50","66400.00","66100.00","66300.00","98.2",1718416799999,"6510000.0",1200,"50.0","3315000.0","0"]
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	asset := models.AssetConfig{Symbol: "BTC", VendorTickers: map[models.VendorName]string{models.VendorBinance: "BTCUSDT"}}
	w, err := repository.WindowFor(repository.Range5D, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	pts, err := c.FetchSeries(context.Background(), asset, w)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, "BTCUSDT", gotSymbol)
	assert.Equal(t, "1h", gotInterval)
	assert.Equal(t, int64(1718409600), pts[0].Time)
	assert.Equal(t, "66250.5", pts[0].Value.String())
}

func TestFetchSeries_UnlistedAssetSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	w, err := repository.WindowFor(repository.Range1M, time.Now())
	require.NoError(t, err)
	_, err = New(srv.URL, time.Second).FetchSeries(context.Background(), models.AssetConfig{Symbol: "SPY"}, w)
	assert.Error(t, err)
	assert.False(t, called)
}
