package finnhub

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
	xhttp "FinSignal/pkg/http"
)

func testWindow(t *testing.T) repository.Window {
	t.Helper()
	w, err := repository.WindowFor(repository.Range5D, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return w
}

func TestFetchSeries_ParsesCandles(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/candle", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"symbol":     q.Get("symbol"),
			"resolution": q.Get("resolution"),
			"token":      q.Get("token"),
		}
		_, _ = w.Write([]byte(`{"c":[101.5,102.25],"t":[1718000000,1718003600],"s":"ok"}`))
	}))
	defer srv.Close()

	c := New(xhttp.NewClient(xhttp.WithTimeout(time.Second)), srv.URL, "secret")
	asset := models.AssetConfig{Symbol: "NVDA", VendorTickers: map[models.VendorName]string{models.VendorFinnhub: "NVDA.US"}}

	pts, err := c.FetchSeries(context.Background(), asset, testWindow(t))
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, int64(1718000000), pts[0].Time)
	assert.Equal(t, "102.25", pts[1].Value.String())
	assert.Equal(t, map[string]string{"symbol": "NVDA.US", "resolution": "60", "token": "secret"}, gotQuery)
}

func TestFetchSeries_NoDataIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer srv.Close()

	c := New(xhttp.NewClient(), srv.URL, "k")
	pts, err := c.FetchSeries(context.Background(), models.AssetConfig{Symbol: "XYZ"}, testWindow(t))
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestFetchSeries_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(xhttp.NewClient(), srv.URL, "k").FetchSeries(context.Background(), models.AssetConfig{Symbol: "SPY"}, testWindow(t))
	var se *xhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)

	_, err = New(xhttp.NewClient(), srv.URL, "").FetchSeries(context.Background(), models.AssetConfig{Symbol: "SPY"}, testWindow(t))
	assert.Error(t, err)
}
