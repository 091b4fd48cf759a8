package finnhub

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	dservice "FinSignal/internal/domain/service"
	xhttp "FinSignal/pkg/http"
)

// Client fetches OHLC candles from the Finnhub REST API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

var _ dservice.SeriesVendor = (*Client)(nil)

// New creates a Finnhub candle client.
func New(httpClient *xhttp.Client, baseURL, apiKey string) *Client {
	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

func (c *Client) Name() models.VendorName { return models.VendorFinnhub }

type candleResponse struct {
	Close  []float64 `json:"c"`
	Time   []int64   `json:"t"`
	Status string    `json:"s"`
}

// FetchSeries returns close prices for the window, oldest first.
func (c *Client) FetchSeries(ctx context.Context, asset models.AssetConfig, w repository.Window) ([]models.Point, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("finnhub: api key not configured")
	}

	var resp candleResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {asset.TickerOrSymbol(models.VendorFinnhub)},
			"resolution": {resolution(w.Resolution)},
			"from":       {strconv.FormatInt(w.Start.Unix(), 10)},
			"to":         {strconv.FormatInt(w.End.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("finnhub candles: %w", err)
	}
	if resp.Status != "ok" {
		return nil, nil
	}
	if len(resp.Close) != len(resp.Time) {
		return nil, fmt.Errorf("finnhub candles: %d closes for %d timestamps", len(resp.Close), len(resp.Time))
	}

	points := make([]models.Point, 0, len(resp.Close))
	for i, v := range resp.Close {
		points = append(points, models.Point{Time: resp.Time[i], Value: decimal.NewFromFloat(v)})
	}
	return points, nil
}

func resolution(r repository.Resolution) string {
	switch r {
	case repository.Res15Min:
		return "15"
	case repository.Res1Hour:
		return "60"
	case repository.Res1Week:
		return "W"
	default:
		return "D"
	}
}
