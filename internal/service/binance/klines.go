package binance

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	dservice "FinSignal/internal/domain/service"
)

const maxKlines = 1000

// Client reads spot klines from Binance. Only assets with an explicit
// Binance ticker are queried.
type Client struct {
	spot *binance.Client
}

var _ dservice.SeriesVendor = (*Client)(nil)

// New creates a public (unauthenticated) klines client.
func New(baseURL string, timeout time.Duration) *Client {
	spot := binance.NewClient("", "")
	if baseURL != "" {
		spot.BaseURL = baseURL
	}
	spot.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{spot: spot}
}

func (c *Client) Name() models.VendorName { return models.VendorBinance }

// FetchSeries returns kline closes for the window, oldest first.
func (c *Client) FetchSeries(ctx context.Context, asset models.AssetConfig, w repository.Window) ([]models.Point, error) {
	ticker, ok := asset.Ticker(models.VendorBinance)
	if !ok {
		return nil, fmt.Errorf("binance: %s is not listed", asset.Symbol)
	}

	klines, err := c.spot.NewKlinesService().
		Symbol(ticker).
		Interval(interval(w.Resolution)).
		StartTime(w.Start.UnixMilli()).
		EndTime(w.End.UnixMilli()).
		Limit(maxKlines).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", ticker, err)
	}

	points := make([]models.Point, 0, len(klines))
	for _, k := range klines {
		v, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s: close %q: %w", ticker, k.Close, err)
		}
		points = append(points, models.Point{Time: k.OpenTime / 1000, Value: v})
	}
	return points, nil
}

func interval(r repository.Resolution) string {
	switch r {
	case repository.Res15Min:
		return "15m"
	case repository.Res1Hour:
		return "1h"
	case repository.Res1Week:
		return "1w"
	default:
		return "1d"
	}
}
