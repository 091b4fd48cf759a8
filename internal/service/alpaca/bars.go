package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	dservice "FinSignal/internal/domain/service"
)

// Client reads historical bars from Alpaca market data. Tickers containing
// a slash (BTC/USD) are fetched from the crypto endpoint.
type Client struct {
	md         *marketdata.Client
	feed       string
	configured bool
}

var _ dservice.SeriesVendor = (*Client)(nil)

// New creates an Alpaca bars client.
func New(apiKey, apiSecret, baseURL, feed string, timeout time.Duration) *Client {
	opts := marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &Client{
		md:         marketdata.NewClient(opts),
		feed:       feed,
		configured: apiKey != "" && apiSecret != "",
	}
}

func (c *Client) Name() models.VendorName { return models.VendorAlpaca }

// FetchSeries returns bar closes for the window, oldest first.
func (c *Client) FetchSeries(ctx context.Context, asset models.AssetConfig, w repository.Window) ([]models.Point, error) {
	if !c.configured {
		return nil, fmt.Errorf("alpaca: credentials not configured")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	ticker := asset.TickerOrSymbol(models.VendorAlpaca)
	tf := timeFrame(w.Resolution)

	if strings.Contains(ticker, "/") {
		bars, err := c.md.GetCryptoBars(ticker, marketdata.GetCryptoBarsRequest{
			TimeFrame: tf,
			Start:     w.Start,
			End:       w.End,
		})
		if err != nil {
			return nil, fmt.Errorf("alpaca crypto bars %s: %w", ticker, err)
		}
		points := make([]models.Point, 0, len(bars))
		for _, b := range bars {
			points = append(points, models.Point{Time: b.Timestamp.Unix(), Value: decimal.NewFromFloat(b.Close)})
		}
		return points, nil
	}

	bars, err := c.md.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     w.Start,
		End:       w.End,
		Feed:      marketdata.Feed(c.feed),
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", ticker, err)
	}
	points := make([]models.Point, 0, len(bars))
	for _, b := range bars {
		points = append(points, models.Point{Time: b.Timestamp.Unix(), Value: decimal.NewFromFloat(b.Close)})
	}
	return points, nil
}

func timeFrame(r repository.Resolution) marketdata.TimeFrame {
	switch r {
	case repository.Res15Min:
		return marketdata.NewTimeFrame(15, marketdata.Min)
	case repository.Res1Hour:
		return marketdata.OneHour
	case repository.Res1Week:
		return marketdata.NewTimeFrame(1, marketdata.Week)
	default:
		return marketdata.OneDay
	}
}
