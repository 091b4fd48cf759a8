package service

import (
	"context"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
)

// AnalysisGateway classifies a headline or heartbeat through the remote engine.
type AnalysisGateway interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (models.Analysis, error)
}

// NewsSource returns the newest item of a feed; nil when the feed is empty.
type NewsSource interface {
	Latest(ctx context.Context, feedURL string) (*models.NewsItem, error)
}

// SeriesVendor is one tier of the market history fallback chain.
type SeriesVendor interface {
	Name() models.VendorName
	FetchSeries(ctx context.Context, asset models.AssetConfig, w repository.Window) ([]models.Point, error)
}
