package repository

import (
	"context"

	"FinSignal/internal/domain/models"
)

// SignalStore is the append-only signal table.
type SignalStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	ExistsByHeadline(ctx context.Context, headline string) (bool, error)
	Save(ctx context.Context, s *models.Signal) error
	// Recent returns the newest signals first.
	Recent(ctx context.Context, limit int) ([]models.Signal, error)
	RecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.Signal, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SignalPublisher mirrors signals onto an external bus.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, s *models.Signal) error
	Close() error
}

// Broadcaster delivers events to connected subscribers.
type Broadcaster interface {
	BroadcastSignal(s models.Signal)
	BroadcastPrice(t models.PriceTick)
}

type Metrics interface {
	RecordSignal(symbol string, status models.Status, persisted bool)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordVendor(vendor, result string)
}
