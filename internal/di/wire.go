//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"FinSignal/pkg/config"
	"FinSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,

		// Repositories
		ProvideSignalStore,
		ProvideSignalPublisher,

		// Market data
		ProvideRegistry,
		ProvideLivePrices,
		ProvideSeriesCache,
		ProvideVendorTiers,
		ProvideHistoryResolver,

		// Signal pipeline
		ProvideAnalysisGateway,
		ProvideNewsSource,
		ProvideHub,
		ProvideSignalProcessor,
		ProvideScanScheduler,
		ProvidePriceTicker,

		// Transport
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
