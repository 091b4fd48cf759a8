package di

import (
	"context"
	"fmt"
	"time"

	"FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/handler/api"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/service/alpaca"
	"FinSignal/internal/service/binance"
	"FinSignal/internal/service/broadcast"
	svccache "FinSignal/internal/service/cache"
	"FinSignal/internal/service/finnhub"
	"FinSignal/internal/service/market"
	"FinSignal/internal/service/news"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/service/registry"
	"FinSignal/internal/service/synthetic"
	"FinSignal/internal/services/analytics"
	"FinSignal/internal/usecase"
	pkgcache "FinSignal/pkg/cache"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	"FinSignal/pkg/postgres"
	"FinSignal/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideKafkaProducer creates a Kafka producer. It returns nil when no
// brokers are configured; the signal mirror and log shipping are then off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger creates the application logger. Warn and error events are
// aggregated and shipped to kafka.log_topic when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
			PublishTimeout: 5 * time.Second,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSignalPublisher creates the Kafka signal mirror, or nil when Kafka is off.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic)
}

// ProvideSignalStore opens the configured backend and ensures its schema.
func ProvideSignalStore(cfg *config.Config, l *applogger.Logger) (repository.SignalStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	switch cfg.Backend.Type {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN,
			postgres.WithMaxConns(cfg.Postgres.MaxConns, cfg.Postgres.MinConns),
			postgres.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		store := internalrepo.NewPostgresSignalStore(pool)
		if err := store.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		l.Info("signal store ready", applogger.String("backend", "postgres"))
		return store, pool.Close, nil
	default:
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := internalrepo.NewClickHouseSignalStore(client.DB(), l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		l.Info("signal store ready",
			applogger.String("backend", "clickhouse"),
			applogger.String("database", cfg.ClickHouse.Database),
		)
		return store, func() { _ = client.Close() }, nil
	}
}

// ProvideClickHouseClient creates a ClickHouse client and its database.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ch := cfg.ClickHouse
	bootstrap, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase("default"),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	err = bootstrap.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + ch.Database})
	_ = bootstrap.Close()
	if err != nil {
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRegistry builds the asset registry from config.
func ProvideRegistry(cfg *config.Config) (*registry.Registry, error) {
	return registry.FromConfig(cfg)
}

// ProvideLivePrices creates the shared live price map.
func ProvideLivePrices() *market.LivePrices {
	return market.NewLivePrices()
}

// ProvideSeriesCache creates the history cache, layered over Redis when enabled.
func ProvideSeriesCache(cfg *config.Config, l *applogger.Logger) (svccache.SeriesCache, func(), error) {
	l1 := svccache.NewTTLCache(cfg.Market.CacheTTL)
	if !cfg.Redis.Enabled {
		return l1, func() {}, nil
	}
	kv, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l2 := svccache.NewRedisStore(kv, cfg.Market.CacheTTL)
	return svccache.NewLayeredCache(l1, l2, l), func() { _ = kv.Close() }, nil
}

// ProvideVendorTiers builds the market data tiers in configured order.
func ProvideVendorTiers(cfg *config.Config) []domsvc.SeriesVendor {
	m := cfg.Market
	tiers := make([]domsvc.SeriesVendor, 0, len(m.Tiers))
	for _, name := range m.Tiers {
		switch name {
		case "alpaca":
			tiers = append(tiers, alpaca.New(m.Alpaca.APIKey, m.Alpaca.APISecret, m.Alpaca.BaseURL, m.Alpaca.Feed, m.HTTPTimeout))
		case "finnhub":
			client := xhttp.NewClient(xhttp.WithTimeout(m.HTTPTimeout))
			tiers = append(tiers, finnhub.New(client, m.Finnhub.BaseURL, m.Finnhub.APIKey))
		case "binance":
			if !m.Binance.Disabled {
				tiers = append(tiers, binance.New(m.Binance.BaseURL, m.HTTPTimeout))
			}
		}
	}
	return tiers
}

// ProvideHistoryResolver creates the tiered history resolver.
func ProvideHistoryResolver(
	cfg *config.Config,
	cache svccache.SeriesCache,
	tiers []domsvc.SeriesVendor,
	reg *registry.Registry,
	prices *market.LivePrices,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.HistoryResolver {
	limit := usecase.TierLimit{
		Capacity:     cfg.Market.RateLimit.Capacity,
		RefillPerSec: cfg.Market.RateLimit.RefillPerSec,
	}
	return usecase.NewHistoryResolver(cache, tiers, ratelimit.New(), limit, synthetic.New(nil), reg, prices, m, l)
}

// ProvideAnalysisGateway creates the analysis engine client.
func ProvideAnalysisGateway(cfg *config.Config) domsvc.AnalysisGateway {
	base := analytics.NewHTTPServiceBase(cfg.Analysis.ServiceURL, cfg.Analysis.Timeout)
	return analytics.NewHTTPAnalysisGateway(base)
}

// ProvideNewsSource creates the RSS/Atom reader.
func ProvideNewsSource(cfg *config.Config) domsvc.NewsSource {
	return news.NewFeedReader(cfg.Scanner.FeedTimeout)
}

// ProvideHub creates the broadcast hub. History dumps read from the store.
func ProvideHub(cfg *config.Config, store repository.SignalStore, mirror repository.SignalPublisher, m repository.Metrics, l *applogger.Logger) *broadcast.Hub {
	return broadcast.NewHub(broadcast.Config{
		HistorySize: cfg.Broadcast.HistorySize,
		RingSize:    cfg.Broadcast.RingSize,
		SendBuffer:  cfg.Broadcast.SendBuffer,
	}, store, mirror, m, l)
}

// ProvideSignalProcessor creates the classifier and persister.
func ProvideSignalProcessor(
	store repository.SignalStore,
	gw domsvc.AnalysisGateway,
	reg *registry.Registry,
	prices *market.LivePrices,
	hub *broadcast.Hub,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SignalProcessor {
	return usecase.NewSignalProcessor(store, gw, reg, prices, hub, m, l)
}

// ProvideScanScheduler creates the scan loop.
func ProvideScanScheduler(
	ctx context.Context,
	cfg *config.Config,
	reg *registry.Registry,
	src domsvc.NewsSource,
	proc *usecase.SignalProcessor,
	resolver *usecase.HistoryResolver,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ScanScheduler {
	return usecase.NewScanScheduler(ctx, reg, src, proc, resolver, m, l, cfg.Scanner.AssetDelay, cfg.Scanner.CycleDelay)
}

// ProvidePriceTicker creates the live price perturbation loop.
func ProvidePriceTicker(
	cfg *config.Config,
	reg *registry.Registry,
	prices *market.LivePrices,
	hub *broadcast.Hub,
	m repository.Metrics,
	l *applogger.Logger,
) *market.PriceTicker {
	return market.NewPriceTicker(reg, prices, hub, m, l, cfg.Market.TickInterval, cfg.Market.TickVolatility)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	resolver *usecase.HistoryResolver,
	store repository.SignalStore,
	scheduler *usecase.ScanScheduler,
	hub *broadcast.Hub,
) xhttp.Handler {
	return api.NewSignalsEchoHandler(l, resolver, store, scheduler, hub)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(!cfg.Server.DisableCORS),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	scheduler *usecase.ScanScheduler,
	ticker *market.PriceTicker,
	hub *broadcast.Hub,
	store repository.SignalStore,
) *server.App {
	return server.New(cfg, l, httpServer, scheduler, ticker, hub, store)
}
