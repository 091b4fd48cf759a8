package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		DisableCORS     bool          `yaml:"disable_cors"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Backend struct {
		Type string `yaml:"type" default:"clickhouse"`
	} `yaml:"backend"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   struct {
		DSN            string        `yaml:"dsn"`
		MaxConns       int32         `yaml:"max_conns" default:"10"`
		MinConns       int32         `yaml:"min_conns" default:"1"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" default:"5s"`
	} `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Scanner  struct {
		Disabled    bool          `yaml:"disabled"`
		AssetDelay  time.Duration `yaml:"asset_delay" default:"4s"`
		CycleDelay  time.Duration `yaml:"cycle_delay" default:"10m"`
		FeedTimeout time.Duration `yaml:"feed_timeout" default:"10s"`
	} `yaml:"scanner"`
	Market    MarketConfig `yaml:"market"`
	Broadcast struct {
		HistorySize int `yaml:"history_size" default:"50"`
		RingSize    int `yaml:"ring_size" default:"200"`
		SendBuffer  int `yaml:"send_buffer" default:"64"`
	} `yaml:"broadcast"`
	Assets []AssetConfig `yaml:"assets"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"finsignal"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	SignalTopic  string   `yaml:"signal_topic" default:"finsignal.signals"`
	LogTopic     string   `yaml:"log_topic"`
	RequiredAcks int      `yaml:"required_acks" default:"1"`
	Compression  string   `yaml:"compression" default:"snappy"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"100ms"`
		BatchSize    int           `yaml:"batch_size" default:"50"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"finsignal"`
}

type AnalysisConfig struct {
	ServiceURL string        `yaml:"service_url" default:"http://localhost:5000"`
	Timeout    time.Duration `yaml:"timeout" default:"20s"`
}

type MarketConfig struct {
	Tiers          []string      `yaml:"tiers"`
	CacheTTL       time.Duration `yaml:"cache_ttl" default:"15m"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" default:"8s"`
	TickInterval   time.Duration `yaml:"tick_interval" default:"3s"`
	TickVolatility float64       `yaml:"tick_volatility" default:"0.0015"`
	FallbackPrice  float64       `yaml:"fallback_price" default:"100"`
	RateLimit      struct {
		Capacity     float64 `yaml:"capacity" default:"5"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.2"`
	} `yaml:"rate_limit"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
		Feed      string `yaml:"feed" default:"iex"`
	} `yaml:"alpaca"`
	Finnhub struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url" default:"https://finnhub.io/api/v1"`
	} `yaml:"finnhub"`
	Binance struct {
		Disabled bool   `yaml:"disabled"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"binance"`
}

// AssetConfig is the YAML form of a registry entry.
type AssetConfig struct {
	Symbol        string            `yaml:"symbol"`
	NewsFeedURL   string            `yaml:"news_feed_url"`
	VendorTickers map[string]string `yaml:"vendor_tickers"`
	DefaultPrice  float64           `yaml:"default_price"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if len(c.Market.Tiers) == 0 {
		c.Market.Tiers = []string{"alpaca", "finnhub", "binance"}
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ANALYSIS_SERVICE_URL"); v != "" {
		c.Analysis.ServiceURL = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Market.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		c.Market.Alpaca.APISecret = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Market.Finnhub.APIKey = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend.Type != "clickhouse" && c.Backend.Type != "postgres" {
		return fmt.Errorf("backend.type must be 'clickhouse' or 'postgres', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "postgres" && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required for postgres backend")
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("assets cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for i, a := range c.Assets {
		if a.Symbol == "" {
			return fmt.Errorf("assets[%d].symbol is required", i)
		}
		if _, dup := seen[a.Symbol]; dup {
			return fmt.Errorf("assets[%d]: duplicate symbol %s", i, a.Symbol)
		}
		seen[a.Symbol] = struct{}{}
		if a.DefaultPrice < 0 {
			return fmt.Errorf("assets[%d].default_price must be >= 0", i)
		}
	}
	for _, t := range c.Market.Tiers {
		switch t {
		case "alpaca", "finnhub", "binance":
		default:
			return fmt.Errorf("market.tiers: unknown vendor '%s'", t)
		}
	}
	if c.Market.CacheTTL <= 0 {
		return fmt.Errorf("market.cache_ttl must be positive")
	}
	return nil
}
