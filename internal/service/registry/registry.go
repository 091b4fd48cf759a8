package registry

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
)

// Registry is the static table of tracked assets, in configuration order.
type Registry struct {
	assets   []models.AssetConfig
	bySymbol map[string]int
	fallback decimal.Decimal
}

// New builds a registry. Symbols are matched case-insensitively.
func New(assets []models.AssetConfig, fallbackPrice decimal.Decimal) (*Registry, error) {
	r := &Registry{
		assets:   make([]models.AssetConfig, 0, len(assets)),
		bySymbol: make(map[string]int, len(assets)),
		fallback: fallbackPrice,
	}
	for _, a := range assets {
		a.Symbol = normalize(a.Symbol)
		if a.Symbol == "" {
			return nil, fmt.Errorf("registry: empty symbol")
		}
		if _, dup := r.bySymbol[a.Symbol]; dup {
			return nil, fmt.Errorf("registry: duplicate symbol %s", a.Symbol)
		}
		if !a.DefaultPrice.IsPositive() {
			a.DefaultPrice = fallbackPrice
		}
		r.bySymbol[a.Symbol] = len(r.assets)
		r.assets = append(r.assets, a)
	}
	return r, nil
}

// FromConfig converts the YAML asset table.
func FromConfig(cfg *config.Config) (*Registry, error) {
	assets := make([]models.AssetConfig, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		tickers := make(map[models.VendorName]string, len(a.VendorTickers))
		for k, v := range a.VendorTickers {
			tickers[models.VendorName(strings.ToLower(k))] = v
		}
		assets = append(assets, models.AssetConfig{
			Symbol:        a.Symbol,
			NewsFeedURL:   a.NewsFeedURL,
			VendorTickers: tickers,
			DefaultPrice:  decimal.NewFromFloat(a.DefaultPrice),
		})
	}
	return New(assets, decimal.NewFromFloat(cfg.Market.FallbackPrice))
}

// Assets returns the tracked assets in scan order.
func (r *Registry) Assets() []models.AssetConfig {
	out := make([]models.AssetConfig, len(r.assets))
	copy(out, r.assets)
	return out
}

// Lookup returns the configured asset for symbol.
func (r *Registry) Lookup(symbol string) (models.AssetConfig, bool) {
	i, ok := r.bySymbol[normalize(symbol)]
	if !ok {
		return models.AssetConfig{}, false
	}
	return r.assets[i], true
}

// Resolve returns the configured asset, or an ad-hoc one using the symbol as
// every vendor ticker and the fallback default price.
func (r *Registry) Resolve(symbol string) models.AssetConfig {
	if a, ok := r.Lookup(symbol); ok {
		return a
	}
	return models.AssetConfig{
		Symbol:       normalize(symbol),
		DefaultPrice: r.fallback,
	}
}

// FallbackPrice is the default price used for unknown symbols.
func (r *Registry) FallbackPrice() decimal.Decimal { return r.fallback }

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
