package models

import "github.com/shopspring/decimal"

// VendorName identifies a market data vendor tier.
type VendorName string

const (
	VendorAlpaca  VendorName = "alpaca"
	VendorFinnhub VendorName = "finnhub"
	VendorBinance VendorName = "binance"
)

// AssetConfig describes one tracked instrument. Immutable after startup.
type AssetConfig struct {
	Symbol        string
	NewsFeedURL   string
	VendorTickers map[VendorName]string
	DefaultPrice  decimal.Decimal
}

// Ticker returns the vendor-specific identifier for the asset, if mapped.
func (a AssetConfig) Ticker(v VendorName) (string, bool) {
	t, ok := a.VendorTickers[v]
	if !ok || t == "" {
		return "", false
	}
	return t, true
}

// TickerOrSymbol returns the vendor identifier, falling back to the symbol.
func (a AssetConfig) TickerOrSymbol(v VendorName) string {
	if t, ok := a.Ticker(v); ok {
		return t
	}
	return a.Symbol
}
