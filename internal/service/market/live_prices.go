package market

import (
	"sync"

	"github.com/shopspring/decimal"
)

// LivePrices is the symbol -> current value map shared by the resolver, the
// ticker and the classifier. Values are replaced whole.
type LivePrices struct {
	mu sync.RWMutex
	m  map[string]decimal.Decimal
}

func NewLivePrices() *LivePrices {
	return &LivePrices{m: make(map[string]decimal.Decimal)}
}

// Get returns the last known value for symbol.
func (p *LivePrices) Get(symbol string) (decimal.Decimal, bool) {
	p.mu.RLock()
	v, ok := p.m[symbol]
	p.mu.RUnlock()
	return v, ok
}

// GetOr returns the last known value or def.
func (p *LivePrices) GetOr(symbol string, def decimal.Decimal) decimal.Decimal {
	if v, ok := p.Get(symbol); ok {
		return v
	}
	return def
}

func (p *LivePrices) Set(symbol string, v decimal.Decimal) {
	p.mu.Lock()
	p.m[symbol] = v
	p.mu.Unlock()
}

// Snapshot returns a copy of all known prices.
func (p *LivePrices) Snapshot() map[string]decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(p.m))
	for k, v := range p.m {
		out[k] = v
	}
	return out
}
