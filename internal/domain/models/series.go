package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Point is one sample of a price series.
type Point struct {
	Time  int64           `json:"time"` // epoch seconds
	Value decimal.Decimal `json:"value"`
}

// Series is a time-ordered price history for (symbol, range).
type Series struct {
	Symbol    string  `json:"symbol"`
	Range     string  `json:"range"`
	Source    string  `json:"source"`
	Simulated bool    `json:"simulated"`
	Points    []Point `json:"points"`
}

// Last returns the final point of the series.
func (s *Series) Last() (Point, bool) {
	if s == nil || len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// CacheEntry is a cached series together with its write time.
type CacheEntry struct {
	Key       string    `json:"key"`
	Series    *Series   `json:"series"`
	WrittenAt time.Time `json:"written_at"`
}

// Fresh reports whether the entry is still valid at now for the given ttl.
func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	if e == nil || e.Series == nil {
		return false
	}
	return now.Sub(e.WrittenAt) < ttl
}

// PriceTick is a live price update for one symbol.
type PriceTick struct {
	Symbol string          `json:"symbol"`
	Value  decimal.Decimal `json:"value"`
	Time   int64           `json:"time"`
}
