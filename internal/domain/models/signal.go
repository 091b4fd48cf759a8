package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the directional recommendation returned by the analysis engine.
type Verdict string

const (
	VerdictBuy    Verdict = "BUY"
	VerdictSell   Verdict = "SELL"
	VerdictHold   Verdict = "HOLD"
	VerdictWatch  Verdict = "WATCH"
	VerdictLong   Verdict = "LONG"
	VerdictShort  Verdict = "SHORT"
	VerdictHedge  Verdict = "HEDGE"
	VerdictIgnore Verdict = "IGNORE"
)

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictBuy, VerdictSell, VerdictHold, VerdictWatch,
		VerdictLong, VerdictShort, VerdictHedge, VerdictIgnore:
		return true
	default:
		return false
	}
}

// Status is the confidence bucket a signal falls into.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusPassive Status = "PASSIVE"
	StatusNoise   Status = "NOISE"
)

// Confidence thresholds (half-open intervals).
const (
	PassiveThreshold = 0.30
	ActiveThreshold  = 0.60
)

// Signal is a classified trading signal. It is written once and never updated.
type Signal struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Headline         string          `json:"headline"`
	SentimentScore   float64         `json:"sentiment_score"` // [-1, 1]
	Confidence       float64         `json:"confidence"`      // [0, 1]
	Verdict          Verdict         `json:"verdict"`
	Status           Status          `json:"status"`
	RiskLevel        string          `json:"risk_level,omitempty"`
	Reasoning        string          `json:"reasoning"`
	EntryPrice       decimal.Decimal `json:"entry_price"`
	IsTechnicalCheck bool            `json:"is_technical_check"`
	Timestamp        time.Time       `json:"timestamp"`
	// Ephemeral marks a record that was broadcast but not durably saved.
	Ephemeral bool `json:"ephemeral,omitempty"`
}

// Candidate is a headline or heartbeat proposed for signal creation.
type Candidate struct {
	Symbol           string
	Headline         string
	IsTechnicalCheck bool
}

// AnalysisMode selects the prompt used by the analysis engine.
type AnalysisMode string

const (
	ModeStandard      AnalysisMode = "standard"
	ModeTechnicalOnly AnalysisMode = "technical_only"
)

// Mode returns the analysis mode matching the candidate kind.
func (c Candidate) Mode() AnalysisMode {
	if c.IsTechnicalCheck {
		return ModeTechnicalOnly
	}
	return ModeStandard
}

// AnalysisRequest is sent to the analysis engine.
type AnalysisRequest struct {
	Headline string       `json:"headline"`
	Symbol   string       `json:"symbol"`
	Mode     AnalysisMode `json:"mode"`
}

// Analysis is the normalized verdict of the analysis engine.
type Analysis struct {
	SentimentScore float64
	Confidence     float64
	Action         Verdict
	Reasoning      string
	RiskLevel      string
}

// NewsItem is a single headline pulled from an asset's feed.
type NewsItem struct {
	Title       string
	Link        string
	PublishedAt time.Time
}
