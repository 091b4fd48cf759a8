package features

import (
	"fmt"
	"math"

	"FinSignal/internal/domain/models"
)

// Summary is a compact technical view of a price series.
type Summary struct {
	Last       float64
	ChangePct  float64 // first to last, percent
	Volatility float64 // stdev of log returns, percent per bar
	Bars       int
	Simulated  bool
}

// ComputeLogReturns computes log returns r_t = ln(V_t / V_{t-1}).
// It returns a slice of length len(points)-1, or nil if insufficient data.
func ComputeLogReturns(points []models.Point) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, _ := points[i-1].Value.Float64()
		cur, _ := points[i].Value.Float64()
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// Volatility returns the sample standard deviation of the returns.
func Volatility(returns []float64) float64 {
	n := float64(len(returns))
	if n < 2 {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, r := range returns {
		sum += r
		sum2 += r * r
	}
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Summarize reduces a series to its summary. ok is false for an empty series.
func Summarize(s *models.Series) (Summary, bool) {
	if s == nil || len(s.Points) == 0 {
		return Summary{}, false
	}
	first, _ := s.Points[0].Value.Float64()
	last, _ := s.Points[len(s.Points)-1].Value.Float64()
	out := Summary{
		Last:       last,
		Volatility: Volatility(ComputeLogReturns(s.Points)) * 100,
		Bars:       len(s.Points),
		Simulated:  s.Simulated,
	}
	if first > 0 {
		out.ChangePct = (last - first) / first * 100
	}
	return out, true
}

// TechnicalHeadline renders the heartbeat text submitted for a technical check.
func TechnicalHeadline(symbol, rng string, sum Summary, ok bool) string {
	if !ok {
		return fmt.Sprintf("Technical check: %s (no price history)", symbol)
	}
	return fmt.Sprintf("Technical check: %s last %.2f, %+.2f%% over %s, volatility %.2f%% per bar",
		symbol, sum.Last, sum.ChangePct, rng, sum.Volatility)
}
