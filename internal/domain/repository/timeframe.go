package repository

import (
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/util"
)

// Range is a client-facing history range such as "1mo".
type Range string

const (
	Range1D  Range = "1d"
	Range5D  Range = "5d"
	Range1M  Range = "1mo"
	Range3M  Range = "3mo"
	Range6M  Range = "6mo"
	Range1Y  Range = "1y"
	RangeYTD Range = "ytd"
)

// Resolution is the bar size a vendor is asked for.
type Resolution string

const (
	Res15Min Resolution = "15m"
	Res1Hour Resolution = "1h"
	Res1Day  Resolution = "1d"
	Res1Week Resolution = "1w"
)

// Duration returns the bar length.
func (r Resolution) Duration() time.Duration {
	switch r {
	case Res15Min:
		return 15 * time.Minute
	case Res1Hour:
		return time.Hour
	case Res1Week:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Window is the concrete query window a range maps to.
type Window struct {
	Range      Range
	Start      time.Time
	End        time.Time
	Resolution Resolution
}

// Steps returns how many bars of the window's resolution fit in it.
func (w Window) Steps() int {
	n := int(w.End.Sub(w.Start) / w.Resolution.Duration())
	if n < 1 {
		return 1
	}
	return n
}

// IsValidRange returns true if r is in the window table.
func IsValidRange(r Range) bool {
	switch r {
	case Range1D, Range5D, Range1M, Range3M, Range6M, Range1Y, RangeYTD:
		return true
	default:
		return false
	}
}

// DefaultRange returns the default range.
func DefaultRange() Range { return Range1M }

// NormalizeRange converts raw string to a valid range (or default).
func NormalizeRange(s string) Range {
	if s == "" {
		return DefaultRange()
	}
	r := Range(s)
	if IsValidRange(r) {
		return r
	}
	return DefaultRange()
}

// WindowFor resolves a range to its query window ending at now. The start is
// aligned to the resolution so vendors return whole bars.
func WindowFor(r Range, now time.Time) (Window, error) {
	now = now.UTC()
	w := Window{Range: r, End: now}
	switch r {
	case Range1D:
		w.Start, w.Resolution = now.AddDate(0, 0, -2), Res15Min
	case Range5D:
		w.Start, w.Resolution = now.AddDate(0, 0, -5), Res1Hour
	case Range1M:
		w.Start, w.Resolution = now.AddDate(0, -1, 0), Res1Day
	case Range3M:
		w.Start, w.Resolution = now.AddDate(0, -3, 0), Res1Day
	case Range6M:
		w.Start, w.Resolution = now.AddDate(0, -6, 0), Res1Day
	case Range1Y:
		w.Start, w.Resolution = now.AddDate(-1, 0, 0), Res1Week
	case RangeYTD:
		w.Start, w.Resolution = util.YearStart(now), Res1Day
	default:
		return Window{}, fmt.Errorf("%w: %q", models.ErrUnknownRange, string(r))
	}
	if r != RangeYTD {
		w.Start, _ = util.AlignFromTo(w.Start, w.End, w.Resolution.Duration())
	}
	return w, nil
}
