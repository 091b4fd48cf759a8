package util

import "time"

// AlignFromTo rounds the time range down to step boundaries (UTC). Aligned
// windows keep vendor bar requests stable across calls within one step.
func AlignFromTo(from, to time.Time, step time.Duration) (time.Time, time.Time) {
	if step <= 0 {
		step = time.Minute
	}
	return from.UTC().Truncate(step), to.UTC().Truncate(step)
}

// YearStart returns midnight UTC of January 1st of t's year.
func YearStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
}
