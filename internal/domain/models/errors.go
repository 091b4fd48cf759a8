package models

import "errors"

var (
	// ErrAnalysisUnavailable covers an unreachable engine or an unusable body.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	// ErrVendorUnavailable is a soft, per-tier market data failure.
	ErrVendorUnavailable = errors.New("vendor unavailable")
	// ErrPersistenceFailure means a signal could not be written to the store.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrFeedUnavailable means an asset's news source could not be read.
	ErrFeedUnavailable = errors.New("feed unavailable")
	// ErrDuplicateSignal is returned by stores that enforce headline uniqueness.
	ErrDuplicateSignal = errors.New("duplicate signal")
	// ErrUnknownRange is returned for a history range outside the window table.
	ErrUnknownRange = errors.New("unknown range")
)
