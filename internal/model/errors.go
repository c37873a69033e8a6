package model

import "errors"

// Data-availability errors returned by market-data providers. Both mean "skip this ticker".
var (
	ErrNoDataForTicker = errors.New("no data for ticker")
	ErrTransientFetch  = errors.New("transient fetch error")
)

// ErrInvalidSeries marks malformed input. It is a caller error, not a data-availability skip.
var ErrInvalidSeries = errors.New("invalid series")
