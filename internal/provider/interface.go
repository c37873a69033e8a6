package provider

import (
	"context"

	"vwapscan/internal/model"
)

// Re-exported so callers classify fetch failures without importing model.
var (
	ErrNoDataForTicker = model.ErrNoDataForTicker
	ErrTransientFetch  = model.ErrTransientFetch
)

// DataProvider is the abstraction used by the application when accessing a data source.
// FetchDailyBars returns an ascending daily series, ErrNoDataForTicker when the source has no
// bars for the ticker, or ErrTransientFetch for network and rate-limit failures.
type DataProvider interface {
	GetName() string
	FetchDailyBars(ctx context.Context, ticker string, w Window) (model.Series, error)
	Close() error
}
