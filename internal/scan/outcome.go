package scan

import (
	"context"
	"errors"

	"vwapscan/internal/engine"
	"vwapscan/internal/model"
)

// Status is the terminal state of one ticker in a batch.
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFiltered Status = "filtered" // computed, did not meet the screen
	StatusSkipped  Status = "skipped"  // expected condition, e.g. no data
	StatusFailed   Status = "failed"
)

// Kind classifies why a ticker was skipped or failed.
type Kind string

const (
	KindNone             Kind = ""
	KindNoData           Kind = "no_data"
	KindTransientFetch   Kind = "transient_fetch"
	KindInsufficientData Kind = "insufficient_data"
	KindDivisionByZero   Kind = "division_by_zero"
	KindAnchorOutOfRange Kind = "anchor_out_of_range"
	KindCancelled        Kind = "cancelled"
	KindError            Kind = "error"
)

// Outcome is the per-ticker result of a batch scan.
type Outcome struct {
	Ticker string     `json:"ticker"`
	Status Status     `json:"status"`
	Kind   Kind       `json:"kind,omitempty"`
	Reason string     `json:"reason,omitempty"`
	Row    *model.Row `json:"row,omitempty"`
}

// Classify maps an error from fetching or screening to a status and kind.
func Classify(err error) (Status, Kind) {
	switch {
	case err == nil:
		return StatusPassed, KindNone
	case errors.Is(err, model.ErrNoDataForTicker):
		return StatusSkipped, KindNoData
	case errors.Is(err, model.ErrTransientFetch):
		return StatusSkipped, KindTransientFetch
	case errors.Is(err, engine.ErrInsufficientData):
		return StatusSkipped, KindInsufficientData
	case errors.Is(err, engine.ErrDivisionByZero):
		return StatusSkipped, KindDivisionByZero
	case errors.Is(err, engine.ErrAnchorOutOfRange):
		return StatusSkipped, KindAnchorOutOfRange
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusSkipped, KindCancelled
	default:
		return StatusFailed, KindError
	}
}

func outcomeFor(ticker string, err error) Outcome {
	status, kind := Classify(err)
	return Outcome{Ticker: ticker, Status: status, Kind: kind, Reason: err.Error()}
}
