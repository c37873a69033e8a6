package engine

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"vwapscan/internal/model"
)

// DefaultMinPriceToReference lets a candidate qualify while still slightly below the reference line.
const DefaultMinPriceToReference = 0.98

// BreakoutPolicy holds the thresholds of the breakout rule.
type BreakoutPolicy struct {
	VolumeThreshold     float64 // e.g. 1.5 means last volume 50% above the window average
	MinPriceToReference float64
}

// DefaultBreakoutPolicy returns the thresholds used when none are configured.
func DefaultBreakoutPolicy() BreakoutPolicy {
	return BreakoutPolicy{VolumeThreshold: 1.5, MinPriceToReference: DefaultMinPriceToReference}
}

// Breakout is the evaluation of the breakout rule on the last bar.
type Breakout struct {
	AvgVolume             float64
	VolumeIncrease        float64
	PriceToReferenceRatio float64
	Qualifies             bool
}

// ClassifyBreakoutCandidate evaluates the last bar of series against reference, which must be
// aligned with the tail of the series (reference[len-1] belongs to the last bar).
func ClassifyBreakoutCandidate(series model.Series, reference []float64, lookbackWindow int, policy BreakoutPolicy) (Breakout, error) {
	if lookbackWindow < 1 {
		return Breakout{}, fmt.Errorf("breakout %s: window %d: %w", series.Ticker, lookbackWindow, ErrInvalidWindow)
	}
	n := len(series.Bars)
	if lookbackWindow > n {
		return Breakout{}, fmt.Errorf("breakout %s: window %d exceeds %d bars: %w", series.Ticker, lookbackWindow, n, ErrInsufficientData)
	}
	if len(reference) == 0 {
		return Breakout{}, fmt.Errorf("breakout %s: empty reference: %w", series.Ticker, ErrLengthMismatch)
	}

	avg, err := stats.Mean(series.Volumes(n - lookbackWindow))
	if err != nil {
		return Breakout{}, fmt.Errorf("breakout %s: mean volume: %w", series.Ticker, err)
	}
	if avg == 0 {
		return Breakout{}, fmt.Errorf("breakout %s: zero average volume: %w", series.Ticker, ErrDivisionByZero)
	}
	ref := reference[len(reference)-1]
	if math.IsNaN(ref) || ref == 0 {
		return Breakout{}, fmt.Errorf("breakout %s: undefined reference at last bar: %w", series.Ticker, ErrDivisionByZero)
	}

	last := series.Last()
	b := Breakout{
		AvgVolume:             avg,
		VolumeIncrease:        last.Volume / avg,
		PriceToReferenceRatio: last.Close / ref,
	}
	b.Qualifies = b.VolumeIncrease > policy.VolumeThreshold && b.PriceToReferenceRatio >= policy.MinPriceToReference
	return b, nil
}
