package engine

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"vwapscan/internal/model"
)

// ReversalPolicy configures the VWAP reversal screen: a VWAP that has declined over the window,
// with the close holding above it for the last few bars on heavy volume.
type ReversalPolicy struct {
	DeclineFraction float64 // vwap[last] must be below vwap[first]*(1-DeclineFraction)
	ConfirmBars     int     // bars the close must hold above the VWAP
	VolumeMultiple  float64 // recent volume sum vs mean volume
}

// DefaultReversalPolicy returns a 5% decline, 2 confirming bars and 2x volume.
func DefaultReversalPolicy() ReversalPolicy {
	return ReversalPolicy{DeclineFraction: 0.05, ConfirmBars: 2, VolumeMultiple: 2}
}

// Reversal is the evaluation of the reversal screen.
type Reversal struct {
	VWAP           float64
	DeclinePercent float64
	VWAPDecline    bool
	VWAPCross      bool
	HighClose      bool
	BuyVolume      bool
	RecentVolume   float64
	Qualifies      bool
}

// ScreenReversal evaluates the reversal screen over the whole series using a close-price VWAP.
func ScreenReversal(series model.Series, policy ReversalPolicy) (Reversal, error) {
	if policy.ConfirmBars < 1 {
		return Reversal{}, fmt.Errorf("reversal %s: confirm bars %d: %w", series.Ticker, policy.ConfirmBars, ErrInvalidWindow)
	}
	n := len(series.Bars)
	if n < policy.ConfirmBars {
		return Reversal{}, fmt.Errorf("reversal %s: need %d bars, have %d: %w", series.Ticker, policy.ConfirmBars, n, ErrInsufficientData)
	}
	points, err := ComputeVWAP(series, 0, PriceClose)
	if err != nil {
		return Reversal{}, fmt.Errorf("reversal: %w", err)
	}
	first, last := points[0], points[n-1]
	if !last.Defined {
		return Reversal{}, fmt.Errorf("reversal %s: undefined vwap at last bar: %w", series.Ticker, ErrDivisionByZero)
	}

	r := Reversal{
		VWAP:           last.Value,
		DeclinePercent: (1 - last.Value/first.Value) * 100,
		VWAPDecline:    last.Value < first.Value*(1-policy.DeclineFraction),
		HighClose:      series.Last().Close > last.Value,
	}

	r.VWAPCross = true
	for i := n - policy.ConfirmBars; i < n; i++ {
		if !points[i].Defined || !above(series.Bars[i].Close, points[i].Value) {
			r.VWAPCross = false
			break
		}
	}

	volumes := series.Volumes(0)
	mean, err := stats.Mean(volumes)
	if err != nil {
		return Reversal{}, fmt.Errorf("reversal %s: mean volume: %w", series.Ticker, err)
	}
	recent, err := stats.Sum(volumes[n-policy.ConfirmBars:])
	if err != nil {
		return Reversal{}, fmt.Errorf("reversal %s: recent volume: %w", series.Ticker, err)
	}
	r.RecentVolume = recent
	r.BuyVolume = recent > mean*policy.VolumeMultiple

	r.Qualifies = r.VWAPDecline && r.VWAPCross && r.HighClose && r.BuyVolume
	return r, nil
}
