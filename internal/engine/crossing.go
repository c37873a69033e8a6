package engine

import (
	"fmt"
	"math"
	"time"

	"vwapscan/internal/model"
)

// Direction of a crossing relative to the reference line.
type Direction string

const (
	CrossUp   Direction = "up"   // at-or-below -> above
	CrossDown Direction = "down" // above -> at-or-below
)

// Crossing is a sign change of close-reference between Index-1 and Index.
// Time is set only when the crossing was derived from a Series.
type Crossing struct {
	Index     int
	Direction Direction
	Time      time.Time
}

// above reports whether v sits strictly above ref. Equality counts as at-or-below.
func above(v, ref float64) bool {
	return v-ref > 0
}

// DetectCrossings scans closes against an aligned reference and reports every index i >= 1 where
// the close moved from at-or-below to above the reference or back. NaN reference values are
// undefined points: no crossing is reported into or out of them.
func DetectCrossings(closes, reference []float64) ([]Crossing, error) {
	if len(closes) != len(reference) {
		return nil, fmt.Errorf("detect crossings: %d closes vs %d reference: %w", len(closes), len(reference), ErrLengthMismatch)
	}
	crossings := []Crossing{}
	for i := 1; i < len(closes); i++ {
		if math.IsNaN(reference[i]) || math.IsNaN(reference[i-1]) {
			continue
		}
		prev := above(closes[i-1], reference[i-1])
		cur := above(closes[i], reference[i])
		if prev == cur {
			continue
		}
		dir := CrossDown
		if cur {
			dir = CrossUp
		}
		crossings = append(crossings, Crossing{Index: i, Direction: dir})
	}
	return crossings, nil
}

// DetectSeriesCrossings computes the VWAP from anchorIndex and returns the crossings of the close
// against it. Indices are relative to the full series; Time is filled in.
func DetectSeriesCrossings(series model.Series, anchorIndex int, mode PriceMode) ([]Crossing, []VWAPPoint, error) {
	points, err := ComputeVWAP(series, anchorIndex, mode)
	if points == nil {
		return nil, nil, err
	}
	crossings, cerr := DetectCrossings(series.Closes(anchorIndex), Values(points))
	if cerr != nil {
		return nil, points, cerr
	}
	for i := range crossings {
		crossings[i].Index += anchorIndex
		crossings[i].Time = series.Bars[crossings[i].Index].Time()
	}
	return crossings, points, err
}

// MostRecentCrossing returns the latest crossing whose timestamp is at most withinDays calendar
// days before last. Crossings must carry Time.
func MostRecentCrossing(crossings []Crossing, last time.Time, withinDays int) (Crossing, bool) {
	lastDay := truncateDay(last)
	var best Crossing
	found := false
	for _, c := range crossings {
		days := int(lastDay.Sub(truncateDay(c.Time)).Hours() / 24)
		if days < 0 || days > withinDays {
			continue
		}
		if !found || c.Time.After(best.Time) {
			best = c
			found = true
		}
	}
	return best, found
}
