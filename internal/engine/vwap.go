package engine

import (
	"fmt"
	"strings"
	"time"

	"vwapscan/internal/model"
)

// PriceMode selects the representative price of a bar.
type PriceMode string

const (
	PriceClose   PriceMode = "close"
	PriceTypical PriceMode = "typical" // (high+low+close)/3
)

// ParsePriceMode converts a user string to a PriceMode. Empty means close.
func ParsePriceMode(s string) (PriceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "close":
		return PriceClose, nil
	case "typical", "hlc3":
		return PriceTypical, nil
	default:
		return "", fmt.Errorf("unknown price mode %q (use: close, typical)", s)
	}
}

func (m PriceMode) price(b model.Bar) float64 {
	if m == PriceTypical {
		return b.Typical()
	}
	return b.Close
}

// VWAPPoint is one value of a VWAP series. Defined is false where cumulative volume is zero.
type VWAPPoint struct {
	Value   float64
	Defined bool
}

// ComputeVWAP returns the cumulative volume-weighted average price from anchorIndex to the end of
// the series. Point i covers bars [anchorIndex, anchorIndex+i].
//
// Points with zero cumulative volume are left undefined. When the anchor bar itself carries no
// volume the points are still returned together with an error wrapping ErrDivisionByZero.
func ComputeVWAP(series model.Series, anchorIndex int, mode PriceMode) ([]VWAPPoint, error) {
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("compute vwap %s: %w", series.Ticker, ErrInsufficientData)
	}
	if anchorIndex < 0 || anchorIndex >= len(series.Bars) {
		return nil, fmt.Errorf("compute vwap %s: anchor %d of %d bars: %w", series.Ticker, anchorIndex, len(series.Bars), ErrAnchorOutOfRange)
	}

	bars := series.Bars[anchorIndex:]
	out := make([]VWAPPoint, len(bars))
	var sumPV, sumV float64
	for i, b := range bars {
		p := mode.price(b)
		if sumV == 0 && b.Volume > 0 {
			// first bar carrying volume: the ratio is the price itself
			sumPV, sumV = p*b.Volume, b.Volume
			out[i] = VWAPPoint{Value: p, Defined: true}
			continue
		}
		sumPV += p * b.Volume
		sumV += b.Volume
		if sumV == 0 {
			continue
		}
		out[i] = VWAPPoint{Value: sumPV / sumV, Defined: true}
	}
	if !out[0].Defined {
		return out, fmt.Errorf("compute vwap %s: zero volume at anchor %s: %w", series.Ticker, bars[0].Time().Format("2006-01-02"), ErrDivisionByZero)
	}
	return out, nil
}

// AnchorIndexFor returns the index of the first bar on or after date (UTC day).
func AnchorIndexFor(series model.Series, date time.Time) (int, error) {
	if len(series.Bars) == 0 {
		return 0, fmt.Errorf("anchor %s: %w", series.Ticker, ErrInsufficientData)
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	first := truncateDay(series.Bars[0].Time())
	last := truncateDay(series.Last().Time())
	if day.Before(first) || day.After(last) {
		return 0, fmt.Errorf("anchor %s for %s outside %s..%s: %w", day.Format("2006-01-02"), series.Ticker,
			first.Format("2006-01-02"), last.Format("2006-01-02"), ErrAnchorOutOfRange)
	}
	for i, b := range series.Bars {
		if !truncateDay(b.Time()).Before(day) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("anchor %s for %s: %w", day.Format("2006-01-02"), series.Ticker, ErrAnchorOutOfRange)
}

// Values flattens points into floats, NaN where undefined.
func Values(points []VWAPPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		if p.Defined {
			out[i] = p.Value
		} else {
			out[i] = nan
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
