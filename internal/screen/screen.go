package screen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"vwapscan/internal/engine"
	"vwapscan/internal/model"
)

// Kind names a screen.
type Kind string

const (
	KindAVWAP    Kind = "avwap"
	KindBreakout Kind = "breakout"
	KindReversal Kind = "reversal"
)

// Kinds lists the available screens.
var Kinds = []Kind{KindAVWAP, KindBreakout, KindReversal}

// ParseKind converts a user string to a Kind. Empty means avwap.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindAVWAP, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown screen %q (use: avwap, breakout, reversal)", s)
}

// Params configures all screens. Each screen reads the fields it needs.
type Params struct {
	AnchorDate          time.Time // zero means the first bar of the series
	PriceMode           engine.PriceMode
	LookbackWindow      int
	VolumeThreshold     float64
	MinPriceToReference float64
	CrossWithinDays     int
	Direction           engine.Direction // empty accepts both
	RSIPeriod           int
	Reversal            engine.ReversalPolicy
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	bp := engine.DefaultBreakoutPolicy()
	return Params{
		PriceMode:           engine.PriceClose,
		LookbackWindow:      20,
		VolumeThreshold:     bp.VolumeThreshold,
		MinPriceToReference: bp.MinPriceToReference,
		CrossWithinDays:     5,
		RSIPeriod:           engine.DefaultRSIPeriod,
		Reversal:            engine.DefaultReversalPolicy(),
	}
}

// Screener turns one series into a row and a pass decision.
type Screener interface {
	Name() Kind
	Screen(series model.Series) (model.Row, error)
}

// New returns the screener for kind.
func New(kind Kind, p Params) (Screener, error) {
	switch kind {
	case KindAVWAP, "":
		return &avwapScreen{p: p}, nil
	case KindBreakout:
		return &breakoutScreen{p: p}, nil
	case KindReversal:
		return &reversalScreen{p: p}, nil
	default:
		return nil, fmt.Errorf("unknown screen %q", kind)
	}
}

// IsSkip reports whether err is an expected per-ticker condition rather than a failure.
func IsSkip(err error) bool {
	return errors.Is(err, engine.ErrInsufficientData) ||
		errors.Is(err, engine.ErrDivisionByZero) ||
		errors.Is(err, engine.ErrAnchorOutOfRange)
}

// anchored holds the values shared by the VWAP based screens.
type anchored struct {
	index     int
	points    []engine.VWAPPoint
	crossings []engine.Crossing
}

func anchor(series model.Series, p Params) (anchored, error) {
	var a anchored
	if !p.AnchorDate.IsZero() {
		idx, err := engine.AnchorIndexFor(series, p.AnchorDate)
		if err != nil {
			return a, err
		}
		a.index = idx
	}
	crossings, points, err := engine.DetectSeriesCrossings(series, a.index, p.PriceMode)
	// leading zero-volume bars only leave their own points undefined
	if err != nil && !(errors.Is(err, engine.ErrDivisionByZero) && definedAtLast(points)) {
		return a, err
	}
	a.points, a.crossings = points, crossings
	return a, nil
}

func definedAtLast(points []engine.VWAPPoint) bool {
	return len(points) > 0 && points[len(points)-1].Defined
}

func (a anchored) last() float64 {
	return a.points[len(a.points)-1].Value
}

func baseRow(series model.Series, kind Kind) model.Row {
	last := series.Last()
	return model.Row{
		Ticker: series.Ticker,
		Screen: string(kind),
		Date:   last.Time().Format("2006-01-02"),
		Close:  last.Close,
		Volume: last.Volume,
	}
}

func fillReference(row *model.Row, vwap float64) {
	row.VWAP = vwap
	row.Distance = (row.Close/vwap - 1) * 100
}

func fillCrossing(row *model.Row, series model.Series, crossings []engine.Crossing, p Params) {
	if p.Direction != "" {
		filtered := crossings[:0:0]
		for _, c := range crossings {
			if c.Direction == p.Direction {
				filtered = append(filtered, c)
			}
		}
		crossings = filtered
	}
	if c, ok := engine.MostRecentCrossing(crossings, series.Last().Time(), p.CrossWithinDays); ok {
		row.Crossed = true
		row.LastCross = c.Time.Format("2006-01-02")
		row.CrossDirection = string(c.Direction)
		return
	}
	if n := len(crossings); n > 0 {
		row.LastCross = crossings[n-1].Time.Format("2006-01-02")
		row.CrossDirection = string(crossings[n-1].Direction)
	}
}

func fillRSI(row *model.Row, series model.Series, period int) {
	if period <= 0 {
		period = engine.DefaultRSIPeriod
	}
	if v, ok := engine.LastDefined(engine.ComputeRSI(series.Closes(0), period)); ok {
		row.RSI = &v
	}
}

type avwapScreen struct{ p Params }

func (s *avwapScreen) Name() Kind { return KindAVWAP }

// Screen passes when the close crossed the anchored VWAP within CrossWithinDays.
func (s *avwapScreen) Screen(series model.Series) (model.Row, error) {
	if err := series.Validate(); err != nil {
		return model.Row{}, err
	}
	a, err := anchor(series, s.p)
	if err != nil {
		return model.Row{}, err
	}
	row := baseRow(series, KindAVWAP)
	fillReference(&row, a.last())
	fillCrossing(&row, series, a.crossings, s.p)
	fillRSI(&row, series, s.p.RSIPeriod)

	// volume context over whatever part of the lookback window exists
	window := s.p.LookbackWindow
	if window < 1 || window > series.Len() {
		window = series.Len()
	}
	b, err := engine.ClassifyBreakoutCandidate(series, engine.Values(a.points), window, s.policy())
	if err == nil {
		row.AvgVolume, row.VolumeIncrease = b.AvgVolume, b.VolumeIncrease
	} else if !errors.Is(err, engine.ErrDivisionByZero) {
		return model.Row{}, err
	}

	row.Passed = row.Crossed
	return row, nil
}

func (s *avwapScreen) policy() engine.BreakoutPolicy {
	return engine.BreakoutPolicy{VolumeThreshold: s.p.VolumeThreshold, MinPriceToReference: s.p.MinPriceToReference}
}

type breakoutScreen struct{ p Params }

func (s *breakoutScreen) Name() Kind { return KindBreakout }

// Screen passes when the last bar qualifies as a breakout candidate against the anchored VWAP.
func (s *breakoutScreen) Screen(series model.Series) (model.Row, error) {
	if err := series.Validate(); err != nil {
		return model.Row{}, err
	}
	a, err := anchor(series, s.p)
	if err != nil {
		return model.Row{}, err
	}
	policy := engine.BreakoutPolicy{VolumeThreshold: s.p.VolumeThreshold, MinPriceToReference: s.p.MinPriceToReference}
	b, err := engine.ClassifyBreakoutCandidate(series, engine.Values(a.points), s.p.LookbackWindow, policy)
	if err != nil {
		return model.Row{}, err
	}

	row := baseRow(series, KindBreakout)
	fillReference(&row, a.last())
	fillCrossing(&row, series, a.crossings, s.p)
	fillRSI(&row, series, s.p.RSIPeriod)
	row.AvgVolume, row.VolumeIncrease = b.AvgVolume, b.VolumeIncrease
	row.Passed = b.Qualifies
	return row, nil
}

type reversalScreen struct{ p Params }

func (s *reversalScreen) Name() Kind { return KindReversal }

// Screen passes when the VWAP declined and the close reclaimed it on heavy volume.
func (s *reversalScreen) Screen(series model.Series) (model.Row, error) {
	if err := series.Validate(); err != nil {
		return model.Row{}, err
	}
	r, err := engine.ScreenReversal(series, s.p.Reversal)
	if err != nil {
		return model.Row{}, err
	}

	row := baseRow(series, KindReversal)
	fillReference(&row, r.VWAP)
	fillRSI(&row, series, s.p.RSIPeriod)
	row.DeclinePercent = r.DeclinePercent
	row.Volume = r.RecentVolume
	if mean, err := stats.Mean(series.Volumes(0)); err == nil && mean > 0 {
		row.AvgVolume = mean
		row.VolumeIncrease = r.RecentVolume / mean
	}

	var signals []string
	for _, sig := range []struct {
		name string
		ok   bool
	}{
		{"decline", r.VWAPDecline},
		{"cross", r.VWAPCross},
		{"high_close", r.HighClose},
		{"buy_volume", r.BuyVolume},
	} {
		if sig.ok {
			signals = append(signals, sig.name)
		}
	}
	row.Signals = strings.Join(signals, ",")
	row.Passed = r.Qualifies
	return row, nil
}
