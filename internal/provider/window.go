package provider

import (
	"fmt"
	"strings"
	"time"
)

// Periods lists the accepted period tokens.
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// Window is an inclusive daily date range.
type Window struct {
	From time.Time
	To   time.Time
}

// String formats the window as from..to.
func (w Window) String() string {
	return w.From.Format("2006-01-02") + ".." + w.To.Format("2006-01-02")
}

// WindowSpec describes how the fetch window is chosen. An explicit From/To wins, then an anchor
// date (anchor-30d .. anchor+2d), then the period token relative to now.
type WindowSpec struct {
	Period string
	Anchor time.Time
	From   time.Time
	To     time.Time
}

const (
	anchorLeadDays  = 30
	anchorTrailDays = 2
)

// Resolve returns the fetch window for now.
func (s WindowSpec) Resolve(now time.Time) (Window, error) {
	today := day(now)
	switch {
	case !s.From.IsZero() || !s.To.IsZero():
		from, to := day(s.From), day(s.To)
		if s.To.IsZero() {
			to = today
		}
		if s.From.IsZero() {
			return Window{}, fmt.Errorf("window: to %s given without from", to.Format("2006-01-02"))
		}
		if from.After(to) {
			return Window{}, fmt.Errorf("window: from %s after to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		return Window{From: from, To: to}, nil
	case !s.Anchor.IsZero():
		a := day(s.Anchor)
		if a.After(today) {
			return Window{}, fmt.Errorf("window: anchor %s is in the future", a.Format("2006-01-02"))
		}
		to := a.AddDate(0, 0, anchorTrailDays)
		if to.After(today) {
			to = today
		}
		return Window{From: a.AddDate(0, 0, -anchorLeadDays), To: to}, nil
	default:
		from, err := PeriodStart(s.Period, today)
		if err != nil {
			return Window{}, err
		}
		return Window{From: from, To: today}, nil
	}
}

// PeriodStart returns the first day covered by a period token ending today.
func PeriodStart(period string, today time.Time) (time.Time, error) {
	today = day(today)
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "1d":
		return today.AddDate(0, 0, -1), nil
	case "5d":
		return today.AddDate(0, 0, -5), nil
	case "1mo":
		return today.AddDate(0, -1, 0), nil
	case "3mo":
		return today.AddDate(0, -3, 0), nil
	case "", "6mo":
		return today.AddDate(0, -6, 0), nil
	case "1y":
		return today.AddDate(-1, 0, 0), nil
	case "2y":
		return today.AddDate(-2, 0, 0), nil
	case "5y":
		return today.AddDate(-5, 0, 0), nil
	case "10y":
		return today.AddDate(-10, 0, 0), nil
	case "ytd":
		return time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	case "max":
		return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q (use: %s)", period, strings.Join(Periods, ", "))
	}
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
