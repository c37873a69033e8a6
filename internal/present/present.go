// Package present renders scan results for a terminal. Rounding happens only here.
package present

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"vwapscan/internal/model"
	"vwapscan/internal/scan"
)

// Column is a sortable row field.
type Column string

const (
	ColTicker         Column = "ticker"
	ColClose          Column = "close"
	ColVWAP           Column = "vwap"
	ColDistance       Column = "distance"
	ColVolumeIncrease Column = "volume_increase"
	ColRSI            Column = "rsi"
	ColLastCross      Column = "last_cross"
)

// Columns lists the sortable columns.
var Columns = []Column{ColTicker, ColClose, ColVWAP, ColDistance, ColVolumeIncrease, ColRSI, ColLastCross}

// ParseColumn converts a user string to a Column. Empty means ticker.
func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return ColTicker, nil
	}
	for _, known := range Columns {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown sort column %q", s)
}

// SortRows sorts rows in place by col. Ties and missing values keep ticker order; rows without
// RSI sort last.
func SortRows(rows []model.Row, col Column, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if col == ColRSI && (a.RSI == nil) != (b.RSI == nil) {
			return a.RSI != nil
		}
		c := compare(a, b, col)
		if c == 0 {
			return a.Ticker < b.Ticker
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b model.Row, col Column) int {
	switch col {
	case ColClose:
		return cmpFloat(a.Close, b.Close)
	case ColVWAP:
		return cmpFloat(a.VWAP, b.VWAP)
	case ColDistance:
		return cmpFloat(a.Distance, b.Distance)
	case ColVolumeIncrease:
		return cmpFloat(a.VolumeIncrease, b.VolumeIncrease)
	case ColRSI:
		if a.RSI == nil || b.RSI == nil {
			return 0
		}
		return cmpFloat(*a.RSI, *b.RSI)
	case ColLastCross:
		return strings.Compare(a.LastCross, b.LastCross)
	default:
		return strings.Compare(a.Ticker, b.Ticker)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var printer = message.NewPrinter(language.English)

func price(v float64) string { return printer.Sprintf("%.2f", v) }

func percent(v float64) string { return fmt.Sprintf("%+.2f%%", v) }

func volume(v float64) string { return printer.Sprintf("%d", int64(math.Round(v))) }

func ratio(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", v)
}

func rsi(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Table renders the rows of one screen.
func Table(w io.Writer, screen string, rows []model.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No tickers passed the screen.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	switch screen {
	case "reversal":
		table.SetHeader([]string{"Ticker", "Date", "Close", "VWAP", "VWAP Decline %", "Buy Volume", "Vol x", "Signals"})
		for _, r := range rows {
			table.Append([]string{r.Ticker, r.Date, price(r.Close), price(r.VWAP), fmt.Sprintf("%.2f%%", r.DeclinePercent), volume(r.Volume), ratio(r.VolumeIncrease), orDash(r.Signals)})
		}
	case "breakout":
		table.SetHeader([]string{"Ticker", "Date", "Close", "VWAP", "Dist", "Volume", "Avg Volume", "Vol x", "RSI"})
		for _, r := range rows {
			table.Append([]string{r.Ticker, r.Date, price(r.Close), price(r.VWAP), percent(r.Distance), volume(r.Volume), volume(r.AvgVolume), ratio(r.VolumeIncrease), rsi(r.RSI)})
		}
	default:
		table.SetHeader([]string{"Ticker", "Date", "Close", "AVWAP", "Dist", "Last Cross", "Dir", "Vol x", "RSI"})
		for _, r := range rows {
			table.Append([]string{r.Ticker, r.Date, price(r.Close), price(r.VWAP), percent(r.Distance), orDash(r.LastCross), orDash(r.CrossDirection), ratio(r.VolumeIncrease), rsi(r.RSI)})
		}
	}
	table.Render()
}

// Warnings renders the skipped and failed tickers.
func Warnings(w io.Writer, outcomes []scan.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	fmt.Fprintln(w, "Warnings:")
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Ticker", "Status", "Kind", "Reason"})
	for _, o := range outcomes {
		table.Append([]string{o.Ticker, string(o.Status), string(o.Kind), o.Reason})
	}
	table.Render()
}

// Summary prints one line with the counts of a run.
func Summary(w io.Writer, s scan.Summary) {
	fmt.Fprintf(w, "%s: %d passed, %d filtered, %d skipped, %d failed of %d tickers (%s, run %s)\n",
		s.Screen,
		s.Counts[scan.StatusPassed], s.Counts[scan.StatusFiltered],
		s.Counts[scan.StatusSkipped], s.Counts[scan.StatusFailed],
		s.Total, s.Window, shortID(s.RunID))
	if len(s.NotRun) > 0 {
		fmt.Fprintf(w, "cancelled before %d tickers ran\n", len(s.NotRun))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
