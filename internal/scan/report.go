package scan

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	passedReport  = ".lastrun.passed.json"
	skippedReport = ".lastrun.skipped.json"
)

type passedEntry struct {
	RunID   string   `json:"run_id"`
	Screen  string   `json:"screen"`
	Window  string   `json:"window"`
	At      string   `json:"at"`
	Tickers []string `json:"tickers"`
}

type skippedEntry struct {
	Ticker string `json:"ticker"`
	Status Status `json:"status"`
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

// writeRunReport writes the passed tickers and the warnings of the last run to dir.
// Files from an earlier run are replaced, or removed when the new run has nothing for them.
func writeRunReport(dir string, sum Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	passed := passedEntry{
		RunID:   sum.RunID,
		Screen:  sum.Screen,
		Window:  sum.Window.String(),
		At:      time.Now().UTC().Format(time.RFC3339),
		Tickers: make([]string, 0, len(sum.Passed)),
	}
	for _, r := range sum.Passed {
		passed.Tickers = append(passed.Tickers, r.Ticker)
	}
	sort.Strings(passed.Tickers)
	p := filepath.Join(dir, passedReport)
	if err := writeJSON(p, passed); err != nil {
		return err
	}
	slog.Debug("report wrote passed", "path", p, "tickers", len(passed.Tickers))

	warnings := sum.Warnings()
	p = filepath.Join(dir, skippedReport)
	if len(warnings) == 0 {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	entries := make([]skippedEntry, len(warnings))
	for i, w := range warnings {
		entries[i] = skippedEntry{Ticker: w.Ticker, Status: w.Status, Kind: w.Kind, Reason: w.Reason}
	}
	if err := writeJSON(p, entries); err != nil {
		return err
	}
	slog.Debug("report wrote skipped", "path", p, "count", len(entries))
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func joinReasons(list []Outcome) string {
	if len(list) == 0 {
		return ""
	}
	var b strings.Builder
	for i, o := range list {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(o.Ticker)
		b.WriteString(": ")
		b.WriteString(string(o.Kind))
		if i >= 4 && len(list) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(list)-5))
			break
		}
	}
	return b.String()
}
