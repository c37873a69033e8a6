package scan

import (
	"fmt"
	"log/slog"
)

// ProgressUpdate is sent after each ticker completes.
type ProgressUpdate struct {
	Ticker string
	Status Status
	Done   int
	Total  int
}

// RunProgressLogger receives updates and logs every step-th one and the last (run as goroutine).
func RunProgressLogger(updates <-chan ProgressUpdate, step int, logger *slog.Logger) {
	if step <= 0 {
		step = 1
	}
	for u := range updates {
		if u.Done%step != 0 && u.Done != u.Total {
			continue
		}
		pct := 0.0
		if u.Total > 0 {
			pct = float64(u.Done) * 100 / float64(u.Total)
		}
		logger.Info("progress", "done", u.Done, "total", u.Total, "pct", fmt.Sprintf("%.0f%%", pct), "last", u.Ticker)
	}
}
