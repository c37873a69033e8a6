package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

func runLogWriter(w io.Writer, lines <-chan string) {
	for s := range lines {
		fmt.Fprintln(w, s)
	}
}

type errorEntry struct {
	Ticker string
	Reason string
}

func runErrorHandler(errors <-chan errorEntry, logger *slog.Logger) {
	for e := range errors {
		logger.Error("scan error", "ticker", e.Ticker, "error", e.Reason)
	}
}

func runHeartbeat(ctx context.Context, interval time.Duration, mu *sync.Mutex, sum *Summary, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mu.Lock()
			done := len(sum.Outcomes)
			passed, skipped, failed := sum.Counts[StatusPassed], sum.Counts[StatusSkipped], sum.Counts[StatusFailed]
			mu.Unlock()
			logger.Info("heartbeat", "done", done, "total", sum.Total, "passed", passed, "skipped", skipped, "failed", failed)
		}
	}
}
