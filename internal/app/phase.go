package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"vwapscan/internal/present"
	"vwapscan/internal/saver"
	"vwapscan/internal/scan"
	"vwapscan/internal/slogx"
)

// Cmd triggers a scan run
type Cmd struct{}

// Done signals scan completion
type Done struct {
	Summary scan.Summary
	Err     error
}

// RunOnce runs one scan over the configured tickers and renders the result to out.
func RunOnce(ctx context.Context, a *App, out io.Writer) (scan.Summary, error) {
	cfg := a.Config
	spec, err := cfg.WindowSpec()
	if err != nil {
		return scan.Summary{}, err
	}
	w, err := spec.Resolve(time.Now())
	if err != nil {
		return scan.Summary{}, err
	}
	sortCol, err := present.ParseColumn(cfg.SortBy)
	if err != nil {
		return scan.Summary{}, err
	}

	step := len(cfg.Tickers) / 10
	progress := make(chan scan.ProgressUpdate, 256)
	var progressWg sync.WaitGroup
	progressWg.Add(1)
	go func() {
		defer progressWg.Done()
		scan.RunProgressLogger(progress, step, slog.Default())
	}()

	opts := scan.Options{
		Workers:   cfg.WorkerCount(),
		ReportDir: cfg.ReportDir(),
		LogLevel:  slogx.ParseLevel(cfg.LogLevel),
		Progress:  progress,
	}
	if a.Metrics != nil {
		opts.Recorder = a.Metrics
	}
	sum := scan.Run(ctx, a.DP, cfg.Tickers, w, a.Screener, opts)
	close(progress)
	progressWg.Wait()

	present.SortRows(sum.Passed, sortCol, cfg.Desc)
	present.Table(out, sum.Screen, sum.Passed)
	if cfg.ShowWarnings {
		present.Warnings(out, sum.Warnings())
	}
	present.Summary(out, sum)

	if a.Saver != nil && len(sum.Passed) > 0 {
		path, err := saver.SaveRun(a.Saver, cfg.RowsDir(), sum.Screen, sum.RunID, time.Now(), sum.Passed)
		if err != nil {
			return sum, err
		}
		slog.Info("rows saved", "path", path, "rows", len(sum.Passed))
	}

	if a.Metrics != nil {
		counts := make(map[string]int, len(sum.Counts))
		for status, n := range sum.Counts {
			counts[string(status)] = n
		}
		a.Metrics.ObserveRun(sum.Screen, counts, sum.Duration)
		if err := a.Metrics.WriteFile(cfg.MetricsFile); err != nil {
			slog.Warn("could not write metrics", "error", err)
		}
	}
	return sum, nil
}

// RunFlow orchestrates the daily loop: trigger → run → done → wait → trigger, until ctx is done.
func RunFlow(ctx context.Context, a *App, out io.Writer) error {
	trigger := make(chan Cmd, 1)
	done := make(chan Done, 1)

	go func() {
		for range trigger {
			sum, err := RunOnce(ctx, a, out)
			done <- Done{Summary: sum, Err: err}
		}
	}()
	defer close(trigger)

	trigger <- Cmd{}

	for {
		select {
		case d := <-done:
			if d.Err != nil {
				slog.Error("run failed", "error", d.Err)
			}
			if ctx.Err() != nil {
				return nil
			}
			nextRun := nextRunTime(time.Now(), a.Config.RunHour, a.Config.RunMinute)
			waitDur := time.Until(nextRun)
			slog.Info("timer waiting", "hours", fmt.Sprintf("%.1f", waitDur.Hours()), "until", nextRun.Format("2006-01-02 15:04"))
			timer := time.NewTimer(waitDur)
			select {
			case <-timer.C:
			case <-ctx.Done():
				slog.Info("stopping", "reason", context.Cause(ctx), "restart_at", nextRun.Format("2006-01-02 15:04"))
				timer.Stop()
				return nil
			}
			trigger <- Cmd{}
		case <-ctx.Done():
			slog.Info("graceful shutdown, waiting for the running scan")
			if d := <-done; d.Err != nil {
				slog.Error("run failed", "error", d.Err)
			}
			return nil
		}
	}
}

// nextRunTime returns the next hour:min UTC strictly after now.
func nextRunTime(now time.Time, hour, min int) time.Time {
	now = now.UTC()
	targetToday := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.UTC)
	if now.Before(targetToday) {
		return targetToday
	}
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, min, 0, 0, time.UTC)
}
