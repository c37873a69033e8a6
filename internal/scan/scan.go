package scan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vwapscan/internal/model"
	"vwapscan/internal/provider"
	"vwapscan/internal/provider/polygon"
	"vwapscan/internal/screen"
	"vwapscan/internal/slogx"
)

const defaultHeartbeat = 30 * time.Second

// Recorder receives per-ticker measurements. Nil disables recording.
type Recorder interface {
	ObserveFetch(provider, result string, d time.Duration)
	ObserveOutcome(screen, status, kind string)
}

// Options configures a batch run.
type Options struct {
	RunID     string        // generated when empty
	Workers   int           // <= 0 means 1
	ReportDir string        // where .lastrun.*.json are written; empty disables the report
	Heartbeat time.Duration // <= 0 means 30s
	LogLevel  slog.Level
	LogOutput io.Writer // fan-in log destination; nil means stderr
	Progress  chan<- ProgressUpdate
	Recorder  Recorder
}

// Summary aggregates the outcomes of one batch run.
type Summary struct {
	RunID    string
	Screen   string
	Window   provider.Window
	Total    int
	Passed   []model.Row
	Outcomes []Outcome
	Counts   map[Status]int
	NotRun   []string // tickers never dispatched because the run was cancelled
	Duration time.Duration
}

// Warnings returns the skipped and failed outcomes sorted by ticker.
func (s Summary) Warnings() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusSkipped || o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Job is one unit of work: fetch and screen one ticker.
type Job struct {
	Ticker string
}

type logSetter interface {
	SetLogFunc(polygon.LogFunc)
}

// Run fetches and screens every ticker with a bounded worker pool. A failure for one ticker never
// affects the others. When ctx is cancelled no new ticker is dispatched; in-flight tickers finish.
func Run(ctx context.Context, dp provider.DataProvider, tickers []string, w provider.Window, sc screen.Screener, opts Options) Summary {
	start := time.Now()
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tickers) && len(tickers) > 0 {
		workers = len(tickers)
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	logs := make(chan string, 2048)
	chanLogger, logWriter := slogx.NewChanLogger(logs, opts.LogLevel)
	logger := chanLogger.With("run", shortID(opts.RunID))
	errs := make(chan errorEntry, 64)
	var logWg sync.WaitGroup
	logWg.Add(1)
	go func() {
		defer logWg.Done()
		runLogWriter(out, logs)
	}()
	var errWg sync.WaitGroup
	errWg.Add(1)
	go func() {
		defer errWg.Done()
		runErrorHandler(errs, logger)
	}()

	if ls, ok := dp.(logSetter); ok {
		ls.SetLogFunc(func(msg string) { logger.Info(msg) })
	}
	defer func() {
		if ls, ok := dp.(logSetter); ok {
			ls.SetLogFunc(nil)
		}
		close(logs)
		close(errs)
		logWg.Wait()
		errWg.Wait()
	}()

	pending := make(chan Job, len(tickers))
	for _, t := range tickers {
		pending <- Job{Ticker: t}
	}
	close(pending)

	sum := Summary{
		RunID:  opts.RunID,
		Screen: string(sc.Name()),
		Window: w,
		Total:  len(tickers),
		Counts: make(map[Status]int),
	}
	results := make(chan Outcome, len(tickers))
	var mu sync.Mutex
	var resWg sync.WaitGroup
	resWg.Add(1)
	go func() {
		defer resWg.Done()
		runOutcomeCollector(results, &mu, &sum, opts.Progress, logger)
	}()

	hbCtx, stopHeartbeat := context.WithCancel(context.Background())
	var hbWg sync.WaitGroup
	hbWg.Add(1)
	go func() {
		defer hbWg.Done()
		runHeartbeat(hbCtx, heartbeat, &mu, &sum, logger)
	}()

	logger.Info("scan start", "screen", sc.Name(), "provider", dp.GetName(), "tickers", len(tickers), "workers", workers, "window", w.String())

	fetchCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				// stop dispatching once cancelled, even with jobs left
				if ctx.Err() != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case job, ok := <-pending:
					if !ok {
						return
					}
					o := runJob(fetchCtx, dp, w, sc, job, opts.Recorder)
					switch o.Status {
					case StatusFailed:
						select {
						case errs <- errorEntry{Ticker: o.Ticker, Reason: o.Reason}:
						default:
						}
					case StatusSkipped:
						logger.Warn("scan skip", "ticker", o.Ticker, "kind", o.Kind, "reason", o.Reason)
					default:
						logger.Debug("scan ok", "ticker", o.Ticker, "status", o.Status)
					}
					results <- o
				}
			}
		}()
	}
	wg.Wait()
	close(results)
	resWg.Wait()
	stopHeartbeat()
	hbWg.Wait()

	for job := range pending {
		sum.NotRun = append(sum.NotRun, job.Ticker)
	}
	sort.Slice(sum.Passed, func(i, j int) bool { return sum.Passed[i].Ticker < sum.Passed[j].Ticker })
	sum.Duration = time.Since(start)

	if len(sum.NotRun) > 0 {
		logger.Warn("scan cancelled", "not_run", len(sum.NotRun))
	}
	logger.Info("summary",
		"passed", sum.Counts[StatusPassed],
		"filtered", sum.Counts[StatusFiltered],
		"skipped", sum.Counts[StatusSkipped],
		"failed", sum.Counts[StatusFailed],
		"dropped_logs", logWriter.Dropped(),
		"duration", sum.Duration.Round(time.Millisecond))
	if warnings := sum.Warnings(); len(warnings) > 0 {
		logger.Info("summary warnings", "count", len(warnings), "reasons", joinReasons(warnings))
	}

	if opts.ReportDir != "" {
		if err := writeRunReport(opts.ReportDir, sum); err != nil {
			logger.Warn("could not write run report", "error", err)
		}
	}
	return sum
}

// runJob fetches and screens one ticker.
func runJob(ctx context.Context, dp provider.DataProvider, w provider.Window, sc screen.Screener, job Job, rec Recorder) Outcome {
	start := time.Now()
	series, err := dp.FetchDailyBars(ctx, job.Ticker, w)
	if rec != nil {
		rec.ObserveFetch(dp.GetName(), fetchResult(err), time.Since(start))
	}
	var o Outcome
	if err != nil {
		o = outcomeFor(job.Ticker, err)
	} else if row, serr := sc.Screen(series); serr != nil {
		o = outcomeFor(job.Ticker, serr)
	} else {
		o = Outcome{Ticker: job.Ticker, Status: StatusFiltered, Row: &row}
		if row.Passed {
			o.Status = StatusPassed
		}
	}
	if rec != nil {
		rec.ObserveOutcome(string(sc.Name()), string(o.Status), string(o.Kind))
	}
	return o
}

func fetchResult(err error) string {
	if err == nil {
		return "ok"
	}
	_, kind := Classify(err)
	return string(kind)
}

func runOutcomeCollector(results <-chan Outcome, mu *sync.Mutex, sum *Summary, progress chan<- ProgressUpdate, logger *slog.Logger) {
	for o := range results {
		mu.Lock()
		sum.Outcomes = append(sum.Outcomes, o)
		sum.Counts[o.Status]++
		if o.Status == StatusPassed && o.Row != nil {
			sum.Passed = append(sum.Passed, *o.Row)
		}
		done := len(sum.Outcomes)
		mu.Unlock()
		if progress == nil {
			continue
		}
		select {
		case progress <- ProgressUpdate{Ticker: o.Ticker, Status: o.Status, Done: done, Total: sum.Total}:
		default:
			logger.Warn("progress channel full, skip update", "ticker", o.Ticker)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
