// Package metrics records scan measurements in a Prometheus registry and writes them in text
// exposition format for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a scan process.
type Metrics struct {
	Registry *prometheus.Registry

	Fetches      *prometheus.CounterVec
	FetchLatency *prometheus.HistogramVec
	Outcomes     *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	LastRun      *prometheus.GaugeVec
	RunDuration  prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vwapscan_fetches_total",
				Help: "Daily bar fetches by provider and result",
			},
			[]string{"provider", "result"},
		),
		FetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vwapscan_fetch_duration_seconds",
				Help:    "Duration of one daily bar fetch in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
			},
			[]string{"provider"},
		),
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vwapscan_outcomes_total",
				Help: "Per-ticker scan outcomes by screen, status and kind",
			},
			[]string{"screen", "status", "kind"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vwapscan_runs_total",
				Help: "Completed scan runs by screen",
			},
			[]string{"screen"},
		),
		LastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vwapscan_last_run_tickers",
				Help: "Tickers per status in the last run",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vwapscan_last_run_duration_seconds",
				Help: "Wall time of the last run in seconds",
			},
		),
	}
	m.Registry.MustRegister(m.Fetches, m.FetchLatency, m.Outcomes, m.Runs, m.LastRun, m.RunDuration)
	return m
}

// ObserveFetch records one fetch.
func (m *Metrics) ObserveFetch(provider, result string, d time.Duration) {
	m.Fetches.WithLabelValues(provider, result).Inc()
	m.FetchLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveOutcome records one per-ticker outcome.
func (m *Metrics) ObserveOutcome(screen, status, kind string) {
	if kind == "" {
		kind = "none"
	}
	m.Outcomes.WithLabelValues(screen, status, kind).Inc()
}

// ObserveRun records the totals of a finished run.
func (m *Metrics) ObserveRun(screen string, counts map[string]int, d time.Duration) {
	m.Runs.WithLabelValues(screen).Inc()
	m.LastRun.Reset()
	for status, n := range counts {
		m.LastRun.WithLabelValues(status).Set(float64(n))
	}
	m.RunDuration.Set(d.Seconds())
}

// WriteFile writes the registry to path. Empty path is a no-op.
func (m *Metrics) WriteFile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
