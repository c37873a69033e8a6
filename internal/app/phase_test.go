package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vwapscan/internal/metrics"
	"vwapscan/internal/model"
	"vwapscan/internal/scan"
)

func TestNextRunTime(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 3, 5, h, m, 0, 0, time.UTC) }
	assert.Equal(t, at(21, 30), nextRunTime(at(9, 0), 21, 30))
	assert.Equal(t, at(21, 30).AddDate(0, 0, 1), nextRunTime(at(21, 30), 21, 30))
	assert.Equal(t, at(21, 30).AddDate(0, 0, 1), nextRunTime(at(23, 59), 21, 30))
}

func writeBars(t *testing.T, dir, ticker string, closes []float64) {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Timestamp: time.Date(2024, 1, 2+i, 0, 0, 0, 0, time.UTC).UnixMilli(),
			Open:      c, High: c + 1, Low: c - 0.5, Close: c, Volume: 100,
		}
	}
	data, err := json.Marshal(bars)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ticker+".json"), data, 0644))
}

func fileApp(t *testing.T) *App {
	barsDir := t.TempDir()
	writeBars(t, barsDir, "AAPL", []float64{10, 10, 11, 9, 12})
	writeBars(t, barsDir, "FLAT", []float64{10, 10, 10, 10, 10})

	out := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataProvider = "file"
	cfg.BarsDir = barsDir
	cfg.Tickers = []string{"AAPL", "FLAT", "MSFT"}
	cfg.From, cfg.To = "2024-01-01", "2024-01-31"
	cfg.OutputDir = out
	cfg.SaveFormat = "json"
	cfg.MetricsFile = filepath.Join(out, "vwapscan.prom")
	require.NoError(t, cfg.Validate())

	dp, cleanup, err := ProvideDataProvider(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	sc, err := ProvideScreener(cfg)
	require.NoError(t, err)
	rs, err := ProvideRowSaver(cfg)
	require.NoError(t, err)
	return &App{Config: cfg, DP: dp, Screener: sc, Saver: rs, Metrics: metrics.New()}
}

func TestRunOnce(t *testing.T) {
	a := fileApp(t)
	var out bytes.Buffer
	sum, err := RunOnce(context.Background(), a, &out)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Counts[scan.StatusPassed])
	assert.Equal(t, 1, sum.Counts[scan.StatusFiltered])
	assert.Equal(t, 1, sum.Counts[scan.StatusSkipped])
	require.Len(t, sum.Passed, 1)
	assert.Equal(t, "AAPL", sum.Passed[0].Ticker)

	text := out.String()
	assert.Contains(t, text, "AAPL")
	assert.Contains(t, text, "Warnings:")
	assert.Contains(t, text, "no_data")
	assert.Contains(t, text, "avwap: 1 passed, 1 filtered, 1 skipped, 0 failed of 3 tickers")

	saved, err := filepath.Glob(filepath.Join(a.Config.RowsDir(), "avwap_*.json"))
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	_, err = os.Stat(filepath.Join(a.Config.OutputDir, ".lastrun.passed.json"))
	assert.NoError(t, err)

	prom, err := os.ReadFile(a.Config.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `vwapscan_runs_total{screen="avwap"} 1`)
}

func TestRunFlowStopsOnCancel(t *testing.T) {
	a := fileApp(t)
	a.Config.RunHour, a.Config.RunMinute = time.Now().UTC().Hour(), time.Now().UTC().Minute()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	errc := make(chan error, 1)
	go func() { errc <- RunFlow(ctx, a, &out) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunFlow did not stop")
	}
}

func TestProvideRowSaver(t *testing.T) {
	cfg := validConfig()
	s, err := ProvideRowSaver(cfg)
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.SaveFormat = "parquet"
	s, err = ProvideRowSaver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "parquet", s.Extension())

	cfg.SaveFormat = "xlsx"
	_, err = ProvideRowSaver(cfg)
	assert.Error(t, err)
}

func TestProvideDataProviderRequiresKey(t *testing.T) {
	cfg := validConfig()
	cfg.PolygonAPIKeys = nil
	_, _, err := ProvideDataProvider(context.Background(), cfg)
	assert.Error(t, err)

	cfg.DataProvider = "yahoo"
	_, _, err = ProvideDataProvider(context.Background(), cfg)
	assert.Error(t, err)
}
