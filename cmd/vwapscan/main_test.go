package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vwapscan/internal/model"
)

func TestScanCommand(t *testing.T) {
	bars := t.TempDir()
	var series []model.Bar
	for i, c := range []float64{10, 10, 11, 9, 12} {
		series = append(series, model.Bar{
			Timestamp: time.Date(2024, 1, 2+i, 0, 0, 0, 0, time.UTC).UnixMilli(),
			Open:      c, High: c + 1, Low: c - 0.5, Close: c, Volume: 1000,
		})
	}
	data, err := json.Marshal(series)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(bars, "AAPL.json"), data, 0644))

	out := t.TempDir()
	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{
		"scan",
		"--env-file", filepath.Join(out, "missing.env"),
		"--provider", "file",
		"--bars-dir", bars,
		"--tickers", "aapl",
		"--from", "2024-01-01", "--to", "2024-01-31",
		"--output-dir", out,
		"--format", "csv",
	})
	require.NoError(t, root.Execute())

	assert.Contains(t, stdout.String(), "AAPL")
	assert.Contains(t, stdout.String(), "avwap: 1 passed")
	saved, err := filepath.Glob(filepath.Join(out, "rows", "avwap_*.csv"))
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestScanCommandRejectsBadConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"scan",
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--provider", "file", "--bars-dir", t.TempDir(),
		"--tickers", "AAPL",
		"--lookback", "0",
	})
	assert.Error(t, root.Execute())
}
