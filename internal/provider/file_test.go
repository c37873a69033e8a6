package provider

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vwapscan/internal/model"
)

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	var bars []model.Bar
	for i := 0; i < 10; i++ {
		d := date(2024, 1, 1).AddDate(0, 0, i)
		bars = append(bars, model.Bar{Timestamp: d.UnixMilli(), Open: 10, High: 11, Low: 9, Close: 10 + float64(i), Volume: 100})
	}
	data, err := json.Marshal(bars)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.json"), data, 0644))

	p, err := NewFileProvider(dir)
	require.NoError(t, err)
	assert.Equal(t, "File", p.GetName())

	s, err := p.FetchDailyBars(context.Background(), "aapl", Window{From: date(2024, 1, 3), To: date(2024, 1, 5)})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 13, 14}, s.Closes(0))

	_, err = p.FetchDailyBars(context.Background(), "AAPL", Window{From: date(2025, 1, 1), To: date(2025, 2, 1)})
	assert.ErrorIs(t, err, ErrNoDataForTicker)

	_, err = p.FetchDailyBars(context.Background(), "MSFT", Window{})
	assert.ErrorIs(t, err, ErrNoDataForTicker)

	_, err = NewFileProvider(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
