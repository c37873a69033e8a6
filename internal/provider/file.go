package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vwapscan/internal/model"
)

// FileProvider replays bar packets saved as JSON arrays under Dir/{TICKER}.json.
// It lets a scan run offline against previously fetched data.
type FileProvider struct {
	Dir string
}

// NewFileProvider returns a FileProvider reading from dir.
func NewFileProvider(dir string) (*FileProvider, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("bars dir: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("bars dir %s is not a directory", dir)
	}
	return &FileProvider{Dir: dir}, nil
}

// GetName returns provider name
func (p *FileProvider) GetName() string {
	return "File"
}

// FetchDailyBars loads the packet of ticker and keeps the bars inside w.
func (p *FileProvider) FetchDailyBars(ctx context.Context, ticker string, w Window) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}
	path := filepath.Join(p.Dir, strings.ToUpper(ticker)+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Series{}, fmt.Errorf("file %s: %w", path, ErrNoDataForTicker)
	}
	if err != nil {
		return model.Series{}, fmt.Errorf("read %s: %w", path, err)
	}
	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return model.Series{}, fmt.Errorf("parse %s: %w", path, err)
	}

	from := w.From.UnixMilli()
	to := w.To.AddDate(0, 0, 1).UnixMilli()
	kept := bars[:0]
	for _, b := range bars {
		if (w.From.IsZero() || b.Timestamp >= from) && (w.To.IsZero() || b.Timestamp < to) {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		return model.Series{}, fmt.Errorf("file %s %s: %w", path, w, ErrNoDataForTicker)
	}
	return model.Series{Ticker: ticker, Bars: kept}, nil
}

// Close is a no-op.
func (p *FileProvider) Close() error {
	return nil
}
