package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vwapscan/internal/model"
)

// RowSaver writes screen rows to a file.
// High-level (main) injects the implementation; the scan only depends on the interface.
type RowSaver interface {
	Save(rows []model.Row, path string) error
	Extension() string
}

// Formats lists the supported output formats.
var Formats = []string{"csv", "json", "parquet"}

// NewRowSaver creates the implementation for format (csv, parquet, json).
// Returns nil if format is not supported.
func NewRowSaver(format string) RowSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// SaveRun writes rows to dir/{screen}_{YYYYMMDD}_{run}.{ext} and returns the path.
func SaveRun(s RowSaver, dir, screen, runID string, at time.Time, rows []model.Row) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if len(runID) > 8 {
		runID = runID[:8]
	}
	name := fmt.Sprintf("%s_%s_%s.%s", screen, at.UTC().Format("20060102"), runID, s.Extension())
	path := filepath.Join(dir, name)
	if err := s.Save(rows, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
