package polygon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseTickerList splits a comma-separated ticker list. Entries are trimmed, upper-cased and
// de-duplicated; empty entries are dropped.
func ParseTickerList(s string) []string {
	return normalizeTickers(strings.Split(s, ","))
}

// LoadTickersFromFile reads a list of tickers from a file.
// Supported formats:
//   - .txt  : one ticker per line (or comma-separated), '#' lines are treated as comments
//   - .json : JSON array of strings
func LoadTickersFromFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ticker file %s: %w", path, err)
	}

	var tickers []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &tickers); err != nil {
			return nil, fmt.Errorf("parse JSON %s: %w", path, err)
		}
	case ".txt", "":
		tickers = parseTickersFromText(string(content))
	default:
		return nil, fmt.Errorf("unsupported ticker file extension %q (use .txt or .json)", filepath.Ext(path))
	}

	unique := normalizeTickers(tickers)
	slog.Info("loaded tickers from file", "count", len(unique), "path", path)
	return unique, nil
}

// LoadTickers merges a comma-separated list with the tickers of an optional file.
func LoadTickers(list, file string) ([]string, error) {
	tickers := ParseTickerList(list)
	if file == "" {
		return tickers, nil
	}
	fromFile, err := LoadTickersFromFile(file)
	if err != nil {
		return nil, err
	}
	return normalizeTickers(append(tickers, fromFile...)), nil
}

// parseTickersFromText parses a plain text representation of tickers
// where each non-empty, non-comment line holds one or more comma-separated tickers.
func parseTickersFromText(s string) []string {
	var tickers []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, strings.Split(line, ",")...)
	}
	return tickers
}

func normalizeTickers(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
