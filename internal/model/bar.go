package model

import (
	"fmt"
	"time"
)

// Bar represents one daily OHLCV observation.
type Bar struct {
	Timestamp int64   `json:"t" parquet:"t"` // Unix timestamp in milliseconds
	Open      float64 `json:"o" parquet:"o"`
	High      float64 `json:"h" parquet:"h"`
	Low       float64 `json:"l" parquet:"l"`
	Close     float64 `json:"c" parquet:"c"`
	Volume    float64 `json:"v" parquet:"v"`
}

// Time returns the bar timestamp in UTC.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// Typical returns (high+low+close)/3.
func (b Bar) Typical() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Series is the ordered bar history of one ticker, ascending by timestamp.
type Series struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar. The series must not be empty.
func (s Series) Last() Bar { return s.Bars[len(s.Bars)-1] }

// Closes returns the close prices from index from onwards.
func (s Series) Closes(from int) []float64 {
	if from < 0 || from >= len(s.Bars) {
		return nil
	}
	out := make([]float64, 0, len(s.Bars)-from)
	for _, b := range s.Bars[from:] {
		out = append(out, b.Close)
	}
	return out
}

// Volumes returns the volumes from index from onwards.
func (s Series) Volumes(from int) []float64 {
	if from < 0 || from >= len(s.Bars) {
		return nil
	}
	out := make([]float64, 0, len(s.Bars)-from)
	for _, b := range s.Bars[from:] {
		out = append(out, b.Volume)
	}
	return out
}

// Validate checks ordering, uniqueness and price/volume sanity.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("%s: no bars: %w", s.Ticker, ErrInvalidSeries)
	}
	for i, b := range s.Bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("%s: bar %d has non-positive price: %w", s.Ticker, i, ErrInvalidSeries)
		}
		if b.Low > b.High {
			return fmt.Errorf("%s: bar %d low %.4f above high %.4f: %w", s.Ticker, i, b.Low, b.High, ErrInvalidSeries)
		}
		if b.Volume < 0 {
			return fmt.Errorf("%s: bar %d has negative volume: %w", s.Ticker, i, ErrInvalidSeries)
		}
		if i > 0 && b.Timestamp <= s.Bars[i-1].Timestamp {
			return fmt.Errorf("%s: bar %d not after bar %d: %w", s.Ticker, i, i-1, ErrInvalidSeries)
		}
	}
	return nil
}
