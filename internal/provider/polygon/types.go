package polygon

import (
	"sort"
	"time"

	"github.com/polygon-io/client-go/rest/models"

	"vwapscan/internal/model"
)

// ToBar converts a Polygon aggregate to model.Bar.
func ToBar(a models.Agg) model.Bar {
	return model.Bar{
		Timestamp: time.Time(a.Timestamp).UnixMilli(),
		Open:      a.Open,
		High:      a.High,
		Low:       a.Low,
		Close:     a.Close,
		Volume:    a.Volume,
	}
}

// ToSeries converts aggregates to an ascending series, keeping the last bar of any duplicate
// timestamp.
func ToSeries(ticker string, aggs []models.Agg) model.Series {
	bars := make([]model.Bar, 0, len(aggs))
	for _, a := range aggs {
		bars = append(bars, ToBar(a))
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Timestamp == b.Timestamp {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return model.Series{Ticker: ticker, Bars: out}
}
