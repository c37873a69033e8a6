package provider

import (
	"context"

	"vwapscan/internal/model"
	"vwapscan/internal/provider/polygon"
)

// PolygonProvider is a DataProvider implementation backed by the Polygon API.
// It embeds *polygon.Crawler to expose fetch capabilities with minimal boilerplate.
type PolygonProvider struct {
	*polygon.Crawler
}

// NewPolygonProvider creates a new Polygon-backed DataProvider.
func NewPolygonProvider(opts polygon.Options) (*PolygonProvider, error) {
	crawler, err := polygon.NewCrawler(opts)
	if err != nil {
		return nil, err
	}
	return &PolygonProvider{
		Crawler: crawler,
	}, nil
}

// GetName returns provider name
func (p *PolygonProvider) GetName() string {
	return "Polygon"
}

// FetchDailyBars fetches the daily series of ticker for w.
func (p *PolygonProvider) FetchDailyBars(ctx context.Context, ticker string, w Window) (model.Series, error) {
	return p.Crawler.FetchDailyBars(ctx, ticker, w.From, w.To)
}

// SetLogFunc sets fan-in logger. When set, crawler sends logs here instead of slog.
func (p *PolygonProvider) SetLogFunc(fn polygon.LogFunc) {
	if p.Crawler != nil {
		p.Crawler.LogFunc = fn
	}
}
