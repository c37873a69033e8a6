package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"vwapscan/internal/metrics"
	"vwapscan/internal/provider"
	"vwapscan/internal/saver"
	"vwapscan/internal/screen"
	"vwapscan/internal/slogx"
)

// App holds the dependencies of a scan run.
type App struct {
	Config   *Config
	DP       provider.DataProvider
	Screener screen.Screener
	Saver    saver.RowSaver // nil when rows are not saved
	Metrics  *metrics.Metrics
}

// ProvideConfig loads, overrides with flags, resolves tickers and validates (for Wire).
// It also installs the default logger at the configured level.
func ProvideConfig(opts LoadOptions, fs *pflag.FlagSet) (*Config, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	if fs != nil {
		if err := cfg.ApplyFlags(fs); err != nil {
			return nil, err
		}
	}
	slog.SetDefault(slogx.NewDefault(cfg.LogLevel))
	if err := cfg.ResolveTickers(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideRowSaver creates the RowSaver from config (for Wire). Returns nil when SaveFormat is empty
// and an error if it is not supported.
func ProvideRowSaver(cfg *Config) (saver.RowSaver, error) {
	if cfg.SaveFormat == "" {
		return nil, nil
	}
	s := saver.NewRowSaver(cfg.SaveFormat)
	if s == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return s, nil
}

// ProvideScreener creates the configured screen (for Wire).
func ProvideScreener(cfg *Config) (screen.Screener, error) {
	kind, err := screen.ParseKind(cfg.Screen)
	if err != nil {
		return nil, err
	}
	params, err := cfg.ScreenParams()
	if err != nil {
		return nil, err
	}
	return screen.New(kind, params)
}

// ProvideMetrics creates the metrics registry (for Wire).
func ProvideMetrics() *metrics.Metrics {
	return metrics.New()
}

// ProvideDataProvider creates the DataProvider (for Wire). The cleanup closes it.
func ProvideDataProvider(ctx context.Context, cfg *Config) (provider.DataProvider, func(), error) {
	dp, err := CreateProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using data provider", "provider", dp.GetName())
	return dp, func() {
		if err := dp.Close(); err != nil {
			slog.Warn("close data provider", "error", err)
		}
	}, nil
}
