//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/spf13/pflag"

	"vwapscan/internal/app"
)

// InitializeApp builds the App (config, data provider, screener, saver, metrics) via Wire.
// Caller must call the cleanup when done.
func InitializeApp(ctx context.Context, opts app.LoadOptions, fs *pflag.FlagSet) (*app.App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideDataProvider,
		app.ProvideScreener,
		app.ProvideRowSaver,
		app.ProvideMetrics,
		wire.Struct(new(app.App), "*"),
	)
	return nil, nil, nil
}
