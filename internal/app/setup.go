package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vwapscan/internal/cache"
	"vwapscan/internal/provider"
	"vwapscan/internal/provider/polygon"
)

// CreateProvider creates the DataProvider from config, wrapped in the Redis cache when
// REDIS_ADDR is set.
func CreateProvider(ctx context.Context, cfg *Config) (provider.DataProvider, error) {
	var dp provider.DataProvider
	var err error
	switch strings.ToLower(cfg.DataProvider) {
	case "polygon":
		dp, err = createPolygonProvider(cfg)
	case "file":
		dp, err = provider.NewFileProvider(cfg.BarsDir)
	default:
		return nil, fmt.Errorf("unsupported data provider: %s. Options: polygon, file", cfg.DataProvider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.RedisAddr == "" {
		return dp, nil
	}

	client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		_ = dp.Close()
		return nil, err
	}
	slog.Info("wire", "provider", dp.GetName(), "cache", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	return cache.New(dp, client, cfg.CacheTTL), nil
}

func createPolygonProvider(cfg *Config) (provider.DataProvider, error) {
	if len(cfg.PolygonAPIKeys) == 0 {
		return nil, fmt.Errorf("POLYGON_API_KEY or POLYGON_API_KEYS not set")
	}
	return provider.NewPolygonProvider(polygon.Options{
		APIKeys:         cfg.PolygonAPIKeys,
		RatePerMinute:   cfg.RatePerMinute,
		MaxRetries:      cfg.MaxRetries,
		BreakerFailures: cfg.BreakerFailures,
	})
}
