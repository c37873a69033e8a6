// Package cache memoizes provider fetches in Redis for a bounded time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"vwapscan/internal/model"
	"vwapscan/internal/provider"
	"vwapscan/internal/provider/polygon"
)

// DefaultTTL bounds how long fetched bars are reused.
const DefaultTTL = 15 * time.Minute

// NewClient connects to Redis at addr and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rdb, nil
}

// Provider decorates a DataProvider with a Redis read-through cache. Only successful fetches are
// stored; Redis errors never fail a fetch.
type Provider struct {
	next   provider.DataProvider
	client *redis.Client
	ttl    time.Duration
}

// New wraps next. ttl <= 0 means DefaultTTL.
func New(next provider.DataProvider, client *redis.Client, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Provider{next: next, client: client, ttl: ttl}
}

// Key returns the cache key of a fetch.
func Key(providerName, ticker string, w provider.Window) string {
	return fmt.Sprintf("bars:%s:%s:%s:%s",
		strings.ToLower(providerName), strings.ToUpper(ticker),
		w.From.Format("2006-01-02"), w.To.Format("2006-01-02"))
}

// GetName returns the wrapped provider name.
func (p *Provider) GetName() string {
	return p.next.GetName()
}

// FetchDailyBars returns the cached series of ticker for w, fetching and storing it on a miss.
func (p *Provider) FetchDailyBars(ctx context.Context, ticker string, w provider.Window) (model.Series, error) {
	key := Key(p.next.GetName(), ticker, w)
	val, err := p.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var s model.Series
		uerr := json.Unmarshal([]byte(val), &s)
		if uerr == nil {
			slog.Debug("cache hit", "key", key, "bars", s.Len())
			return s, nil
		}
		slog.Warn("cache entry unreadable, refetching", "key", key, "error", uerr)
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("cache read failed, fetching directly", "key", key, "error", err)
	}

	s, err := p.next.FetchDailyBars(ctx, ticker, w)
	if err != nil {
		return s, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return s, nil
	}
	if err := p.client.Set(ctx, key, string(data), p.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	return s, nil
}

// SetLogFunc forwards the fan-in logger to the wrapped provider.
func (p *Provider) SetLogFunc(fn polygon.LogFunc) {
	if ls, ok := p.next.(interface{ SetLogFunc(polygon.LogFunc) }); ok {
		ls.SetLogFunc(fn)
	}
}

// Close closes the wrapped provider and the Redis client.
func (p *Provider) Close() error {
	err := p.next.Close()
	if cerr := p.client.Close(); err == nil {
		err = cerr
	}
	return err
}
