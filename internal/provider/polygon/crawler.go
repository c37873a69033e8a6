package polygon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"vwapscan/internal/model"
)

const (
	// Max 50k results per request; a daily request never comes close.
	maxLimit = 50000

	// DefaultRatePerMinute matches the Polygon free tier: 5 req/min => 12s between requests per key.
	DefaultRatePerMinute = 5

	defaultMaxRetries      = 1
	defaultRetryBase       = time.Second
	defaultBreakerFailures = 5
)

// LogFunc emits a log line. When set, used instead of slog (fan-in logger).
type LogFunc func(msg string)

// ListFunc lists daily aggregates for ticker in [from, to] with the given API key.
type ListFunc func(ctx context.Context, apiKey, ticker string, from, to time.Time) ([]models.Agg, error)

// Options configures a Crawler.
type Options struct {
	APIKeys         []string
	RatePerMinute   int           // per key; <= 0 means DefaultRatePerMinute
	MaxRetries      int           // attempts per fetch; <= 0 means a single attempt
	RetryBase       time.Duration // first backoff; doubles per attempt
	BreakerFailures uint32        // consecutive transient failures that open the breaker
	HTTPClient      *http.Client
}

// Crawler fetches daily aggregates from the Polygon API. API keys are handed out through a pool
// so at most one request per key is in flight, and each key is paced by its own token bucket.
type Crawler struct {
	list       ListFunc
	keys       chan string
	limiters   map[string]*rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	retryBase  time.Duration
	LogFunc    LogFunc // Optional fan-in logger for fetch diagnostics.
}

// NewCrawler constructs a Crawler backed by the Polygon REST client.
func NewCrawler(opts Options) (*Crawler, error) {
	client := opts.HTTPClient
	if client == nil {
		client = newHTTPClient(time.Minute)
	}
	l := &restLister{httpClient: client, clients: make(map[string]*polygonrest.Client)}
	return newCrawler(opts, l.list)
}

func newCrawler(opts Options, list ListFunc) (*Crawler, error) {
	if len(opts.APIKeys) == 0 {
		return nil, fmt.Errorf("polygon: at least one API key is required")
	}
	perMin := opts.RatePerMinute
	if perMin <= 0 {
		perMin = DefaultRatePerMinute
	}
	c := &Crawler{
		list:       list,
		keys:       make(chan string, len(opts.APIKeys)),
		limiters:   make(map[string]*rate.Limiter, len(opts.APIKeys)),
		maxRetries: opts.MaxRetries,
		retryBase:  opts.RetryBase,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryBase <= 0 {
		c.retryBase = defaultRetryBase
	}
	for _, k := range opts.APIKeys {
		if _, dup := c.limiters[k]; dup {
			continue
		}
		c.limiters[k] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1)
		c.keys <- k
	}

	failures := opts.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "polygon",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logf("[BREAKER] %s: %s -> %s", name, from, to)
		},
	})
	return c, nil
}

func (c *Crawler) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.LogFunc != nil {
		c.LogFunc(msg)
	} else {
		slog.Info(msg)
	}
}

// Keys returns the number of distinct API keys in the pool.
func (c *Crawler) Keys() int {
	return len(c.limiters)
}

// Close closes connections
func (c *Crawler) Close() error {
	return nil
}

// FetchDailyBars fetches the daily bars of ticker for [from, to]. It returns
// model.ErrNoDataForTicker when Polygon has no bars and model.ErrTransientFetch when every
// attempt failed or the breaker is open.
func (c *Crawler) FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) (model.Series, error) {
	key, err := c.takeKey(ctx)
	if err != nil {
		return model.Series{}, fmt.Errorf("polygon %s: wait for key: %w", ticker, err)
	}
	defer func() { c.keys <- key }()

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchWithRetry(ctx, key, ticker, from, to)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return model.Series{}, fmt.Errorf("polygon %s: %v: %w", ticker, err, model.ErrTransientFetch)
		}
		return model.Series{}, err
	}

	aggs, _ := res.([]models.Agg)
	if len(aggs) == 0 {
		return model.Series{}, fmt.Errorf("polygon %s %s..%s: %w", ticker, from.Format("2006-01-02"), to.Format("2006-01-02"), model.ErrNoDataForTicker)
	}
	return ToSeries(ticker, aggs), nil
}

func (c *Crawler) takeKey(ctx context.Context) (string, error) {
	select {
	case k := <-c.keys:
		return k, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// fetchWithRetry runs the list call with exponential backoff and jitter between attempts.
func (c *Crawler) fetchWithRetry(ctx context.Context, key, ticker string, from, to time.Time) ([]models.Agg, error) {
	keyPrefix := key
	if len(key) > 8 {
		keyPrefix = key[:8]
	}
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiters[key].Wait(ctx); err != nil {
			return nil, err
		}
		aggs, err := c.list(ctx, key, ticker, from, to)
		if err == nil {
			return aggs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if attempt == c.maxRetries {
			break
		}
		sleep := c.retryBase*(1<<(attempt-1)) + time.Duration(rand.Int63n(int64(c.retryBase/4)+1))
		c.logf("[RETRY] [%s] attempt %d/%d failed (key=%s...): %v; retry in %s", ticker, attempt, c.maxRetries, keyPrefix, err, sleep.Round(time.Millisecond))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return nil, fmt.Errorf("polygon %s: failed after %d attempts: %w: %w", ticker, c.maxRetries, model.ErrTransientFetch, lastErr)
}

// restLister keeps one REST client per API key.
type restLister struct {
	httpClient *http.Client
	mu         sync.Mutex
	clients    map[string]*polygonrest.Client
}

func (l *restLister) client(key string) *polygonrest.Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.clients[key]
	if !ok {
		c = polygonrest.NewWithClient(key, l.httpClient)
		l.clients[key] = c
	}
	return c
}

func (l *restLister) list(ctx context.Context, apiKey, ticker string, from, to time.Time) ([]models.Agg, error) {
	params := &models.ListAggsParams{
		Ticker:     ticker,
		Timespan:   models.Day,
		Multiplier: 1,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}
	lim := maxLimit
	asc := models.Asc
	adj := true
	params.Limit = &lim
	params.Order = &asc
	params.Adjusted = &adj

	iter := l.client(apiKey).ListAggs(ctx, params)
	var aggs []models.Agg
	for iter.Next() {
		aggs = append(aggs, iter.Item())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}
