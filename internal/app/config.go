package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vwapscan/internal/cache"
	"vwapscan/internal/engine"
	"vwapscan/internal/provider"
	"vwapscan/internal/provider/polygon"
	"vwapscan/internal/screen"
)

// Config holds application configuration. Values are layered: defaults, then an optional YAML
// file, then .env and the environment, then command line flags.
type Config struct {
	DataProvider    string        `yaml:"data_provider" validate:"oneof=polygon file"`
	PolygonAPIKeys  []string      `yaml:"polygon_api_keys" validate:"required_if=DataProvider polygon,dive,required"`
	BarsDir         string        `yaml:"bars_dir" validate:"required_if=DataProvider file"`
	RatePerMinute   int           `yaml:"rate_per_minute" validate:"gte=0"`
	MaxRetries      int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db" validate:"gte=0"`
	CacheTTL        time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	Tickers             []string `yaml:"tickers" validate:"required,min=1,dive,required"`
	TickersFile         string   `yaml:"tickers_file"`
	Screen              string   `yaml:"screen" validate:"oneof=avwap breakout reversal"`
	Period              string   `yaml:"period" validate:"omitempty,oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
	Anchor              string   `yaml:"anchor" validate:"omitempty,datetime=2006-01-02"`
	From                string   `yaml:"from" validate:"omitempty,datetime=2006-01-02"`
	To                  string   `yaml:"to" validate:"omitempty,datetime=2006-01-02"`
	PriceMode           string   `yaml:"price_mode" validate:"omitempty,oneof=close typical hlc3"`
	LookbackWindow      int      `yaml:"lookback" validate:"gte=1,lte=900"`
	VolumeThreshold     float64  `yaml:"volume_threshold" validate:"gt=0,lte=10"`
	MinPriceToReference float64  `yaml:"min_price_to_vwap" validate:"gt=0,lte=2"`
	CrossWithinDays     int      `yaml:"cross_within" validate:"gte=0"`
	Direction           string   `yaml:"direction" validate:"omitempty,oneof=up down"`
	RSIPeriod           int      `yaml:"rsi_period" validate:"gte=1"`
	DeclinePercent      float64  `yaml:"decline_pct" validate:"gte=0,lt=100"`
	ConfirmBars         int      `yaml:"confirm_bars" validate:"gte=1"`
	VolumeMultiple      float64  `yaml:"volume_multiple" validate:"gt=0"`
	SortBy              string   `yaml:"sort" validate:"omitempty,oneof=ticker close vwap distance volume_increase rsi last_cross"`
	Desc                bool     `yaml:"desc"`
	ShowWarnings        bool     `yaml:"show_warnings"`
	Workers             int      `yaml:"workers" validate:"gte=0"`

	OutputDir   string `yaml:"output_dir"`
	SaveFormat  string `yaml:"save_format" validate:"omitempty,oneof=csv json parquet"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn warning error"` // debug | info | warn | error
	MetricsFile string `yaml:"metrics_file"`
	RunHour     int    `yaml:"run_hour" validate:"gte=0,lte=23"`
	RunMinute   int    `yaml:"run_minute" validate:"gte=0,lte=59"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	sp := screen.DefaultParams()
	return &Config{
		DataProvider:        "polygon",
		RatePerMinute:       polygon.DefaultRatePerMinute,
		CacheTTL:            cache.DefaultTTL,
		Screen:              string(screen.KindAVWAP),
		Period:              "6mo",
		PriceMode:           string(engine.PriceClose),
		LookbackWindow:      sp.LookbackWindow,
		VolumeThreshold:     sp.VolumeThreshold,
		MinPriceToReference: sp.MinPriceToReference,
		CrossWithinDays:     sp.CrossWithinDays,
		RSIPeriod:           sp.RSIPeriod,
		DeclinePercent:      sp.Reversal.DeclineFraction * 100,
		ConfirmBars:         sp.Reversal.ConfirmBars,
		VolumeMultiple:      sp.Reversal.VolumeMultiple,
		SortBy:              "ticker",
		ShowWarnings:        true,
		OutputDir:           "output",
		LogLevel:            "info",
		RunHour:             21,
		RunMinute:           30,
	}
}

// LoadOptions locates the configuration sources.
type LoadOptions struct {
	ConfigPath string // optional YAML file
	EnvFile    string // optional .env file; missing file is ignored
}

// LoadConfig builds the configuration from defaults, the YAML file and the environment.
// Flags are applied separately with ApplyFlags.
func LoadConfig(opts LoadOptions) (*Config, error) {
	cfg := DefaultConfig()
	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", opts.ConfigPath, err)
		}
	}
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DataProvider = getEnv("DATA_PROVIDER", c.DataProvider)
	if keys := parsePolygonAPIKeys(); len(keys) > 0 {
		c.PolygonAPIKeys = keys
	}
	c.BarsDir = getEnv("BARS_DIR", c.BarsDir)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	if v := os.Getenv("TICKERS"); v != "" {
		c.Tickers = polygon.ParseTickerList(v)
	}
	c.TickersFile = getEnv("TICKERS_FILE", c.TickersFile)
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.SaveFormat = getEnv("SAVE_FORMAT", c.SaveFormat)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MetricsFile = getEnv("METRICS_FILE", c.MetricsFile)

	for _, e := range []struct {
		key string
		dst *int
	}{
		{"RATE_PER_MIN", &c.RatePerMinute},
		{"MAX_RETRIES", &c.MaxRetries},
		{"WORKERS", &c.Workers},
		{"REDIS_DB", &c.RedisDB},
		{"RUN_HOUR", &c.RunHour},
		{"RUN_MINUTE", &c.RunMinute},
	} {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePolygonAPIKeys() []string {
	s := os.Getenv("POLYGON_API_KEYS")
	if s == "" {
		s = os.Getenv("POLYGON_API_KEY")
	}
	if s == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ResolveTickers merges the ticker file into Tickers.
func (c *Config) ResolveTickers() error {
	if c.TickersFile == "" {
		return nil
	}
	tickers, err := polygon.LoadTickers(strings.Join(c.Tickers, ","), c.TickersFile)
	if err != nil {
		return err
	}
	c.Tickers = tickers
	c.TickersFile = ""
	return nil
}

var validate = validator.New()

// Validate checks the configuration. Tickers must be resolved first.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (%v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.WindowSpec(); err != nil {
		return err
	}
	return nil
}

// WorkerCount returns the worker pool size: Workers, else one per API key.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if c.DataProvider == "polygon" && len(c.PolygonAPIKeys) > 0 {
		return len(c.PolygonAPIKeys)
	}
	return 1
}

// WindowSpec converts the date settings into a provider.WindowSpec.
func (c *Config) WindowSpec() (provider.WindowSpec, error) {
	spec := provider.WindowSpec{Period: c.Period}
	for _, d := range []struct {
		name string
		val  string
		dst  *time.Time
	}{
		{"anchor", c.Anchor, &spec.Anchor},
		{"from", c.From, &spec.From},
		{"to", c.To, &spec.To},
	} {
		if d.val == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", d.val, time.UTC)
		if err != nil {
			return spec, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = t
	}
	return spec, nil
}

// ScreenParams converts the screen settings into screen.Params.
func (c *Config) ScreenParams() (screen.Params, error) {
	mode, err := engine.ParsePriceMode(c.PriceMode)
	if err != nil {
		return screen.Params{}, err
	}
	spec, err := c.WindowSpec()
	if err != nil {
		return screen.Params{}, err
	}
	return screen.Params{
		AnchorDate:          spec.Anchor,
		PriceMode:           mode,
		LookbackWindow:      c.LookbackWindow,
		VolumeThreshold:     c.VolumeThreshold,
		MinPriceToReference: c.MinPriceToReference,
		CrossWithinDays:     c.CrossWithinDays,
		Direction:           engine.Direction(c.Direction),
		RSIPeriod:           c.RSIPeriod,
		Reversal: engine.ReversalPolicy{
			DeclineFraction: c.DeclinePercent / 100,
			ConfirmBars:     c.ConfirmBars,
			VolumeMultiple:  c.VolumeMultiple,
		},
	}, nil
}

// ReportDir returns where the run report is written.
func (c *Config) ReportDir() string {
	return c.OutputDir
}

// RowsDir returns where saved rows are written.
func (c *Config) RowsDir() string {
	return filepath.Join(c.OutputDir, "rows")
}
