package app

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"vwapscan/internal/provider/polygon"
)

// RegisterFlags defines the scan flags on fs. Defaults shown in help are the built-in defaults;
// only flags set on the command line override file and environment values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("tickers", "", "comma-separated tickers, e.g. AAPL,MSFT")
	fs.String("tickers-file", "", "ticker file (.txt one per line, or .json array)")
	fs.String("screen", d.Screen, "screen: avwap, breakout, reversal")
	fs.String("period", d.Period, "fetch period: 1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd,max")
	fs.String("anchor", "", "anchor date YYYY-MM-DD (fetches anchor-30d..anchor+2d unless --from is set)")
	fs.String("from", "", "window start YYYY-MM-DD")
	fs.String("to", "", "window end YYYY-MM-DD (default today)")
	fs.String("price-mode", d.PriceMode, "VWAP price: close or typical")
	fs.Int("lookback", d.LookbackWindow, "volume lookback window in bars")
	fs.Float64("volume-threshold", d.VolumeThreshold, "breakout volume ratio threshold")
	fs.Float64("min-price-to-vwap", d.MinPriceToReference, "breakout minimum close/VWAP ratio")
	fs.Int("cross-within", d.CrossWithinDays, "avwap: crossing must be within N calendar days of the last bar")
	fs.String("direction", "", "avwap: only crossings in this direction (up, down)")
	fs.Int("rsi-period", d.RSIPeriod, "RSI period")
	fs.Float64("decline-pct", d.DeclinePercent, "reversal: minimum VWAP decline in percent")
	fs.Int("confirm-bars", d.ConfirmBars, "reversal: bars the close must hold above VWAP")
	fs.Float64("volume-multiple", d.VolumeMultiple, "reversal: recent volume vs mean volume")
	fs.String("sort", d.SortBy, "sort column: ticker, close, vwap, distance, volume_increase, rsi, last_cross")
	fs.Bool("desc", d.Desc, "sort descending")
	fs.Bool("warnings", d.ShowWarnings, "print skipped and failed tickers")
	fs.Int("workers", 0, "worker pool size (default one per API key)")
	fs.String("provider", d.DataProvider, "data provider: polygon, file")
	fs.String("bars-dir", "", "file provider: directory of {TICKER}.json bar arrays")
	fs.String("format", "", "save passed rows: csv, json, parquet (empty = do not save)")
	fs.String("output-dir", d.OutputDir, "directory for saved rows and the run report")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("metrics-file", "", "write Prometheus metrics to this file after each run")
	fs.String("redis-addr", "", "cache fetched bars in Redis at host:port")
	fs.Duration("cache-ttl", d.CacheTTL, "Redis cache TTL")
	fs.Int("rate-per-min", d.RatePerMinute, "Polygon requests per minute per key")
	fs.Int("max-retries", d.MaxRetries, "fetch attempts per ticker (0 or 1 = no retry)")
}

// ApplyFlags copies the flags set on the command line into c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var firstErr error
	fs.Visit(func(f *pflag.Flag) {
		if firstErr != nil {
			return
		}
		if err := c.applyFlag(fs, f.Name); err != nil {
			firstErr = fmt.Errorf("--%s: %w", f.Name, err)
		}
	})
	return firstErr
}

func (c *Config) applyFlag(fs *pflag.FlagSet, name string) error {
	var err error
	switch name {
	case "tickers":
		var s string
		s, err = fs.GetString(name)
		c.Tickers = polygon.ParseTickerList(s)
	case "tickers-file":
		c.TickersFile, err = fs.GetString(name)
	case "screen":
		var s string
		s, err = fs.GetString(name)
		c.Screen = strings.ToLower(s)
	case "period":
		c.Period, err = fs.GetString(name)
	case "anchor":
		c.Anchor, err = fs.GetString(name)
	case "from":
		c.From, err = fs.GetString(name)
	case "to":
		c.To, err = fs.GetString(name)
	case "price-mode":
		c.PriceMode, err = fs.GetString(name)
	case "lookback":
		c.LookbackWindow, err = fs.GetInt(name)
	case "volume-threshold":
		c.VolumeThreshold, err = fs.GetFloat64(name)
	case "min-price-to-vwap":
		c.MinPriceToReference, err = fs.GetFloat64(name)
	case "cross-within":
		c.CrossWithinDays, err = fs.GetInt(name)
	case "direction":
		c.Direction, err = fs.GetString(name)
	case "rsi-period":
		c.RSIPeriod, err = fs.GetInt(name)
	case "decline-pct":
		c.DeclinePercent, err = fs.GetFloat64(name)
	case "confirm-bars":
		c.ConfirmBars, err = fs.GetInt(name)
	case "volume-multiple":
		c.VolumeMultiple, err = fs.GetFloat64(name)
	case "sort":
		c.SortBy, err = fs.GetString(name)
	case "desc":
		c.Desc, err = fs.GetBool(name)
	case "warnings":
		c.ShowWarnings, err = fs.GetBool(name)
	case "workers":
		c.Workers, err = fs.GetInt(name)
	case "provider":
		c.DataProvider, err = fs.GetString(name)
	case "bars-dir":
		c.BarsDir, err = fs.GetString(name)
	case "format":
		c.SaveFormat, err = fs.GetString(name)
	case "output-dir":
		c.OutputDir, err = fs.GetString(name)
	case "log-level":
		c.LogLevel, err = fs.GetString(name)
	case "metrics-file":
		c.MetricsFile, err = fs.GetString(name)
	case "redis-addr":
		c.RedisAddr, err = fs.GetString(name)
	case "cache-ttl":
		c.CacheTTL, err = fs.GetDuration(name)
	case "rate-per-min":
		c.RatePerMinute, err = fs.GetInt(name)
	case "max-retries":
		c.MaxRetries, err = fs.GetInt(name)
	case "run-hour":
		c.RunHour, err = fs.GetInt(name)
	case "run-minute":
		c.RunMinute, err = fs.GetInt(name)
	}
	return err
}
