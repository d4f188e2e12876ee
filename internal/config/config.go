package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	bstoml "github.com/BurntSushi/toml"
	"github.com/danmuck/hashdragon/internal/assemble"
	"github.com/danmuck/hashdragon/internal/logging"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

const (
	FeeKindFixed = "fixed"
	FeeKindRate  = "rate"
)

// Config is the resolved configuration for hashdragonctl.
type Config struct {
	Lookup      LookupConfig
	Transaction TransactionConfig
	Log         LogConfig
	Server      ServerConfig
}

type LookupConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

type TransactionConfig struct {
	Network assemble.Network
	Payment uint64
	// FeeKind selects Fee (flat satoshis) or FeeRate (satoshis per kB).
	FeeKind string
	Fee     uint64
	FeeRate uint64
}

type LogConfig struct {
	Level     string
	JSON      bool
	NoColor   bool
	Timestamp bool
}

type ServerConfig struct {
	Addr            string
	CorsOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func Default() Config {
	return Config{
		Lookup: LookupConfig{
			BaseURL:       "https://rest.bitcoin.com/v2",
			Timeout:       10 * time.Second,
			RatePerSecond: 2,
			Burst:         1,
		},
		Transaction: TransactionConfig{
			Network: assemble.MainNet,
			Payment: 2000,
			FeeKind: FeeKindFixed,
			Fee:     500,
			FeeRate: 1000,
		},
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8420",
			CorsOrigins:     []string{"http://localhost:3000"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// fileConfig is the on-disk shape. Durations are Go duration strings.
type fileConfig struct {
	Lookup struct {
		BaseURL       string  `toml:"base_url"`
		Timeout       string  `toml:"timeout"`
		RatePerSecond float64 `toml:"rate_per_second"`
		Burst         int     `toml:"burst"`
	} `toml:"lookup"`
	Transaction struct {
		Network string `toml:"network"`
		Payment uint64 `toml:"payment"`
		FeeKind string `toml:"fee_kind"`
		Fee     uint64 `toml:"fee"`
		FeeRate uint64 `toml:"fee_rate"`
	} `toml:"transaction"`
	Log struct {
		Level     string `toml:"level"`
		JSON      bool   `toml:"json"`
		NoColor   bool   `toml:"no_color"`
		Timestamp bool   `toml:"timestamp"`
	} `toml:"log"`
	Server struct {
		Addr            string   `toml:"addr"`
		CorsOrigins     []string `toml:"cors_origins"`
		ReadTimeout     string   `toml:"read_timeout"`
		WriteTimeout    string   `toml:"write_timeout"`
		ShutdownTimeout string   `toml:"shutdown_timeout"`
	} `toml:"server"`
}

// Load applies the keys present in path over Default and validates the result.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := bstoml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}

	if meta.IsDefined("lookup", "base_url") {
		cfg.Lookup.BaseURL = strings.TrimSpace(raw.Lookup.BaseURL)
	}
	if meta.IsDefined("lookup", "timeout") {
		if cfg.Lookup.Timeout, err = parseDuration("lookup.timeout", raw.Lookup.Timeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("lookup", "rate_per_second") {
		cfg.Lookup.RatePerSecond = raw.Lookup.RatePerSecond
	}
	if meta.IsDefined("lookup", "burst") {
		cfg.Lookup.Burst = raw.Lookup.Burst
	}

	if meta.IsDefined("transaction", "network") {
		cfg.Transaction.Network = assemble.Network(strings.ToLower(strings.TrimSpace(raw.Transaction.Network)))
	}
	if meta.IsDefined("transaction", "payment") {
		cfg.Transaction.Payment = raw.Transaction.Payment
	}
	if meta.IsDefined("transaction", "fee_kind") {
		cfg.Transaction.FeeKind = strings.ToLower(strings.TrimSpace(raw.Transaction.FeeKind))
	}
	if meta.IsDefined("transaction", "fee") {
		cfg.Transaction.Fee = raw.Transaction.Fee
	}
	if meta.IsDefined("transaction", "fee_rate") {
		cfg.Transaction.FeeRate = raw.Transaction.FeeRate
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}

	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeList(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "read_timeout") {
		if cfg.Server.ReadTimeout, err = parseDuration("server.read_timeout", raw.Server.ReadTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("server", "write_timeout") {
		if cfg.Server.WriteTimeout, err = parseDuration("server.write_timeout", raw.Server.WriteTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("server", "shutdown_timeout") {
		if cfg.Server.ShutdownTimeout, err = parseDuration("server.shutdown_timeout", raw.Server.ShutdownTimeout); err != nil {
			return Config{}, err
		}
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	u, err := url.Parse(cfg.Lookup.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: lookup.base_url must be an http(s) URL, got %q", ErrInvalidConfig, cfg.Lookup.BaseURL)
	}
	if cfg.Lookup.Timeout <= 0 {
		return fmt.Errorf("%w: lookup.timeout must be positive", ErrInvalidConfig)
	}
	if cfg.Lookup.RatePerSecond < 0 {
		return fmt.Errorf("%w: lookup.rate_per_second must not be negative", ErrInvalidConfig)
	}
	if cfg.Lookup.RatePerSecond > 0 && cfg.Lookup.Burst < 1 {
		return fmt.Errorf("%w: lookup.burst must be at least 1", ErrInvalidConfig)
	}

	if _, err := cfg.Transaction.Network.Params(); err != nil {
		return fmt.Errorf("%w: transaction.network: %v", ErrInvalidConfig, err)
	}
	switch cfg.Transaction.FeeKind {
	case FeeKindFixed:
	case FeeKindRate:
		if cfg.Transaction.FeeRate == 0 {
			return fmt.Errorf("%w: transaction.fee_rate must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: transaction.fee_kind must be %q or %q, got %q", ErrInvalidConfig, FeeKindFixed, FeeKindRate, cfg.Transaction.FeeKind)
	}

	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, cfg.Log.Level)
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     cfg.Server.ReadTimeout,
		"server.write_timeout":    cfg.Server.WriteTimeout,
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Marshal renders cfg in the on-disk format.
func Marshal(cfg Config) ([]byte, error) {
	var raw fileConfig
	raw.Lookup.BaseURL = cfg.Lookup.BaseURL
	raw.Lookup.Timeout = cfg.Lookup.Timeout.String()
	raw.Lookup.RatePerSecond = cfg.Lookup.RatePerSecond
	raw.Lookup.Burst = cfg.Lookup.Burst
	raw.Transaction.Network = string(cfg.Transaction.Network)
	raw.Transaction.Payment = cfg.Transaction.Payment
	raw.Transaction.FeeKind = cfg.Transaction.FeeKind
	raw.Transaction.Fee = cfg.Transaction.Fee
	raw.Transaction.FeeRate = cfg.Transaction.FeeRate
	raw.Log.Level = cfg.Log.Level
	raw.Log.JSON = cfg.Log.JSON
	raw.Log.NoColor = cfg.Log.NoColor
	raw.Log.Timestamp = cfg.Log.Timestamp
	raw.Server.Addr = cfg.Server.Addr
	raw.Server.CorsOrigins = cfg.Server.CorsOrigins
	raw.Server.ReadTimeout = cfg.Server.ReadTimeout.String()
	raw.Server.WriteTimeout = cfg.Server.WriteTimeout.String()
	raw.Server.ShutdownTimeout = cfg.Server.ShutdownTimeout.String()
	return toml.Marshal(raw)
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
