package config

import (
	"github.com/danmuck/hashdragon/internal/assemble"
	"github.com/danmuck/hashdragon/internal/events"
	"github.com/danmuck/hashdragon/internal/logging"
	"github.com/danmuck/hashdragon/internal/lookup"
)

func (c Config) LookupConfig() lookup.Config {
	return lookup.Config{
		BaseURL:       c.Lookup.BaseURL,
		Timeout:       c.Lookup.Timeout,
		RatePerSecond: c.Lookup.RatePerSecond,
		Burst:         c.Lookup.Burst,
	}
}

func (c Config) FeePolicy() assemble.FeePolicy {
	if c.Transaction.FeeKind == FeeKindRate {
		return assemble.RateFee(c.Transaction.FeeRate)
	}
	return assemble.FixedFee(c.Transaction.Fee)
}

func (c Config) ServiceConfig() events.ServiceConfig {
	return events.ServiceConfig{
		Network: c.Transaction.Network,
		Payment: c.Transaction.Payment,
		Fee:     c.FeePolicy(),
	}
}

// LoggingConfig starts from the runtime profile; environment overrides are
// applied by the caller.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		cfg.Level = lvl
	}
	cfg.JSON = c.Log.JSON
	cfg.NoColor = c.Log.NoColor
	cfg.Timestamp = c.Log.Timestamp
	return cfg
}
