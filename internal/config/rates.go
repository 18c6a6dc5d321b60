package config

import (
	"strings"
	"time"

	"github.com/theirongolddev/finplan/internal/model"
)

// DefaultRates maps each asset class to its fallback monthly growth rate.
// Non-tradable assets always use these (or the configured override).
var DefaultRates = map[model.AssetClass]float64{
	model.AssetStocks:       0.01,
	model.AssetBonds:        0.003,
	model.AssetRealEstate:   0.004,
	model.AssetCrypto:       0.02,
	model.AssetFixedDeposit: 0.003,
}

// DefaultSymbols maps tradable asset classes to the ticker used as their proxy.
var DefaultSymbols = map[model.AssetClass]string{
	model.AssetStocks: "SPY",
	model.AssetBonds:  "AGG",
}

// LookupDefaultRate returns the fallback rate for an asset class, preferring
// a [rates.defaults] override from cfg.
func LookupDefaultRate(cfg Config, a model.AssetClass) float64 {
	if r, ok := cfg.Rates.Defaults[string(a)]; ok {
		return r
	}
	return DefaultRates[a]
}

// LookupSymbol returns the ticker for a tradable asset class, preferring a
// [rates.symbols] override. Non-tradable assets return "".
func LookupSymbol(cfg Config, a model.AssetClass) string {
	if !a.Tradable() {
		return ""
	}
	if s, ok := cfg.Rates.Symbols[string(a)]; ok && strings.TrimSpace(s) != "" {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	return DefaultSymbols[a]
}

// CacheTTL returns how long a cached market rate stays fresh.
// A non-positive setting disables the cache.
func CacheTTL(cfg Config) time.Duration {
	if cfg.Rates.CacheTTLHours <= 0 {
		return 0
	}
	return time.Duration(cfg.Rates.CacheTTLHours) * time.Hour
}
