package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/store"
)

// RateCache persists looked-up returns between runs. *store.Cache satisfies it.
type RateCache interface {
	GetRate(symbol string, maxAge time.Duration) (store.RateEntry, bool, error)
	PutRate(e store.RateEntry) error
}

// observer is implemented by providers that can report the closes behind a
// return, so the cache keeps them too.
type observer interface {
	Latest(ctx context.Context, symbol string) (Observation, error)
}

// ResolverConfig holds the rate policy.
type ResolverConfig struct {
	// Defaults is the fallback rate per asset class. Missing entries are 0.
	Defaults map[model.AssetClass]float64
	// Symbols is the market proxy per tradable asset class.
	Symbols map[model.AssetClass]string
	// Cache is optional. CacheTTL <= 0 disables reads but not writes.
	Cache    RateCache
	CacheTTL time.Duration
	// Offline skips live lookups; fresh cache entries are still used.
	Offline bool
	Logger  zerolog.Logger
}

// Resolver assigns a growth rate to every asset class.
type Resolver struct {
	provider Provider
	cfg      ResolverConfig
	now      func() time.Time
}

// NewResolver returns a resolver using provider for live lookups.
// A nil provider behaves as offline.
func NewResolver(provider Provider, cfg ResolverConfig) *Resolver {
	return &Resolver{provider: provider, cfg: cfg, now: time.Now}
}

// Resolve returns one quote per asset class in model.AssetClasses order.
//
// Tradable assets try a fresh cache entry, then a live lookup, then the
// configured default. Non-tradable assets always get the default as policy.
func (r *Resolver) Resolve(ctx context.Context) []model.RateQuote {
	return r.resolve(ctx, true)
}

// Refresh is Resolve without cache reads: every tradable asset is looked up
// live and the cache is rewritten with the results.
func (r *Resolver) Refresh(ctx context.Context) []model.RateQuote {
	return r.resolve(ctx, false)
}

func (r *Resolver) resolve(ctx context.Context, useCache bool) []model.RateQuote {
	quotes := make([]model.RateQuote, 0, len(model.AssetClasses))
	for _, a := range model.AssetClasses {
		quotes = append(quotes, r.resolveOne(ctx, a, useCache))
	}
	return quotes
}

func (r *Resolver) resolveOne(ctx context.Context, a model.AssetClass, useCache bool) model.RateQuote {
	now := r.now()
	fallback := model.RateQuote{
		Asset:  a,
		Rate:   r.cfg.Defaults[a],
		Source: model.RateSourceDefault,
		AsOf:   now,
	}

	if !a.Tradable() {
		fallback.Source = model.RateSourcePolicy
		return fallback
	}

	symbol := r.cfg.Symbols[a]
	if symbol == "" {
		return fallback
	}
	fallback.Symbol = symbol

	if useCache && r.cfg.Cache != nil {
		entry, ok, err := r.cfg.Cache.GetRate(symbol, r.cfg.CacheTTL)
		if err != nil {
			r.cfg.Logger.Warn().Err(err).Str("symbol", symbol).Msg("rate cache read failed")
		} else if ok {
			return model.RateQuote{
				Asset:  a,
				Symbol: symbol,
				Rate:   entry.MonthlyReturn,
				Source: model.RateSourceCached,
				AsOf:   entry.FetchedAt,
			}
		}
	}

	if r.cfg.Offline || r.provider == nil {
		return fallback
	}

	entry, ok := r.lookup(ctx, symbol)
	if !ok {
		r.cfg.Logger.Info().Str("symbol", symbol).Str("asset", string(a)).
			Float64("rate", fallback.Rate).Msg("using default growth rate")
		return fallback
	}
	entry.FetchedAt = now

	if r.cfg.Cache != nil {
		if err := r.cfg.Cache.PutRate(entry); err != nil {
			r.cfg.Logger.Warn().Err(err).Str("symbol", symbol).Msg("rate cache write failed")
		}
	}

	return model.RateQuote{
		Asset:  a,
		Symbol: symbol,
		Rate:   entry.MonthlyReturn,
		Source: model.RateSourceLive,
		AsOf:   now,
	}
}

func (r *Resolver) lookup(ctx context.Context, symbol string) (store.RateEntry, bool) {
	if o, ok := r.provider.(observer); ok {
		obs, err := o.Latest(ctx, symbol)
		if err != nil {
			r.cfg.Logger.Warn().Err(err).Str("symbol", symbol).Msg("monthly return unavailable")
			return store.RateEntry{}, false
		}
		return store.RateEntry{
			Symbol:        symbol,
			MonthlyReturn: obs.MonthlyReturn,
			LatestClose:   obs.LatestClose,
			PreviousClose: obs.PreviousClose,
			ObservedOn:    obs.LatestDate,
		}, true
	}

	rate, ok := r.provider.MonthlyReturn(ctx, symbol)
	if !ok {
		return store.RateEntry{}, false
	}
	return store.RateEntry{Symbol: symbol, MonthlyReturn: rate}, true
}

// CountBySource tallies quotes per source.
func CountBySource(quotes []model.RateQuote) map[model.RateSource]int {
	out := make(map[model.RateSource]int, 4)
	for _, q := range quotes {
		out[q.Source]++
	}
	return out
}
