package marketdata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/store"
)

type stubProvider struct {
	rates map[string]float64
	calls []string
}

func (p *stubProvider) MonthlyReturn(_ context.Context, symbol string) (float64, bool) {
	p.calls = append(p.calls, symbol)
	r, ok := p.rates[symbol]
	return r, ok
}

func testPolicy() ResolverConfig {
	return ResolverConfig{
		Defaults: map[model.AssetClass]float64{
			model.AssetStocks:       0.01,
			model.AssetBonds:        0.003,
			model.AssetRealEstate:   0.004,
			model.AssetCrypto:       0.02,
			model.AssetFixedDeposit: 0.003,
		},
		Symbols: map[model.AssetClass]string{
			model.AssetStocks: "SPY",
			model.AssetBonds:  "AGG",
		},
	}
}

func quoteFor(t *testing.T, quotes []model.RateQuote, a model.AssetClass) model.RateQuote {
	t.Helper()
	for _, q := range quotes {
		if q.Asset == a {
			return q
		}
	}
	t.Fatalf("no quote for %s", a)
	return model.RateQuote{}
}

func TestResolve_NoDataForSPYFallsBackToDefault(t *testing.T) {
	p := &stubProvider{rates: map[string]float64{"AGG": 0.0042}}
	quotes := NewResolver(p, testPolicy()).Resolve(context.Background())

	require.Len(t, quotes, len(model.AssetClasses))
	for i, a := range model.AssetClasses {
		assert.Equal(t, a, quotes[i].Asset, "quotes must follow AssetClasses order")
	}

	stocks := quoteFor(t, quotes, model.AssetStocks)
	assert.Equal(t, 0.01, stocks.Rate)
	assert.Equal(t, model.RateSourceDefault, stocks.Source)
	assert.True(t, stocks.Fallback())

	bonds := quoteFor(t, quotes, model.AssetBonds)
	assert.Equal(t, 0.0042, bonds.Rate)
	assert.Equal(t, model.RateSourceLive, bonds.Source)

	crypto := quoteFor(t, quotes, model.AssetCrypto)
	assert.Equal(t, 0.02, crypto.Rate)
	assert.Equal(t, model.RateSourcePolicy, crypto.Source)
	assert.Empty(t, crypto.Symbol)

	assert.ElementsMatch(t, []string{"SPY", "AGG"}, p.calls, "non-tradable assets are never looked up")
}

func TestResolve_Offline(t *testing.T) {
	p := &stubProvider{rates: map[string]float64{"SPY": 0.05, "AGG": 0.05}}
	cfg := testPolicy()
	cfg.Offline = true

	quotes := NewResolver(p, cfg).Resolve(context.Background())
	assert.Empty(t, p.calls)
	assert.Equal(t, model.RateSourceDefault, quoteFor(t, quotes, model.AssetStocks).Source)

	quotes = NewResolver(nil, testPolicy()).Resolve(context.Background())
	assert.Equal(t, 0.003, quoteFor(t, quotes, model.AssetBonds).Rate)
}

func TestResolve_CachesLiveLookups(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	defer cache.Close()

	cfg := testPolicy()
	cfg.Cache = cache
	cfg.CacheTTL = time.Hour

	p := &stubProvider{rates: map[string]float64{"SPY": 0.012, "AGG": 0.004}}
	first := NewResolver(p, cfg).Resolve(context.Background())
	assert.Equal(t, model.RateSourceLive, quoteFor(t, first, model.AssetStocks).Source)
	assert.Len(t, p.calls, 2)

	p.calls = nil
	second := NewResolver(p, cfg).Resolve(context.Background())
	stocks := quoteFor(t, second, model.AssetStocks)
	assert.Equal(t, model.RateSourceCached, stocks.Source)
	assert.Equal(t, 0.012, stocks.Rate)
	assert.Empty(t, p.calls)

	// Refresh ignores fresh entries and rewrites them.
	p.rates["SPY"] = 0.015
	refreshed := NewResolver(p, cfg).Refresh(context.Background())
	assert.Equal(t, 0.015, quoteFor(t, refreshed, model.AssetStocks).Rate)
	entry, ok, err := cache.GetRate("SPY", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.015, entry.MonthlyReturn)
}

func TestResolve_StaleCacheFallsThroughToDefault(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.PutRate(store.RateEntry{
		Symbol:        "SPY",
		MonthlyReturn: 0.5,
		FetchedAt:     time.Now().Add(-72 * time.Hour),
	}))

	cfg := testPolicy()
	cfg.Cache = cache
	cfg.CacheTTL = 24 * time.Hour
	cfg.Offline = true

	quotes := NewResolver(nil, cfg).Resolve(context.Background())
	stocks := quoteFor(t, quotes, model.AssetStocks)
	assert.Equal(t, model.RateSourceDefault, stocks.Source)
	assert.Equal(t, 0.01, stocks.Rate)
}

func TestResolve_RatesFeedProjection(t *testing.T) {
	quotes := NewResolver(nil, testPolicy()).Resolve(context.Background())
	rates := model.RatesFromQuotes(quotes)
	for _, a := range model.AssetClasses {
		_, ok := rates[a]
		assert.True(t, ok, "missing rate for %s", a)
	}

	counts := CountBySource(quotes)
	assert.Equal(t, 2, counts[model.RateSourceDefault])
	assert.Equal(t, 3, counts[model.RateSourcePolicy])
}
