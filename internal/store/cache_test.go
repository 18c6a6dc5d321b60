package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(DefaultPath(filepath.Join(t.TempDir(), "cache")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRateRoundTrip(t *testing.T) {
	c := openTestCache(t)

	in := RateEntry{
		Symbol:        "spy",
		MonthlyReturn: 0.0123,
		LatestClose:   512.3,
		PreviousClose: 506.07,
		ObservedOn:    "2026-09-30",
	}
	if err := c.PutRate(in); err != nil {
		t.Fatalf("PutRate: %v", err)
	}

	got, ok, err := c.GetRate("SPY", time.Hour)
	if err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	if !ok {
		t.Fatal("GetRate: fresh entry not found")
	}
	if got.Symbol != "SPY" {
		t.Errorf("Symbol = %q, want SPY", got.Symbol)
	}
	if got.MonthlyReturn != 0.0123 || got.LatestClose != 512.3 || got.ObservedOn != "2026-09-30" {
		t.Errorf("entry = %+v", got)
	}
	if got.FetchedAt.IsZero() {
		t.Error("FetchedAt not stamped")
	}
}

func TestGetRate_Staleness(t *testing.T) {
	c := openTestCache(t)

	old := RateEntry{Symbol: "AGG", MonthlyReturn: 0.002, FetchedAt: time.Now().Add(-48 * time.Hour)}
	if err := c.PutRate(old); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := c.GetRate("AGG", 24*time.Hour); err != nil || ok {
		t.Fatalf("GetRate stale = ok %v err %v, want miss", ok, err)
	}
	if _, ok, err := c.GetRate("AGG", 72*time.Hour); err != nil || !ok {
		t.Fatalf("GetRate within ttl = ok %v err %v, want hit", ok, err)
	}
	if _, ok, _ := c.GetRate("AGG", 0); ok {
		t.Fatal("GetRate with zero ttl should never hit")
	}
	if _, ok, err := c.GetRate("QQQ", time.Hour); err != nil || ok {
		t.Fatalf("GetRate unknown = ok %v err %v, want miss", ok, err)
	}
}

func TestPutRate_Replaces(t *testing.T) {
	c := openTestCache(t)

	for _, r := range []float64{0.01, 0.02} {
		if err := c.PutRate(RateEntry{Symbol: "SPY", MonthlyReturn: r}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.RateCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("RateCount = %d, want 1", n)
	}
	got, _, _ := c.GetRate("SPY", time.Hour)
	if got.MonthlyReturn != 0.02 {
		t.Errorf("MonthlyReturn = %f, want 0.02", got.MonthlyReturn)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	c := openTestCache(t)
	now := time.Now()

	_ = c.PutRate(RateEntry{Symbol: "OLD", FetchedAt: now.Add(-10 * 24 * time.Hour)})
	_ = c.PutRate(RateEntry{Symbol: "NEW", FetchedAt: now})

	n, err := c.PurgeOlderThan(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}

	all, err := c.AllRates()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Symbol != "NEW" {
		t.Fatalf("AllRates = %+v, want only NEW", all)
	}
}

func TestRefreshLog(t *testing.T) {
	c := openTestCache(t)

	if _, ok, err := c.LastRefresh(); err != nil || ok {
		t.Fatalf("LastRefresh on empty log = ok %v err %v", ok, err)
	}

	first := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)
	_ = c.RecordRefresh(RefreshRun{StartedAt: first, LiveQuotes: 2})
	_ = c.RecordRefresh(RefreshRun{StartedAt: first.Add(6 * time.Hour), FallbackQuotes: 2, Error: "rate limited"})

	last, ok, err := c.LastRefresh()
	if err != nil || !ok {
		t.Fatalf("LastRefresh = ok %v err %v", ok, err)
	}
	if last.FallbackQuotes != 2 || last.Error != "rate limited" {
		t.Errorf("last = %+v", last)
	}
	if !last.StartedAt.Equal(first.Add(6 * time.Hour)) {
		t.Errorf("StartedAt = %v", last.StartedAt)
	}
}
