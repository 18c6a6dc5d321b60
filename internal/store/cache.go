// Package store provides a SQLite-backed cache for market rate lookups.
//
// Only public market data is stored here. Budgets, projections, advice and
// chat transcripts are never written to disk.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// RateEntry is one cached monthly return for a ticker.
type RateEntry struct {
	Symbol        string
	MonthlyReturn float64
	LatestClose   float64
	PreviousClose float64
	ObservedOn    string // date of the latest observation, YYYY-MM-DD
	FetchedAt     time.Time
}

// RefreshRun records one scheduled rate refresh.
type RefreshRun struct {
	StartedAt      time.Time
	LiveQuotes     int
	FallbackQuotes int
	Error          string
}

// Cache provides SQLite-backed rate caching.
type Cache struct {
	db *sql.DB
}

// DefaultPath returns the cache database location under dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "rates.db")
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// GetRate returns the cached entry for symbol if it was fetched within maxAge.
// A non-positive maxAge never matches.
func (c *Cache) GetRate(symbol string, maxAge time.Duration) (RateEntry, bool, error) {
	if maxAge <= 0 {
		return RateEntry{}, false, nil
	}

	var e RateEntry
	var latest, previous sql.NullFloat64
	var observed sql.NullString
	var fetched string
	err := c.db.QueryRow(`SELECT symbol, monthly_return, latest_close, previous_close, observed_on, fetched_at
		FROM market_rates WHERE symbol = ?`, normalizeSymbol(symbol)).
		Scan(&e.Symbol, &e.MonthlyReturn, &latest, &previous, &observed, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return RateEntry{}, false, nil
	}
	if err != nil {
		return RateEntry{}, false, fmt.Errorf("reading rate %s: %w", symbol, err)
	}

	e.LatestClose = latest.Float64
	e.PreviousClose = previous.Float64
	e.ObservedOn = observed.String
	e.FetchedAt, err = time.Parse(timeLayout, fetched)
	if err != nil {
		return RateEntry{}, false, fmt.Errorf("parsing fetched_at for %s: %w", symbol, err)
	}

	if time.Since(e.FetchedAt) > maxAge {
		return e, false, nil
	}
	return e, true, nil
}

// PutRate stores or replaces the entry for e.Symbol. A zero FetchedAt is
// stamped with the current time.
func (c *Cache) PutRate(e RateEntry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}
	_, err := c.db.Exec(`INSERT OR REPLACE INTO market_rates
		(symbol, monthly_return, latest_close, previous_close, observed_on, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		normalizeSymbol(e.Symbol), e.MonthlyReturn, e.LatestClose, e.PreviousClose,
		e.ObservedOn, e.FetchedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("storing rate %s: %w", e.Symbol, err)
	}
	return nil
}

// AllRates returns every cached entry, fresh or not, ordered by symbol.
func (c *Cache) AllRates() ([]RateEntry, error) {
	rows, err := c.db.Query(`SELECT symbol, monthly_return, latest_close, previous_close, observed_on, fetched_at
		FROM market_rates ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RateEntry
	for rows.Next() {
		var e RateEntry
		var latest, previous sql.NullFloat64
		var observed sql.NullString
		var fetched string
		if err := rows.Scan(&e.Symbol, &e.MonthlyReturn, &latest, &previous, &observed, &fetched); err != nil {
			return nil, err
		}
		e.LatestClose = latest.Float64
		e.PreviousClose = previous.Float64
		e.ObservedOn = observed.String
		e.FetchedAt, _ = time.Parse(timeLayout, fetched)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PurgeOlderThan deletes entries fetched before cutoff and returns how many went.
func (c *Cache) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := c.db.Exec("DELETE FROM market_rates WHERE fetched_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordRefresh appends a refresh run to the log.
func (c *Cache) RecordRefresh(r RefreshRun) error {
	var errText sql.NullString
	if r.Error != "" {
		errText = sql.NullString{String: r.Error, Valid: true}
	}
	_, err := c.db.Exec(`INSERT INTO refresh_runs (started_at, live_quotes, fallback_quotes, error)
		VALUES (?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(timeLayout), r.LiveQuotes, r.FallbackQuotes, errText,
	)
	return err
}

// LastRefresh returns the most recent refresh run, if any.
func (c *Cache) LastRefresh() (RefreshRun, bool, error) {
	var r RefreshRun
	var started string
	var errText sql.NullString
	err := c.db.QueryRow(`SELECT started_at, live_quotes, fallback_quotes, error
		FROM refresh_runs ORDER BY id DESC LIMIT 1`).
		Scan(&started, &r.LiveQuotes, &r.FallbackQuotes, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return RefreshRun{}, false, nil
	}
	if err != nil {
		return RefreshRun{}, false, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	r.Error = errText.String
	return r, true, nil
}

// RateCount returns the number of cached symbols.
func (c *Cache) RateCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM market_rates").Scan(&count)
	return count, err
}
