package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS market_rates (
    symbol               TEXT PRIMARY KEY,
    monthly_return       REAL NOT NULL,
    latest_close         REAL,
    previous_close       REAL,
    observed_on          TEXT,
    fetched_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_runs (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at           TEXT NOT NULL,
    live_quotes          INTEGER NOT NULL,
    fallback_quotes      INTEGER NOT NULL,
    error                TEXT
);

CREATE INDEX IF NOT EXISTS idx_market_rates_fetched ON market_rates(fetched_at);
`
