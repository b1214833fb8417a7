package store

import "context"

// Schema statements. Both tables are append-only observation logs with a
// surrogate identity; the indexes back the (source, category), (ts, source)
// and (name, ts) lookups the query layer uses.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id           BIGSERIAL PRIMARY KEY,
		ts           TIMESTAMPTZ NOT NULL,
		source       TEXT NOT NULL,
		category     TEXT NOT NULL,
		name         TEXT NOT NULL,
		brand        TEXT NOT NULL DEFAULT '',
		price        DOUBLE PRECISION NOT NULL,
		price_min    DOUBLE PRECISION NOT NULL DEFAULT 0,
		price_max    DOUBLE PRECISION NOT NULL DEFAULT 0,
		package      TEXT NOT NULL DEFAULT '',
		external_id  TEXT NOT NULL DEFAULT '',
		outlet_count INT NOT NULL DEFAULT 0,
		seller       TEXT NOT NULL DEFAULT '',
		link         TEXT NOT NULL DEFAULT '',
		condition    TEXT NOT NULL DEFAULT '',
		stock        INT NOT NULL DEFAULT 0,
		lat          DOUBLE PRECISION NOT NULL DEFAULT 0,
		lng          DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_source_category ON products (source, category)`,
	`CREATE INDEX IF NOT EXISTS idx_products_ts_source ON products (ts, source)`,
	`CREATE TABLE IF NOT EXISTS quotes (
		id                BIGSERIAL PRIMARY KEY,
		ts                TIMESTAMPTZ NOT NULL,
		source            TEXT NOT NULL,
		name              TEXT NOT NULL,
		buy               DOUBLE PRECISION NOT NULL,
		sell              DOUBLE PRECISION NOT NULL,
		currency          TEXT NOT NULL DEFAULT 'USD',
		source_updated_at TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quotes_name_ts ON quotes (name, ts)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
