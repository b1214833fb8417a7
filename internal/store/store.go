package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/metrics"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// Store is the single source of truth for collected observations. It owns the
// products and quotes tables exclusively; everything above it reads through
// the query methods and never mutates. There is no cache in front of it.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// PoolConfig tunes the underlying pgx pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// New connects to Postgres and returns a Store handle. The handle is passed
// explicitly to every component that needs it; there is no package-level pool.
func New(ctx context.Context, databaseURL string, poolCfg PoolConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		cfg.MinConns = poolCfg.MinConns
	}

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

//
// ── Writes ──────────────────────────────────────────────────────────
//

const insertProductSQL = `
	INSERT INTO products (
		ts, source, category, name, brand,
		price, price_min, price_max, package, external_id,
		outlet_count, seller, link, condition, stock, lat, lng
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

// SaveProducts inserts a batch of products in one transaction. Either every
// record commits or none does; a failure rolls the whole batch back. An empty
// batch is a successful no-op.
func (s *Store) SaveProducts(ctx context.Context, records []model.Product) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return 0, fmt.Errorf("invalid product in batch: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range records {
		if _, err := tx.Exec(ctx, insertProductSQL,
			rec.Timestamp, rec.Source, rec.Category, rec.Name, rec.Brand,
			rec.Price, rec.PriceMin, rec.PriceMax, rec.Package, rec.ExternalID,
			rec.OutletCount, rec.Seller, rec.Link, rec.Condition, rec.Stock,
			rec.Lat, rec.Lng,
		); err != nil {
			s.logger.Error("store.save_products_failed",
				zap.String("category", rec.Category),
				zap.Error(err))
			metrics.IncError("store", "insert_product")
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error("store.save_products_commit_failed", zap.Error(err))
		metrics.IncError("store", "commit_products")
		return 0, err
	}

	metrics.RowsPersisted.WithLabelValues("products").Add(float64(len(records)))
	return len(records), nil
}

const insertQuoteSQL = `
	INSERT INTO quotes (ts, source, name, buy, sell, currency, source_updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// SaveQuotes inserts a batch of quotes in one transaction, with the same
// all-or-nothing contract as SaveProducts.
func (s *Store) SaveQuotes(ctx context.Context, records []model.Quote) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return 0, fmt.Errorf("invalid quote in batch: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range records {
		if _, err := tx.Exec(ctx, insertQuoteSQL,
			rec.Timestamp, rec.Source, rec.Name, rec.Buy, rec.Sell,
			rec.Currency, rec.SourceUpdatedAt,
		); err != nil {
			s.logger.Error("store.save_quotes_failed",
				zap.String("name", rec.Name),
				zap.Error(err))
			metrics.IncError("store", "insert_quote")
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error("store.save_quotes_commit_failed", zap.Error(err))
		metrics.IncError("store", "commit_quotes")
		return 0, err
	}

	metrics.RowsPersisted.WithLabelValues("quotes").Add(float64(len(records)))
	return len(records), nil
}

//
// ── Product reads ───────────────────────────────────────────────────
//

const productColumns = `id, ts, source, category, name, brand,
	price, price_min, price_max, package, external_id,
	outlet_count, seller, link, condition, stock, lat, lng`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Timestamp, &p.Source, &p.Category, &p.Name, &p.Brand,
		&p.Price, &p.PriceMin, &p.PriceMax, &p.Package, &p.ExternalID,
		&p.OutletCount, &p.Seller, &p.Link, &p.Condition, &p.Stock, &p.Lat, &p.Lng)
	return p, err
}

func (s *Store) queryProducts(ctx context.Context, sql string, args ...any) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecentProducts returns the most recent limit products, newest first,
// optionally filtered by source ("" means all sources).
func (s *Store) RecentProducts(ctx context.Context, limit int, source string) ([]model.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($2 = '' OR source = $2)
		ORDER BY ts DESC, id DESC
		LIMIT $1`, limit, source)
}

// ProductsByCategory returns every product with the exact category value,
// cheapest first. Category values are never normalized across synonyms;
// callers own that grouping.
func (s *Store) ProductsByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE category = $1
		ORDER BY price ASC, id ASC`, category)
}

// SearchProducts returns products whose name contains substr,
// case-insensitively, cheapest first.
func (s *Store) SearchProducts(ctx context.Context, substr string) ([]model.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY price ASC, id ASC`, substr)
}

// TopProducts returns the limit cheapest (or most expensive) products overall.
func (s *Store) TopProducts(ctx context.Context, limit int, cheapest bool) ([]model.Product, error) {
	order := "DESC"
	if cheapest {
		order = "ASC"
	}
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY price `+order+`, id ASC
		LIMIT $1`, limit)
}

// AllProducts returns the full product history, oldest first. Export-only.
func (s *Store) AllProducts(ctx context.Context) ([]model.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY id ASC`)
}

// CheapestInCategory returns the single cheapest product ever observed in a
// category, or nil when the category has no records. Ties on price are broken
// by lowest id so the result is deterministic.
func (s *Store) CheapestInCategory(ctx context.Context, category string) (*model.Product, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE category = $1
		ORDER BY price ASC, id ASC
		LIMIT 1`, category)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DistinctSources returns every source value observed to date.
func (s *Store) DistinctSources(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT source FROM products ORDER BY source`)
}

// DistinctCategories returns every category value observed to date.
func (s *Store) DistinctCategories(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
}

func (s *Store) queryStrings(ctx context.Context, sql string) ([]string, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// TimeBounds returns the first and last collection instants, or nil when the
// store holds no products yet.
func (s *Store) TimeBounds(ctx context.Context) (*model.TimeBounds, error) {
	var first, last *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MIN(ts), MAX(ts) FROM products`).Scan(&first, &last)
	if err != nil {
		return nil, err
	}
	if first == nil || last == nil {
		return nil, nil
	}
	return &model.TimeBounds{First: *first, Last: *last}, nil
}

// CountProducts returns the total number of stored products.
func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

// CountQuotes returns the total number of stored quotes.
func (s *Store) CountQuotes(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n)
	return n, err
}

//
// ── Aggregate reads ─────────────────────────────────────────────────
//

// CategoryRollup returns count/mean/min/max price per category, most
// populated categories first.
func (s *Store) CategoryRollup(ctx context.Context) ([]model.CategoryStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, COUNT(*), AVG(price), MIN(price), MAX(price)
		FROM products
		GROUP BY category
		ORDER BY COUNT(*) DESC, category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CategoryStats
	for rows.Next() {
		var cs model.CategoryStats
		if err := rows.Scan(&cs.Category, &cs.Count, &cs.Mean, &cs.Min, &cs.Max); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// StatsForCategories returns count/mean/min/max price across the union of the
// given categories. Count is zero when none of them have records.
func (s *Store) StatsForCategories(ctx context.Context, categories []string) (model.CategoryStats, error) {
	var cs model.CategoryStats
	var mean, lo, hi *float64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), AVG(price), MIN(price), MAX(price)
		FROM products
		WHERE category = ANY($1)`, categories).Scan(&cs.Count, &mean, &lo, &hi)
	if err != nil {
		return cs, err
	}
	if mean != nil {
		cs.Mean, cs.Min, cs.Max = *mean, *lo, *hi
	}
	return cs, nil
}

//
// ── Quote reads ─────────────────────────────────────────────────────
//

const quoteColumns = `id, ts, source, name, buy, sell, currency, source_updated_at`

func (s *Store) queryQuotes(ctx context.Context, sql string, args ...any) ([]model.Quote, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Quote
	for rows.Next() {
		var q model.Quote
		if err := rows.Scan(&q.ID, &q.Timestamp, &q.Source, &q.Name, &q.Buy, &q.Sell,
			&q.Currency, &q.SourceUpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RecentQuotes returns the most recent limit quotes, newest first.
func (s *Store) RecentQuotes(ctx context.Context, limit int) ([]model.Quote, error) {
	return s.queryQuotes(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		ORDER BY ts DESC, id DESC
		LIMIT $1`, limit)
}

// LatestQuotes returns the latest observation of each quote type, highest
// sell price first — the side-by-side comparison view.
func (s *Store) LatestQuotes(ctx context.Context) ([]model.Quote, error) {
	return s.queryQuotes(ctx, `
		SELECT `+quoteColumns+` FROM (
			SELECT DISTINCT ON (name) `+quoteColumns+`
			FROM quotes
			ORDER BY name, ts DESC, id DESC
		) latest
		ORDER BY sell DESC`)
}
