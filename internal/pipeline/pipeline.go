package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/analysis"
	"github.com/canasta-labs/pricewatch/internal/config"
	"github.com/canasta-labs/pricewatch/internal/filter"
	"github.com/canasta-labs/pricewatch/internal/metrics"
	"github.com/canasta-labs/pricewatch/internal/publisher"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// SubjectRunCompleted is published after every run, failed or not.
const SubjectRunCompleted = "evt.pricewatch.run_completed.v1"

// ProductFeed is a source adapter for priced listings.
type ProductFeed interface {
	Name() string
	Search(ctx context.Context, term string, limit int) model.FetchResult[model.Product]
}

// QuoteFeed is a source adapter for currency quotes.
type QuoteFeed interface {
	Name() string
	Fetch(ctx context.Context) model.FetchResult[model.Quote]
}

// Saver is the write-plus-counts slice of the store the pipeline needs.
type Saver interface {
	SaveProducts(ctx context.Context, records []model.Product) (int, error)
	SaveQuotes(ctx context.Context, records []model.Quote) (int, error)
	CountProducts(ctx context.Context) (int64, error)
	CountQuotes(ctx context.Context) (int64, error)
}

// Analyzer computes the run summary aggregates.
type Analyzer interface {
	ComputeBasket(ctx context.Context) (*analysis.BasketCost, error)
	ComputeGroupStats(ctx context.Context) ([]model.GroupStats, error)
	CategoryRollup(ctx context.Context) ([]model.CategoryStats, error)
}

// Archiver writes the per-source CSV archive of a run.
type Archiver interface {
	WriteProducts(source string, ts time.Time, records []model.Product) (string, error)
	WriteQuotes(source string, ts time.Time, records []model.Quote) (string, error)
}

// RunReport carries the counters of one pipeline run.
type RunReport struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	ProductsFetched   int `json:"products_fetched"`
	ProductsDropped   int `json:"products_dropped"`
	ProductsPersisted int `json:"products_persisted"`
	QuotesFetched     int `json:"quotes_fetched"`
	QuotesPersisted   int `json:"quotes_persisted"`

	// FailedTerms lists feed/term pairs whose fetch itself failed, as opposed
	// to terms that matched nothing. Operators alert on the former only.
	FailedTerms []string `json:"failed_terms,omitempty"`
	EmptyTerms  []string `json:"empty_terms,omitempty"`

	StoreProducts int64 `json:"store_products"`
	StoreQuotes   int64 `json:"store_quotes"`

	Failed bool `json:"failed"`
}

// Pipeline sequences one collection run: Fetch → Filter → Persist → Backup →
// Summarize. Stages never branch back, every stage failure is caught and
// logged, and a run always ends with a terminal completed/failed log line.
// There is no retry inside a run; the next scheduled run is the retry.
type Pipeline struct {
	logger       *zap.Logger
	cfg          *config.Config
	productFeeds []ProductFeed
	quoteFeeds   []QuoteFeed
	filter       *filter.Filter
	store        Saver
	analyzer     Analyzer
	archiver     Archiver
	publisher    *publisher.Publisher
}

// New wires a Pipeline. archiver and pub may be nil (backup/eventing disabled).
func New(
	logger *zap.Logger,
	cfg *config.Config,
	productFeeds []ProductFeed,
	quoteFeeds []QuoteFeed,
	flt *filter.Filter,
	store Saver,
	analyzer Analyzer,
	archiver Archiver,
	pub *publisher.Publisher,
) *Pipeline {
	return &Pipeline{
		logger:       logger,
		cfg:          cfg,
		productFeeds: productFeeds,
		quoteFeeds:   quoteFeeds,
		filter:       flt,
		store:        store,
		analyzer:     analyzer,
		archiver:     archiver,
		publisher:    pub,
	}
}

// Run executes one full collection run and returns its report.
func (p *Pipeline) Run(ctx context.Context) RunReport {
	report := RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := p.logger.With(zap.String("run_id", report.RunID))
	log.Info("pipeline.run_started",
		zap.Int("categories", len(p.cfg.Categories)),
		zap.Int("product_feeds", len(p.productFeeds)),
		zap.Int("quote_feeds", len(p.quoteFeeds)))

	// ── Fetch ──
	products, quotes := p.fetch(ctx, log, &report)
	report.ProductsFetched = len(products)
	report.QuotesFetched = len(quotes)

	// ── Filter ──
	kept, dropped := p.filter.Apply(products)
	report.ProductsDropped = len(dropped)
	log.Info("pipeline.filtered",
		zap.Int("before", len(products)),
		zap.Int("after", len(kept)),
		zap.Int("dropped", len(dropped)))

	// ── Persist ──
	var productsErr, quotesErr error
	report.ProductsPersisted, productsErr = p.store.SaveProducts(ctx, kept)
	if productsErr != nil {
		log.Error("pipeline.persist_products_failed", zap.Error(productsErr))
	}
	report.QuotesPersisted, quotesErr = p.store.SaveQuotes(ctx, quotes)
	if quotesErr != nil {
		log.Error("pipeline.persist_quotes_failed", zap.Error(quotesErr))
	}
	report.Failed = productsErr != nil || quotesErr != nil

	// ── Backup ── best-effort: only the records that actually committed.
	if p.archiver != nil {
		if productsErr == nil {
			p.archiveProducts(log, report.StartedAt, kept)
		}
		if quotesErr == nil {
			p.archiveQuotes(log, report.StartedAt, quotes)
		}
	}

	// ── Summarize ──
	p.summarize(ctx, log, &report)

	report.Duration = time.Since(report.StartedAt)
	metrics.RunDuration.Observe(report.Duration.Seconds())
	metrics.LastRunTimestamp.Set(float64(time.Now().Unix()))

	if err := p.publisher.Publish(SubjectRunCompleted, report); err != nil {
		log.Warn("pipeline.publish_failed", zap.Error(err))
	}

	if report.Failed {
		log.Error("pipeline.run_failed",
			zap.Duration("duration", report.Duration),
			zap.Int("products_persisted", report.ProductsPersisted),
			zap.Int("quotes_persisted", report.QuotesPersisted))
	} else {
		log.Info("pipeline.run_completed",
			zap.Duration("duration", report.Duration),
			zap.Int("products_persisted", report.ProductsPersisted),
			zap.Int("quotes_persisted", report.QuotesPersisted),
			zap.Int("dropped", report.ProductsDropped))
	}
	return report
}

// fetch queries every configured feed. Product feeds run per category term;
// one term failing never aborts the rest.
func (p *Pipeline) fetch(ctx context.Context, log *zap.Logger, report *RunReport) ([]model.Product, []model.Quote) {
	var products []model.Product
	for _, feed := range p.productFeeds {
		feedStart := len(products)
		for _, term := range p.cfg.Categories {
			res := feed.Search(ctx, term, p.cfg.Feeds.LimitPerCategory)
			metrics.RecordsFetched.WithLabelValues(feed.Name()).Add(float64(len(res.Records)))
			switch {
			case res.Failed():
				report.FailedTerms = append(report.FailedTerms, feed.Name()+"/"+term)
				log.Warn("pipeline.fetch_term_failed",
					zap.String("feed", feed.Name()),
					zap.String("term", term),
					zap.Error(res.Err))
			case res.Empty():
				report.EmptyTerms = append(report.EmptyTerms, feed.Name()+"/"+term)
			default:
				products = append(products, res.Records...)
			}
		}
		log.Info("pipeline.feed_fetched",
			zap.String("feed", feed.Name()),
			zap.Int("records", len(products)-feedStart))
	}

	var quotes []model.Quote
	for _, feed := range p.quoteFeeds {
		res := feed.Fetch(ctx)
		metrics.RecordsFetched.WithLabelValues(feed.Name()).Add(float64(len(res.Records)))
		if res.Failed() {
			report.FailedTerms = append(report.FailedTerms, feed.Name())
			log.Warn("pipeline.fetch_quotes_failed",
				zap.String("feed", feed.Name()),
				zap.Error(res.Err))
			continue
		}
		quotes = append(quotes, res.Records...)
	}

	log.Info("pipeline.fetched",
		zap.Int("products", len(products)),
		zap.Int("quotes", len(quotes)),
		zap.Int("failed_terms", len(report.FailedTerms)),
		zap.Int("empty_terms", len(report.EmptyTerms)))
	return products, quotes
}

func (p *Pipeline) archiveProducts(log *zap.Logger, ts time.Time, records []model.Product) {
	bySource := make(map[string][]model.Product)
	for _, rec := range records {
		bySource[rec.Source] = append(bySource[rec.Source], rec)
	}
	for source, recs := range bySource {
		if _, err := p.archiver.WriteProducts(source, ts, recs); err != nil {
			log.Warn("pipeline.backup_failed",
				zap.String("source", source),
				zap.Error(err))
			metrics.IncError("backup", "write_products")
		}
	}
}

func (p *Pipeline) archiveQuotes(log *zap.Logger, ts time.Time, records []model.Quote) {
	bySource := make(map[string][]model.Quote)
	for _, rec := range records {
		bySource[rec.Source] = append(bySource[rec.Source], rec)
	}
	for source, recs := range bySource {
		if _, err := p.archiver.WriteQuotes(source, ts, recs); err != nil {
			log.Warn("pipeline.backup_failed",
				zap.String("source", source),
				zap.Error(err))
			metrics.IncError("backup", "write_quotes")
		}
	}
}

// summarize logs the store totals and the derived aggregates. Failures here
// are logged and swallowed: a summary problem must not fail a run whose data
// already committed.
func (p *Pipeline) summarize(ctx context.Context, log *zap.Logger, report *RunReport) {
	var err error
	if report.StoreProducts, err = p.store.CountProducts(ctx); err != nil {
		log.Warn("pipeline.summary_count_failed", zap.Error(err))
	}
	if report.StoreQuotes, err = p.store.CountQuotes(ctx); err != nil {
		log.Warn("pipeline.summary_count_failed", zap.Error(err))
	}
	log.Info("pipeline.store_totals",
		zap.Int64("products", report.StoreProducts),
		zap.Int64("quotes", report.StoreQuotes))

	if p.analyzer == nil {
		return
	}

	basket, err := p.analyzer.ComputeBasket(ctx)
	if err != nil {
		log.Warn("pipeline.summary_basket_failed", zap.Error(err))
	} else {
		log.Info("pipeline.basket_cost",
			zap.String("total", basket.Total.StringFixed(2)),
			zap.Int("found", basket.Found),
			zap.Int("requested", basket.Requested))
	}

	groups, err := p.analyzer.ComputeGroupStats(ctx)
	if err != nil {
		log.Warn("pipeline.summary_groups_failed", zap.Error(err))
	}
	for _, g := range groups {
		log.Info("pipeline.group_stats",
			zap.String("group", g.Group),
			zap.Int64("count", g.Count),
			zap.Float64("mean", g.Mean),
			zap.Float64("min", g.Min),
			zap.Float64("max", g.Max))
	}

	rollup, err := p.analyzer.CategoryRollup(ctx)
	if err != nil {
		log.Warn("pipeline.summary_rollup_failed", zap.Error(err))
		return
	}
	for _, s := range rollup {
		log.Info("pipeline.category_stats",
			zap.String("category", s.Category),
			zap.Int64("count", s.Count),
			zap.Float64("mean", s.Mean),
			zap.Float64("min", s.Min),
			zap.Float64("max", s.Max))
	}
}
