package filter

import (
	"strings"

	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/config"
	"github.com/canasta-labs/pricewatch/internal/metrics"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// Drop reasons, recorded on every rejected record.
const (
	ReasonPriceCeiling  = "price_ceiling"
	ReasonContradiction = "contradiction"
)

// Dropped describes one record rejected by the filter.
type Dropped struct {
	Category string
	Name     string
	Price    float64
	Reason   string
	// Keyword is the forbidden substring that matched, for contradiction drops.
	Keyword string
}

// Filter applies advisory noise-reduction rules to fetched products before
// persistence: an absolute price ceiling guarding against unit/parsing errors
// in the feeds, and per-category forbidden keywords catching listings that
// contradict their category (a "sin azucar" product under "azucar").
// It is not a correctness guarantee; bad data slipping through is acceptable.
type Filter struct {
	logger  *zap.Logger
	ceiling float64
	// rules keeps per-category forbidden substrings, lowercased, in
	// declaration order. First match wins.
	rules map[string][]string
}

// New builds a Filter from the configured rules.
func New(logger *zap.Logger, cfg config.FilterRules) *Filter {
	rules := make(map[string][]string, len(cfg.Contradictions))
	for _, r := range cfg.Contradictions {
		kws := make([]string, 0, len(r.Forbidden))
		for _, kw := range r.Forbidden {
			kws = append(kws, strings.ToLower(kw))
		}
		rules[r.Category] = kws
	}
	return &Filter{logger: logger, ceiling: cfg.PriceCeiling, rules: rules}
}

// Apply returns the records considered valid for persistence plus the drop
// report. Applying the filter to its own output returns it unchanged.
func (f *Filter) Apply(records []model.Product) ([]model.Product, []Dropped) {
	kept := make([]model.Product, 0, len(records))
	var dropped []Dropped

	for _, rec := range records {
		if rec.Price >= f.ceiling {
			dropped = append(dropped, Dropped{
				Category: rec.Category,
				Name:     rec.Name,
				Price:    rec.Price,
				Reason:   ReasonPriceCeiling,
			})
			metrics.FilterDropped.WithLabelValues(ReasonPriceCeiling).Inc()
			continue
		}

		if kw, hit := f.contradicts(rec); hit {
			dropped = append(dropped, Dropped{
				Category: rec.Category,
				Name:     rec.Name,
				Price:    rec.Price,
				Reason:   ReasonContradiction,
				Keyword:  kw,
			})
			metrics.FilterDropped.WithLabelValues(ReasonContradiction).Inc()
			continue
		}

		kept = append(kept, rec)
	}

	if len(dropped) > 0 {
		f.logReport(dropped)
	}
	return kept, dropped
}

// contradicts checks the record name against its category's forbidden
// substrings, case-insensitively, in declaration order.
func (f *Filter) contradicts(rec model.Product) (string, bool) {
	kws, ok := f.rules[rec.Category]
	if !ok {
		return "", false
	}
	name := strings.ToLower(rec.Name)
	for _, kw := range kws {
		if strings.Contains(name, kw) {
			return kw, true
		}
	}
	return "", false
}

// logReport summarizes drops per category for the run log.
func (f *Filter) logReport(dropped []Dropped) {
	perCategory := make(map[string]int)
	for _, d := range dropped {
		perCategory[d.Category]++
	}
	for cat, n := range perCategory {
		f.logger.Info("filter.dropped",
			zap.String("category", cat),
			zap.Int("count", n))
	}
}
