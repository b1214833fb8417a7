package analysis

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/config"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// Reader is the read-only slice of the store the engine needs. The engine
// never mutates stored data; every computation is a fresh derivation over the
// full history. That full-scan approach is acceptable only because collection
// runs a few times a day — it is not a pattern to carry to larger volumes.
type Reader interface {
	CheapestInCategory(ctx context.Context, category string) (*model.Product, error)
	StatsForCategories(ctx context.Context, categories []string) (model.CategoryStats, error)
	CategoryRollup(ctx context.Context) ([]model.CategoryStats, error)
}

// BasketItem is one basket category priced at its cheapest-ever observation.
type BasketItem struct {
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Product  model.Product   `json:"product"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// BasketCost is the cost-of-living proxy: the sum over the configured basket
// of cheapest-ever price × quantity.
type BasketCost struct {
	Items []BasketItem    `json:"items"`
	Total decimal.Decimal `json:"total"`
	// Found of Requested basket categories had at least one record.
	Found     int `json:"found"`
	Requested int `json:"requested"`
}

// Engine computes derived views over the store's history.
type Engine struct {
	logger *zap.Logger
	reader Reader
	cfg    *config.Config
}

// New constructs an Engine bound to a read-only store handle.
func New(logger *zap.Logger, reader Reader, cfg *config.Config) *Engine {
	return &Engine{logger: logger, reader: reader, cfg: cfg}
}

// ComputeBasket prices the configured basket. For each basket category, in
// configured order, it takes the single cheapest record ever observed (ties
// broken by lowest id) and multiplies its price by the configured quantity
// (default 1). Categories with no records are skipped with a warning; they
// contribute nothing to the total and do not abort the computation.
func (e *Engine) ComputeBasket(ctx context.Context) (*BasketCost, error) {
	result := &BasketCost{
		Total:     decimal.Zero,
		Requested: len(e.cfg.Basket),
	}

	for _, item := range e.cfg.Basket {
		cheapest, err := e.reader.CheapestInCategory(ctx, item.Category)
		if err != nil {
			return nil, err
		}
		if cheapest == nil {
			e.logger.Warn("analysis.basket_category_empty",
				zap.String("category", item.Category))
			continue
		}

		qty := e.cfg.BasketQuantity(item.Category)
		subtotal := decimal.NewFromFloat(cheapest.Price).Mul(decimal.NewFromInt(int64(qty)))

		result.Items = append(result.Items, BasketItem{
			Category: item.Category,
			Quantity: qty,
			Product:  *cheapest,
			Subtotal: subtotal,
		})
		result.Total = result.Total.Add(subtotal)
		result.Found++
	}

	return result, nil
}

// ComputeGroupStats aggregates count/mean/min/max price per configured group,
// in declaration order. Groups with zero matching records are omitted
// entirely, not reported as zero.
func (e *Engine) ComputeGroupStats(ctx context.Context) ([]model.GroupStats, error) {
	var out []model.GroupStats
	for _, g := range e.cfg.Groups {
		stats, err := e.reader.StatsForCategories(ctx, g.Categories)
		if err != nil {
			return nil, err
		}
		if stats.Count == 0 {
			continue
		}
		out = append(out, model.GroupStats{
			Group: g.Name,
			Count: stats.Count,
			Mean:  stats.Mean,
			Min:   stats.Min,
			Max:   stats.Max,
		})
	}
	return out, nil
}

// CategoryRollup returns the per-category count/mean/min/max aggregates over
// the full history, most-populated categories first.
func (e *Engine) CategoryRollup(ctx context.Context) ([]model.CategoryStats, error) {
	return e.reader.CategoryRollup(ctx)
}

// CheapestPerCategory returns the cheapest observed product for each of the
// given categories (all configured categories when nil), skipping categories
// without records. The explorer uses this as a "smart shopping list".
func (e *Engine) CheapestPerCategory(ctx context.Context, categories []string) ([]model.Product, error) {
	if categories == nil {
		categories = e.cfg.Categories
	}
	var out []model.Product
	for _, cat := range categories {
		cheapest, err := e.reader.CheapestInCategory(ctx, cat)
		if err != nil {
			return nil, err
		}
		if cheapest == nil {
			continue
		}
		out = append(out, *cheapest)
	}
	return out, nil
}
