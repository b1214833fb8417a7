package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/analysis"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// StoreReader is the read-only slice of the store the API serves. The
// dashboard is a pure consumer: there are no write endpoints.
type StoreReader interface {
	RecentProducts(ctx context.Context, limit int, source string) ([]model.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]model.Product, error)
	SearchProducts(ctx context.Context, substr string) ([]model.Product, error)
	DistinctSources(ctx context.Context) ([]string, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	CategoryRollup(ctx context.Context) ([]model.CategoryStats, error)
	TimeBounds(ctx context.Context) (*model.TimeBounds, error)
	CountProducts(ctx context.Context) (int64, error)
	CountQuotes(ctx context.Context) (int64, error)
	LatestQuotes(ctx context.Context) ([]model.Quote, error)
	Ping(ctx context.Context) error
}

// Analyzer is the slice of the aggregation engine the API serves.
type Analyzer interface {
	ComputeBasket(ctx context.Context) (*analysis.BasketCost, error)
	ComputeGroupStats(ctx context.Context) ([]model.GroupStats, error)
}

// Handler serves the dashboard's read-only endpoints.
type Handler struct {
	logger   *zap.Logger
	store    StoreReader
	analyzer Analyzer
}

// NewHandler creates a Handler.
func NewHandler(logger *zap.Logger, store StoreReader, analyzer Analyzer) *Handler {
	return &Handler{logger: logger, store: store, analyzer: analyzer}
}

// RecentProducts handles GET /api/v1/products/recent?limit=&source=.
func (h *Handler) RecentProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 1000 {
		limit = 50
	}
	products, err := h.store.RecentProducts(c.Context(), limit, c.Query("source"))
	if err != nil {
		return h.fail(c, "recent_products", err)
	}
	return c.JSON(fiber.Map{"products": products, "count": len(products)})
}

// ProductsByCategory handles GET /api/v1/products/category/:category.
func (h *Handler) ProductsByCategory(c *fiber.Ctx) error {
	category, err := urlParam(c, "category")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category is required"})
	}
	products, err := h.store.ProductsByCategory(c.Context(), category)
	if err != nil {
		return h.fail(c, "products_by_category", err)
	}
	return c.JSON(fiber.Map{"category": category, "products": products, "count": len(products)})
}

// SearchProducts handles GET /api/v1/products/search?q=.
func (h *Handler) SearchProducts(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "q is required"})
	}
	products, err := h.store.SearchProducts(c.Context(), q)
	if err != nil {
		return h.fail(c, "search_products", err)
	}
	return c.JSON(fiber.Map{"query": q, "products": products, "count": len(products)})
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(c *fiber.Ctx) error {
	categories, err := h.store.DistinctCategories(c.Context())
	if err != nil {
		return h.fail(c, "categories", err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// Sources handles GET /api/v1/sources.
func (h *Handler) Sources(c *fiber.Ctx) error {
	sources, err := h.store.DistinctSources(c.Context())
	if err != nil {
		return h.fail(c, "sources", err)
	}
	return c.JSON(fiber.Map{"sources": sources})
}

// CategoryStats handles GET /api/v1/stats/categories.
func (h *Handler) CategoryStats(c *fiber.Ctx) error {
	stats, err := h.store.CategoryRollup(c.Context())
	if err != nil {
		return h.fail(c, "category_stats", err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}

// GroupStats handles GET /api/v1/stats/groups.
func (h *Handler) GroupStats(c *fiber.Ctx) error {
	stats, err := h.analyzer.ComputeGroupStats(c.Context())
	if err != nil {
		return h.fail(c, "group_stats", err)
	}
	return c.JSON(fiber.Map{"groups": stats})
}

// Basket handles GET /api/v1/basket.
func (h *Handler) Basket(c *fiber.Ctx) error {
	basket, err := h.analyzer.ComputeBasket(c.Context())
	if err != nil {
		return h.fail(c, "basket", err)
	}
	return c.JSON(basket)
}

// LatestQuotes handles GET /api/v1/quotes/latest.
func (h *Handler) LatestQuotes(c *fiber.Ctx) error {
	quotes, err := h.store.LatestQuotes(c.Context())
	if err != nil {
		return h.fail(c, "latest_quotes", err)
	}
	return c.JSON(fiber.Map{"quotes": quotes})
}

// Summary handles GET /api/v1/summary: store totals and collection period.
func (h *Handler) Summary(c *fiber.Ctx) error {
	products, err := h.store.CountProducts(c.Context())
	if err != nil {
		return h.fail(c, "summary", err)
	}
	quotes, err := h.store.CountQuotes(c.Context())
	if err != nil {
		return h.fail(c, "summary", err)
	}
	bounds, err := h.store.TimeBounds(c.Context())
	if err != nil {
		return h.fail(c, "summary", err)
	}

	resp := fiber.Map{
		"total_products": products,
		"total_quotes":   quotes,
	}
	if bounds != nil {
		resp["first_collection"] = bounds.First
		resp["last_collection"] = bounds.Last
	}
	return c.JSON(resp)
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	h.logger.Error("api."+op+".failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// urlParam reads a path parameter and URL-decodes it; category terms contain
// spaces.
func urlParam(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	if raw == "" {
		return "", fmt.Errorf("missing %s", name)
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
