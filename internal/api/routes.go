package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the health check, Prometheus metrics, and the
// read-only dashboard API.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(healthCtx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"checks": fiber.Map{"store": err.Error()},
			})
		}
		return c.JSON(fiber.Map{
			"status": "ok",
			"checks": fiber.Map{"store": "ok"},
		})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/products/recent", h.RecentProducts)
	v1.Get("/products/category/:category", h.ProductsByCategory)
	v1.Get("/products/search", h.SearchProducts)
	v1.Get("/categories", h.Categories)
	v1.Get("/sources", h.Sources)
	v1.Get("/stats/categories", h.CategoryStats)
	v1.Get("/stats/groups", h.GroupStats)
	v1.Get("/basket", h.Basket)
	v1.Get("/quotes/latest", h.LatestQuotes)
	v1.Get("/summary", h.Summary)
}
