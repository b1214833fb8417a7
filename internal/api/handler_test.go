package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/analysis"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// --- fakes ---

type fakeStore struct {
	products   []model.Product
	categories []string
	sources    []string
	quotes     []model.Quote
	bounds     *model.TimeBounds
	pingErr    error
	err        error

	// lastCategory records the decoded path parameter for assertions.
	lastCategory string
}

func (s *fakeStore) RecentProducts(_ context.Context, limit int, _ string) ([]model.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.products) {
		return s.products[:limit], nil
	}
	return s.products, nil
}

func (s *fakeStore) ProductsByCategory(_ context.Context, category string) ([]model.Product, error) {
	s.lastCategory = category
	return s.products, s.err
}

func (s *fakeStore) SearchProducts(_ context.Context, _ string) ([]model.Product, error) {
	return s.products, s.err
}

func (s *fakeStore) DistinctSources(_ context.Context) ([]string, error)    { return s.sources, s.err }
func (s *fakeStore) DistinctCategories(_ context.Context) ([]string, error) { return s.categories, s.err }

func (s *fakeStore) CategoryRollup(_ context.Context) ([]model.CategoryStats, error) {
	return nil, s.err
}

func (s *fakeStore) TimeBounds(_ context.Context) (*model.TimeBounds, error) { return s.bounds, s.err }
func (s *fakeStore) CountProducts(_ context.Context) (int64, error) {
	return int64(len(s.products)), s.err
}
func (s *fakeStore) CountQuotes(_ context.Context) (int64, error) { return int64(len(s.quotes)), s.err }
func (s *fakeStore) LatestQuotes(_ context.Context) ([]model.Quote, error) {
	return s.quotes, s.err
}
func (s *fakeStore) Ping(_ context.Context) error { return s.pingErr }

type fakeAnalyzer struct {
	basket *analysis.BasketCost
	groups []model.GroupStats
	err    error
}

func (a *fakeAnalyzer) ComputeBasket(_ context.Context) (*analysis.BasketCost, error) {
	return a.basket, a.err
}

func (a *fakeAnalyzer) ComputeGroupStats(_ context.Context) ([]model.GroupStats, error) {
	return a.groups, a.err
}

// --- helpers ---

func newTestApp(store *fakeStore, analyzer *fakeAnalyzer) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, NewHandler(zap.NewNop(), store, analyzer))
	return app
}

func doRequest(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &decoded))
	}
	return resp, decoded
}

// --- tests ---

func TestHealth(t *testing.T) {
	store := &fakeStore{}
	resp, body := doRequest(t, newTestApp(store, &fakeAnalyzer{}), "/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_Degraded(t *testing.T) {
	store := &fakeStore{pingErr: errors.New("connection refused")}
	resp, body := doRequest(t, newTestApp(store, &fakeAnalyzer{}), "/health")

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
}

func TestRecentProducts(t *testing.T) {
	store := &fakeStore{products: []model.Product{
		{Source: "PreciosClaros", Category: "azucar", Name: "Azucar Ledesma 1kg", Price: 900, Timestamp: time.Now()},
	}}
	resp, body := doRequest(t, newTestApp(store, &fakeAnalyzer{}), "/api/v1/products/recent?limit=10")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])
}

func TestProductsByCategory_DecodesPathParam(t *testing.T) {
	store := &fakeStore{}
	resp, _ := doRequest(t, newTestApp(store, &fakeAnalyzer{}), "/api/v1/products/category/leche%20entera")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "leche entera", store.lastCategory)
}

func TestSearchProducts_RequiresQuery(t *testing.T) {
	resp, body := doRequest(t, newTestApp(&fakeStore{}, &fakeAnalyzer{}), "/api/v1/products/search")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "q is required", body["error"])
}

func TestBasket(t *testing.T) {
	analyzer := &fakeAnalyzer{basket: &analysis.BasketCost{
		Total:     decimal.NewFromInt(9400),
		Found:     3,
		Requested: 3,
	}}
	resp, body := doRequest(t, newTestApp(&fakeStore{}, analyzer), "/api/v1/basket")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "9400", body["total"])
	assert.EqualValues(t, 3, body["found"])
}

func TestSummary(t *testing.T) {
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	last := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{
		products: []model.Product{{Name: "a"}, {Name: "b"}},
		quotes:   []model.Quote{{Name: "Blue"}},
		bounds:   &model.TimeBounds{First: first, Last: last},
	}
	resp, body := doRequest(t, newTestApp(store, &fakeAnalyzer{}), "/api/v1/summary")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total_products"])
	assert.EqualValues(t, 1, body["total_quotes"])
	assert.Contains(t, body, "first_collection")
}

func TestSummary_EmptyStoreOmitsBounds(t *testing.T) {
	resp, body := doRequest(t, newTestApp(&fakeStore{}, &fakeAnalyzer{}), "/api/v1/summary")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "first_collection")
}

func TestStoreErrorReturns500(t *testing.T) {
	store := &fakeStore{err: errors.New("relation does not exist")}
	resp, body := doRequest(t, newTestApp(store, &fakeAnalyzer{}), "/api/v1/categories")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	// Internal details never leak to clients.
	assert.Equal(t, "internal error", body["error"])
}
