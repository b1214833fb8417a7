package mercadolibre

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/httpclient"
	"github.com/canasta-labs/pricewatch/internal/metrics"
	"github.com/canasta-labs/pricewatch/internal/rate"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// Source is the feed identifier recorded on every product.
const Source = "MercadoLibre"

// foodCategory restricts searches to the "Alimentos y Bebidas" category, which
// keeps grocery terms from matching appliances and the like.
const foodCategory = "MLA1403"

// Client fetches listings from the MercadoLibre public search API.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewClient constructs a MercadoLibre search client.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, baseURL string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		logger:  logger,
		exec:    httpclient.New(logger, rateMgr, httpClient, 2, "mercadolibre"),
		baseURL: baseURL,
	}
}

// Name returns the feed identifier.
func (c *Client) Name() string { return Source }

// Search fetches listings for one term. Failures are captured in the result,
// never raised. Listings without a positive price are skipped.
func (c *Client) Search(ctx context.Context, term string, limit int) model.FetchResult[model.Product] {
	result := model.FetchResult[model.Product]{Source: Source, Term: term}

	q := url.Values{}
	q.Set("q", term)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("category", foodCategory)

	reqURL := fmt.Sprintf("%s/sites/MLA/search?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		result.Err = err
		return result
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	var resp searchResponse
	err = c.exec.DoJSON(ctx, req, "mercadolibre", &resp)
	metrics.ObserveFetch("mercadolibre", start, err)
	if err != nil {
		c.logger.Warn("mercadolibre.search_failed",
			zap.String("term", term),
			zap.Error(err))
		result.Err = err
		return result
	}

	now := time.Now()
	for _, w := range resp.Results {
		p, ok := mapItem(w, term, now)
		if !ok {
			continue
		}
		result.Records = append(result.Records, p)
	}

	c.logger.Debug("mercadolibre.search_done",
		zap.String("term", term),
		zap.Int("listings", len(resp.Results)),
		zap.Int("kept", len(result.Records)))
	return result
}
