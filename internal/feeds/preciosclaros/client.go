package preciosclaros

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
const Source = "PreciosClaros"

// Client fetches product listings from the Precios Claros API for one
// coordinate context. The endpoint is public but expects browser-ish headers.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
	lat     float64
	lng     float64
}

// NewClient constructs a Precios Claros client anchored at the given coordinates.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, baseURL string, lat, lng float64, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		logger:  logger,
		exec:    httpclient.New(logger, rateMgr, httpClient, 2, "preciosclaros"),
		baseURL: baseURL,
		lat:     lat,
		lng:     lng,
	}
}

// Name returns the feed identifier.
func (c *Client) Name() string { return Source }

// Search fetches listings for one term. Any failure (transport, non-2xx,
// malformed payload) is captured in the result's Err; it is never raised.
// Listings without a positive minimum price are silently skipped — that is
// this adapter's only validity gate, richer filtering happens downstream.
func (c *Client) Search(ctx context.Context, term string, limit int) model.FetchResult[model.Product] {
	result := model.FetchResult[model.Product]{Source: Source, Term: term}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", "0")
	q.Set("string", term)
	q.Set("lat", strconv.FormatFloat(c.lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(c.lng, 'f', -1, 64))

	reqURL := fmt.Sprintf("%s/productos?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		result.Err = err
		return result
	}
	setHeaders(req)

	start := time.Now()
	var resp searchResponse
	err = c.exec.DoJSON(ctx, req, "preciosclaros", &resp)
	metrics.ObserveFetch("preciosclaros", start, err)
	if err != nil {
		c.logger.Warn("preciosclaros.search_failed",
			zap.String("term", term),
			zap.Error(err))
		result.Err = err
		return result
	}

	now := time.Now()
	for _, w := range resp.Productos {
		p, ok := mapProduct(w, term, now, c.lat, c.lng)
		if !ok {
			continue
		}
		result.Records = append(result.Records, p)
	}

	c.logger.Debug("preciosclaros.search_done",
		zap.String("term", term),
		zap.Int("listings", len(resp.Productos)),
		zap.Int("kept", len(result.Records)))
	return result
}

// setHeaders sets the headers the Precios Claros endpoint expects.
func setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://www.preciosclaros.gob.ar/")
}
