package dolarapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/internal/httpclient"
	"github.com/canasta-labs/pricewatch/internal/metrics"
	"github.com/canasta-labs/pricewatch/internal/rate"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// Source is the feed identifier recorded on every quote.
const Source = "DolarAPI"

// Client fetches USD quote types (Blue, Oficial, MEP, ...) from DolarAPI.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewClient constructs a DolarAPI client.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, baseURL string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		logger:  logger,
		exec:    httpclient.New(logger, rateMgr, httpClient, 2, "dolarapi"),
		baseURL: baseURL,
	}
}

// Name returns the feed identifier.
func (c *Client) Name() string { return Source }

// Fetch retrieves all current quote types. Failures are captured in the
// result, never raised.
func (c *Client) Fetch(ctx context.Context) model.FetchResult[model.Quote] {
	result := model.FetchResult[model.Quote]{Source: Source}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dolares", nil)
	if err != nil {
		result.Err = err
		return result
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	var resp []wireQuote
	err = c.exec.DoJSON(ctx, req, "dolarapi", &resp)
	metrics.ObserveFetch("dolarapi", start, err)
	if err != nil {
		c.logger.Warn("dolarapi.fetch_failed", zap.Error(err))
		result.Err = err
		return result
	}

	now := time.Now()
	for _, w := range resp {
		q, ok := mapQuote(w, now)
		if !ok {
			continue
		}
		result.Records = append(result.Records, q)
	}

	c.logger.Debug("dolarapi.fetch_done", zap.Int("quotes", len(result.Records)))
	return result
}
