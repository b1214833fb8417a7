package model

import (
	"fmt"
	"time"
)

// Quote is one observation of a currency buy/sell quote.
// Same append-only, unbounded-retention lifecycle as Product.
type Quote struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Name      string    `json:"name"`
	Buy       float64   `json:"buy"`
	Sell      float64   `json:"sell"`
	Currency  string    `json:"currency"`
	// SourceUpdatedAt is the feed's own "last updated" stamp, kept verbatim.
	SourceUpdatedAt string `json:"source_updated_at,omitempty"`
}

// Validate checks required fields. Buy <= Sell is expected from every feed we
// know of but deliberately not enforced here.
func (q *Quote) Validate() error {
	if q.Source == "" {
		return fmt.Errorf("quote missing source")
	}
	if q.Name == "" {
		return fmt.Errorf("quote missing name")
	}
	return nil
}
