package model

import (
	"fmt"
	"time"
)

// Product is one observation of a priced item at a point in time.
// Records are append-only: once persisted they are never updated or deleted,
// and there is no durable product identity across observations — "same product
// over time" can only be approximated by matching name and category.
type Product struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	Price       float64   `json:"price"`
	PriceMin    float64   `json:"price_min,omitempty"`
	PriceMax    float64   `json:"price_max,omitempty"`
	Package     string    `json:"package,omitempty"`
	ExternalID  string    `json:"external_id,omitempty"`
	OutletCount int       `json:"outlet_count,omitempty"`
	Seller      string    `json:"seller,omitempty"`
	Link        string    `json:"link,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	Stock       int       `json:"stock,omitempty"`
	Lat         float64   `json:"lat,omitempty"`
	Lng         float64   `json:"lng,omitempty"`
}

// Validate rejects records that must never reach the store: missing identity
// fields, non-positive prices, or an inconsistent price range.
func (p *Product) Validate() error {
	if p.Source == "" {
		return fmt.Errorf("product missing source")
	}
	if p.Category == "" {
		return fmt.Errorf("product missing category")
	}
	if p.Name == "" {
		return fmt.Errorf("product missing name")
	}
	if p.Price <= 0 {
		return fmt.Errorf("product %q: price must be positive, got %v", p.Name, p.Price)
	}
	if p.PriceMin > 0 && p.PriceMax > 0 {
		if p.PriceMin > p.Price || p.Price > p.PriceMax {
			return fmt.Errorf("product %q: price %v outside range [%v, %v]",
				p.Name, p.Price, p.PriceMin, p.PriceMax)
		}
	}
	return nil
}
