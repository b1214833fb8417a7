package model

import "time"

// CategoryStats is a per-category aggregate over the full product history.
type CategoryStats struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Mean     float64 `json:"mean"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// GroupStats is the same aggregate shape over a named set of categories.
type GroupStats struct {
	Group string  `json:"group"`
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// TimeBounds are the first and last collection instants across all products.
type TimeBounds struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}
