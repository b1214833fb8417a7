package mercadolibre

import (
	"time"

	"github.com/canasta-labs/pricewatch/pkg/model"
)

// mapItem converts one search hit into a canonical Product.
// Returns false when the listing has no positive price.
func mapItem(w wireItem, term string, now time.Time) (model.Product, bool) {
	if w.Price <= 0 {
		return model.Product{}, false
	}

	return model.Product{
		Timestamp:  now,
		Source:     Source,
		Category:   term,
		Name:       w.Title,
		Price:      w.Price,
		ExternalID: w.ID,
		Seller:     w.Seller.Nickname,
		Link:       w.Permalink,
		Condition:  w.Condition,
		Stock:      w.AvailableQuantity,
	}, true
}
