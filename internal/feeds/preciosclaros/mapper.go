package preciosclaros

import (
	"time"

	"github.com/canasta-labs/pricewatch/pkg/model"
)

// mapProduct converts one wire listing into a canonical Product.
// The canonical price is the minimum of the reported range, matching how the
// basket-cost analysis treats "the price" of a listing. Returns false when the
// listing has no positive minimum price or reports an inverted price range;
// such listings must never reach the store, where one invalid record would
// roll back the whole batch.
func mapProduct(w wireProduct, term string, now time.Time, lat, lng float64) (model.Product, bool) {
	if w.PrecioMin <= 0 {
		return model.Product{}, false
	}
	if w.PrecioMax > 0 && w.PrecioMax < w.PrecioMin {
		return model.Product{}, false
	}

	return model.Product{
		Timestamp:   now,
		Source:      Source,
		Category:    term,
		Name:        w.Nombre,
		Brand:       w.Marca,
		Price:       w.PrecioMin,
		PriceMin:    w.PrecioMin,
		PriceMax:    w.PrecioMax,
		Package:     w.Presentacion,
		ExternalID:  w.ID,
		OutletCount: w.Sucursales,
		Lat:         lat,
		Lng:         lng,
	}, true
}
