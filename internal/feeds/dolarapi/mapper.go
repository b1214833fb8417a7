package dolarapi

import (
	"time"

	"github.com/canasta-labs/pricewatch/pkg/model"
)

// mapQuote converts one wire quote into a canonical Quote. Returns false for
// unnamed quotes, which would fail the store's batch validation.
func mapQuote(w wireQuote, now time.Time) (model.Quote, bool) {
	if w.Nombre == "" {
		return model.Quote{}, false
	}
	currency := w.Moneda
	if currency == "" {
		currency = "USD"
	}
	return model.Quote{
		Timestamp:       now,
		Source:          Source,
		Name:            w.Nombre,
		Buy:             w.Compra,
		Sell:            w.Venta,
		Currency:        currency,
		SourceUpdatedAt: w.FechaActualizacion,
	}, true
}
