package dolarapi

// wireQuote is one named quote as GET /dolares reports it.
type wireQuote struct {
	Nombre             string  `json:"nombre"`
	Compra             float64 `json:"compra"`
	Venta              float64 `json:"venta"`
	Moneda             string  `json:"moneda"`
	FechaActualizacion string  `json:"fechaActualizacion"`
}
