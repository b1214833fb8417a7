package preciosclaros

// searchResponse is the wire shape of GET /productos.
type searchResponse struct {
	Productos []wireProduct `json:"productos"`
	Total     int           `json:"total"`
}

// wireProduct is one listing as the feed reports it. Prices arrive as a
// min/max range across outlets near the query coordinates.
type wireProduct struct {
	ID           string  `json:"id"`
	Nombre       string  `json:"nombre"`
	Marca        string  `json:"marca"`
	PrecioMin    float64 `json:"precioMin"`
	PrecioMax    float64 `json:"precioMax"`
	Presentacion string  `json:"presentacion"`
	Sucursales   int     `json:"cantSucursalesDisponible"`
}
