package mercadolibre

// searchResponse is the wire shape of GET /sites/MLA/search.
type searchResponse struct {
	Results []wireItem `json:"results"`
}

type wireItem struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Price             float64    `json:"price"`
	CurrencyID        string     `json:"currency_id"`
	Permalink         string     `json:"permalink"`
	Condition         string     `json:"condition"`
	AvailableQuantity int        `json:"available_quantity"`
	Seller            wireSeller `json:"seller"`
}

type wireSeller struct {
	Nickname string `json:"nickname"`
}
