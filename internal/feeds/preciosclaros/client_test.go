package preciosclaros

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(zap.NewNop(), nil, server.URL, -34.6037, -58.3816, 5*time.Second)
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/productos", r.URL.Path)
		assert.Equal(t, "leche entera", r.URL.Query().Get("string"))
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Equal(t, "-34.6037", r.URL.Query().Get("lat"))
		assert.Equal(t, "-58.3816", r.URL.Query().Get("lng"))
		assert.Equal(t, "https://www.preciosclaros.gob.ar/", r.Header.Get("Referer"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 2,
			"productos": [
				{
					"id": "7790742331004",
					"nombre": "Leche Entera La Serenisima 1L",
					"marca": "La Serenisima",
					"precioMin": 890.5,
					"precioMax": 1050,
					"presentacion": "1.0 lt",
					"cantSucursalesDisponible": 14
				},
				{
					"id": "7790742331011",
					"nombre": "Leche Entera Armonia 1L",
					"marca": "Armonia",
					"precioMin": 810,
					"precioMax": 940,
					"presentacion": "1.0 lt",
					"cantSucursalesDisponible": 6
				}
			]
		}`))
	})

	res := client.Search(context.Background(), "leche entera", 30)

	require.NoError(t, res.Err)
	require.Len(t, res.Records, 2)

	first := res.Records[0]
	assert.Equal(t, Source, first.Source)
	assert.Equal(t, "leche entera", first.Category)
	assert.Equal(t, "Leche Entera La Serenisima 1L", first.Name)
	assert.Equal(t, "La Serenisima", first.Brand)
	assert.Equal(t, 890.5, first.Price)
	assert.Equal(t, 890.5, first.PriceMin)
	assert.Equal(t, 1050.0, first.PriceMax)
	assert.Equal(t, "1.0 lt", first.Package)
	assert.Equal(t, "7790742331004", first.ExternalID)
	assert.Equal(t, 14, first.OutletCount)
	assert.Equal(t, -34.6037, first.Lat)
	assert.False(t, first.Timestamp.IsZero())
	require.NoError(t, first.Validate())
}

func TestSearch_SkipsUnpricedListings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"productos": [
			{"id": "1", "nombre": "Sin precio", "precioMin": 0, "precioMax": 0},
			{"id": "2", "nombre": "Con precio", "precioMin": 500, "precioMax": 600}
		]}`))
	})

	res := client.Search(context.Background(), "azucar", 30)

	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Con precio", res.Records[0].Name)
}

func TestSearch_SkipsInvertedPriceRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"productos": [
			{"id": "1", "nombre": "Rango invertido", "precioMin": 100, "precioMax": 50},
			{"id": "2", "nombre": "Rango sano", "precioMin": 500, "precioMax": 600}
		]}`))
	})

	res := client.Search(context.Background(), "azucar", 30)

	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Rango sano", res.Records[0].Name)
	// Every emitted record must survive the store's batch validation.
	for _, p := range res.Records {
		require.NoError(t, p.Validate())
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	res := client.Search(context.Background(), "azucar", 30)

	assert.Error(t, res.Err)
	assert.True(t, res.Failed())
	assert.Empty(t, res.Records)
}

func TestSearch_MalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>blocked</html>`))
	})

	res := client.Search(context.Background(), "azucar", 30)

	assert.True(t, res.Failed())
}

func TestSearch_NoMatches(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total": 0, "productos": []}`))
	})

	res := client.Search(context.Background(), "categoria inexistente", 30)

	require.NoError(t, res.Err)
	assert.True(t, res.Empty())
	assert.False(t, res.Failed())
}
