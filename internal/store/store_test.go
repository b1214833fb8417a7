package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/pkg/model"
)

// newBatchStore builds a Store with no pool. The batch entry points must
// resolve empty input and validation failures before ever touching the pool,
// so these tests would panic on a nil dereference if that contract broke.
func newBatchStore() *Store {
	return &Store{logger: zap.NewNop()}
}

func validProduct() model.Product {
	return model.Product{
		Timestamp: time.Now(),
		Source:    "PreciosClaros",
		Category:  "leche entera",
		Name:      "Leche La Serenisima 1L",
		Price:     890.5,
	}
}

func TestSaveProducts_EmptyBatchIsNoOp(t *testing.T) {
	s := newBatchStore()

	n, err := s.SaveProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.SaveProducts(context.Background(), []model.Product{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveQuotes_EmptyBatchIsNoOp(t *testing.T) {
	s := newBatchStore()

	n, err := s.SaveQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveProducts_RejectsInvalidRecord(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Product)
	}{
		{name: "zero price", mutate: func(p *model.Product) { p.Price = 0 }},
		{name: "missing category", mutate: func(p *model.Product) { p.Category = "" }},
		{
			name: "price outside reported range",
			mutate: func(p *model.Product) {
				p.PriceMin, p.Price, p.PriceMax = 100, 100, 50
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newBatchStore()
			bad := validProduct()
			tt.mutate(&bad)

			// One bad record rejects the batch before any insert begins.
			n, err := s.SaveProducts(context.Background(), []model.Product{validProduct(), bad})
			require.Error(t, err)
			assert.Zero(t, n)
			assert.Contains(t, err.Error(), "invalid product in batch")
		})
	}
}

func TestSaveQuotes_RejectsInvalidRecord(t *testing.T) {
	s := newBatchStore()

	n, err := s.SaveQuotes(context.Background(), []model.Quote{
		{Timestamp: time.Now(), Source: "DolarAPI", Name: "Blue", Buy: 1230, Sell: 1250},
		{Timestamp: time.Now(), Source: "DolarAPI"},
	})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "invalid quote in batch")
}
