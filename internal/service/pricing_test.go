package service

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func testCatalog() models.Catalog {
	return models.NewCatalog([]models.Product{
		{ID: 1, Price: price("10.00"), Stock: 3},
		{ID: 2, Price: price("0.10"), Stock: 100},
		{ID: 3, Price: price("250.00"), BuildPrice: decimal.NewNullDecimal(price("230.00")), Stock: 2},
		{ID: 4, Price: price("-1.00"), Stock: 5},
	})
}

func TestPriceCart(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.CartLine
		total string
		units []string
	}{
		{
			name:  "single line",
			lines: []models.CartLine{{ProductID: 1, Quantity: 3}},
			total: "30.00",
			units: []string{"10.00"},
		},
		{
			name:  "no float drift",
			lines: []models.CartLine{{ProductID: 2, Quantity: 3}},
			total: "0.30",
			units: []string{"0.10"},
		},
		{
			name:  "build price applies only to build lines",
			lines: []models.CartLine{{ProductID: 3, Quantity: 1, IsBuild: true}, {ProductID: 3, Quantity: 1}},
			total: "480.00",
			units: []string{"230.00", "250.00"},
		},
		{
			name:  "build flag without build price",
			lines: []models.CartLine{{ProductID: 1, Quantity: 1, IsBuild: true}},
			total: "10.00",
			units: []string{"10.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := PriceCart(tt.lines, testCatalog(), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.total, quote.Total.StringFixed(2))
			require.Len(t, quote.Lines, len(tt.units))
			for i, u := range tt.units {
				assert.Equal(t, u, quote.Lines[i].UnitPrice.StringFixed(2))
			}
		})
	}
}

func TestPriceCart_Errors(t *testing.T) {
	tests := []struct {
		name      string
		lines     []models.CartLine
		kind      errors.Kind
		productID int64
	}{
		{"negative quantity", []models.CartLine{{ProductID: 1, Quantity: -1}}, errors.KindInvalidQuantity, 1},
		{"unknown product", []models.CartLine{{ProductID: 99, Quantity: 1}}, errors.KindProductNotFound, 99},
		{"negative price", []models.CartLine{{ProductID: 4, Quantity: 1}}, errors.KindInvalidPrice, 4},
		{"over stock", []models.CartLine{{ProductID: 1, Quantity: 4}}, errors.KindInsufficientStock, 1},
		{"first failing line wins", []models.CartLine{{ProductID: 99, Quantity: 1}, {ProductID: 1, Quantity: 0}}, errors.KindProductNotFound, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := PriceCart(tt.lines, testCatalog(), nil)
			assert.Nil(t, quote)

			e, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.productID, e.Details["product_id"])
		})
	}
}

func TestPriceCart_InsufficientStockDetails(t *testing.T) {
	_, err := PriceCart([]models.CartLine{{ProductID: 3, Quantity: 1}, {ProductID: 3, Quantity: 2}}, testCatalog(), nil)

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindInsufficientStock, e.Kind)
	assert.Equal(t, 3, e.Details["requested"])
	assert.Equal(t, 2, e.Details["available"])
}

func TestPriceCart_DuplicateLinesCannotWrapStock(t *testing.T) {
	catalog := models.NewCatalog([]models.Product{{ID: 6, Price: price("589.99"), Stock: 5}})

	tests := []struct {
		name  string
		lines []models.CartLine
	}{
		{"small then huge", []models.CartLine{{ProductID: 6, Quantity: 1}, {ProductID: 6, Quantity: math.MaxInt}}},
		{"two huge", []models.CartLine{{ProductID: 6, Quantity: math.MaxInt}, {ProductID: 6, Quantity: math.MaxInt}}},
		{"exact stock then one", []models.CartLine{{ProductID: 6, Quantity: 5}, {ProductID: 6, Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := PriceCart(tt.lines, catalog, nil)
			assert.Nil(t, quote)

			e, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.KindInsufficientStock, e.Kind)
			assert.Equal(t, 5, e.Details["available"])
			assert.Greater(t, e.Details["requested"], 5)
		})
	}
}

func TestPriceCart_ExpectedTotal(t *testing.T) {
	lines := []models.CartLine{{ProductID: 1, Quantity: 2}}

	for _, claimed := range []string{"20.00", "20.01", "19.99"} {
		expected := price(claimed)
		_, err := PriceCart(lines, testCatalog(), &expected)
		assert.NoError(t, err, claimed)
	}

	for _, claimed := range []string{"20.02", "19.98", "0"} {
		expected := price(claimed)
		_, err := PriceCart(lines, testCatalog(), &expected)
		assert.Equal(t, errors.KindTotalMismatch, errors.KindOf(err), claimed)
	}
}
