package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func TestValidatePlaceOrderRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.PlaceOrderRequest
		wantErr bool
	}{
		{"valid", &models.PlaceOrderRequest{UserID: 1, Items: []models.CartLine{{ProductID: 1, Quantity: 1}}}, false},
		{"nil request", nil, true},
		{"missing user", &models.PlaceOrderRequest{Items: []models.CartLine{{ProductID: 1, Quantity: 1}}}, true},
		{"no items", &models.PlaceOrderRequest{UserID: 1}, true},
		{"missing product id", &models.PlaceOrderRequest{UserID: 1, Items: []models.CartLine{{Quantity: 1}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlaceOrderRequest(tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, errors.KindInvalidRequest, errors.KindOf(err))
		})
	}
}

func TestNormalizePage(t *testing.T) {
	limit, offset, err := NormalizePage(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, defaultListLimit, limit)
	assert.Equal(t, 0, offset)

	limit, _, err = NormalizePage(1000, 5)
	assert.NoError(t, err)
	assert.Equal(t, maxListLimit, limit)

	_, _, err = NormalizePage(10, -1)
	assert.Error(t, err)
}

func TestValidateStatus(t *testing.T) {
	assert.NoError(t, ValidateStatus(models.OrderStatusShipped))
	assert.Error(t, ValidateStatus("refunded"))
}
