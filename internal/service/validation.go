package service

import (
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ValidatePlaceOrderRequest checks the shape of an order submission. Pricing,
// stock and payment are checked later in the pipeline.
func ValidatePlaceOrderRequest(req *models.PlaceOrderRequest) error {
	if req == nil {
		return errors.New(errors.KindInvalidRequest, "request body is required")
	}
	return validateCart(req.UserID, req.Items)
}

// ValidateQuotePaymentRequest checks the shape of a payment intent request.
func ValidateQuotePaymentRequest(req *models.QuotePaymentRequest) error {
	if req == nil {
		return errors.New(errors.KindInvalidRequest, "request body is required")
	}
	return validateCart(req.UserID, req.Items)
}

func validateCart(userID int64, items []models.CartLine) error {
	if userID <= 0 {
		return errors.New(errors.KindInvalidRequest, "user_id is required").
			With("field", "user_id")
	}
	if len(items) == 0 {
		return errors.New(errors.KindInvalidRequest, "at least one item is required").
			With("field", "items")
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return errors.New(errors.KindInvalidRequest, "product_id is required for every item").
				With("field", "items")
		}
	}
	return nil
}

// NormalizePage clamps list pagination to sane bounds.
func NormalizePage(limit, offset int) (int, int, error) {
	if limit < 0 {
		return 0, 0, errors.New(errors.KindInvalidRequest, "limit cannot be negative").With("field", "limit")
	}
	if offset < 0 {
		return 0, 0, errors.New(errors.KindInvalidRequest, "offset cannot be negative").With("field", "offset")
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, offset, nil
}

// ValidateStatus checks that status names a known lifecycle state.
func ValidateStatus(status models.OrderStatus) error {
	if !status.Valid() {
		return errors.Newf(errors.KindInvalidRequest, "invalid order status %q", status).
			With("field", "status")
	}
	return nil
}
