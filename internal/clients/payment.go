package clients

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// PaymentGateway is the external payment processor.
type PaymentGateway interface {
	// RetrievePayment returns the gateway's record of a payment, or nil if
	// the gateway does not know the id.
	RetrievePayment(ctx context.Context, id string) (*models.PaymentConfirmation, error)
	// CreatePayment opens a payment the client confirms before placing an order.
	CreatePayment(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error)
}

// Ensure StripeGateway implements PaymentGateway
var _ PaymentGateway = (*StripeGateway)(nil)
