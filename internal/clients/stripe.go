package clients

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// StripeGateway implements PaymentGateway using Stripe PaymentIntents.
type StripeGateway struct {
	api    *client.API
	logger *logging.Logger
}

// NewStripeGateway creates a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	return newStripeGateway(secretKey, nil)
}

func newStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	logger := logging.NewLogger("stripe")
	if backends == nil {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				LeveledLogger:     logger,
				MaxNetworkRetries: stripe.Int64(0),
			}),
		}
	}

	return &StripeGateway{
		api:    client.New(secretKey, backends),
		logger: logger,
	}
}

// RetrievePayment fetches a PaymentIntent by id.
func (g *StripeGateway) RetrievePayment(ctx context.Context, id string) (*models.PaymentConfirmation, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) &&
			(stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound) {
			g.logger.WithField("payment_id", id).Warn("Payment intent not found")
			return nil, nil
		}
		return nil, errors.Wrapf(err, "retrieve payment intent %s", id)
	}

	return &models.PaymentConfirmation{
		ID:          pi.ID,
		AmountMinor: pi.Amount,
		Currency:    string(pi.Currency),
		Status:      string(pi.Status),
	}, nil
}

// CreatePayment opens a PaymentIntent for the given amount.
func (g *StripeGateway) CreatePayment(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}

	g.logger.WithFields(logging.Fields{
		"payment_id": pi.ID,
		"amount":     pi.Amount,
		"currency":   pi.Currency,
	}).Info("Payment intent created")

	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}
