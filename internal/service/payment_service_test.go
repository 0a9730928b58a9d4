package service

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func TestPaymentVerifier_Gateway(t *testing.T) {
	gateway := &MockGateway{Payments: map[string]*models.PaymentConfirmation{
		"pi_ok":       {ID: "pi_ok", AmountMinor: 2999, Status: "succeeded"},
		"pi_pending":  {ID: "pi_pending", AmountMinor: 2999, Status: "requires_payment_method"},
		"pi_mismatch": {ID: "pi_mismatch", AmountMinor: 3000, Status: "succeeded"},
	}}
	m := metrics.New()
	v := NewPaymentVerifier(gateway, config.PaymentConfig{}, m)
	total := price("29.99")

	tests := []struct {
		name string
		id   string
		kind errors.Kind
	}{
		{"succeeded", "pi_ok", ""},
		{"incomplete", "pi_pending", errors.KindPaymentIncomplete},
		{"amount mismatch", "pi_mismatch", errors.KindPaymentAmountMismatch},
		{"not found", "pi_unknown", errors.KindPaymentNotFound},
		{"missing id", "", errors.KindMissingPaymentInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(context.Background(), &models.PaymentDescriptor{Method: models.PaymentMethodStripe, ID: tt.id}, total)
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, errors.KindOf(err))
		})
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PaymentChecks.WithLabelValues("stripe", "ok")))
}

func TestPaymentVerifier_GatewayErrorKeepsCause(t *testing.T) {
	cause := stderrors.New("tls handshake timeout")
	v := NewPaymentVerifier(&MockGateway{Err: cause}, config.PaymentConfig{}, metrics.New())

	err := v.Verify(context.Background(), &models.PaymentDescriptor{Method: models.PaymentMethodStripe, ID: "pi_1"}, price("1.00"))

	assert.Equal(t, errors.KindPaymentVerificationError, errors.KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestPaymentVerifier_Simulated(t *testing.T) {
	v := NewPaymentVerifier(nil, config.PaymentConfig{SimulatedTokenPrefix: "tok_sim_"}, metrics.New())

	tests := []struct {
		name string
		desc *models.PaymentDescriptor
		kind errors.Kind
	}{
		{"valid token", &models.PaymentDescriptor{Method: models.PaymentMethodSimulated, Token: "tok_sim_123"}, ""},
		{"unknown method uses simulated path", &models.PaymentDescriptor{Method: "card", Token: "tok_sim_123"}, ""},
		{"wrong prefix", &models.PaymentDescriptor{Method: models.PaymentMethodSimulated, Token: "tok_123"}, errors.KindInvalidPaymentToken},
		{"no token", &models.PaymentDescriptor{Method: models.PaymentMethodSimulated}, errors.KindMissingPaymentInfo},
		{"no descriptor", nil, errors.KindMissingPaymentInfo},
		{"gateway requested but absent", &models.PaymentDescriptor{Method: models.PaymentMethodStripe, ID: "pi_1"}, errors.KindPaymentGatewayUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(context.Background(), tt.desc, price("10.00"))
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, errors.KindOf(err))
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		minor  int64
		ok     bool
	}{
		{"949.97", 94997, true},
		{"0.005", 1, true},
		{"0", 0, true},
		{"92233720368547758.07", math.MaxInt64, true},
		{"92233720368547758.08", 0, false},
		{"5441697268023949178961.92", 0, false},
		{"-0.01", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			minor, ok := models.ToMinorUnits(price(tt.amount))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.minor, minor)
		})
	}

	minor, ok := models.ToMinorUnits(price("0.1").Mul(price("3")))
	require.True(t, ok)
	assert.Equal(t, int64(30), minor)
}

func TestVerify_UnchargeableTotal(t *testing.T) {
	gw := &MockGateway{Payments: map[string]*models.PaymentConfirmation{
		"pi_1": {ID: "pi_1", AmountMinor: math.MinInt64, Status: models.PaymentStatusSucceeded},
	}}
	v := NewPaymentVerifier(gw, config.PaymentConfig{}, metrics.New())

	err := v.Verify(context.Background(), &models.PaymentDescriptor{Method: models.PaymentMethodStripe, ID: "pi_1"}, price("5441697268023949178961.92"))

	assert.Equal(t, errors.KindPaymentAmountMismatch, errors.KindOf(err))
}
