package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

const defaultTokenPrefix = "tok_sim_"

// PaymentVerifier checks a client's payment proof against a validated total.
type PaymentVerifier struct {
	gateway     clients.PaymentGateway
	tokenPrefix string
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

// NewPaymentVerifier creates a verifier. gateway may be nil, in which case
// only simulated tokens can pass.
func NewPaymentVerifier(gateway clients.PaymentGateway, cfg config.PaymentConfig, m *metrics.Metrics) *PaymentVerifier {
	prefix := cfg.SimulatedTokenPrefix
	if prefix == "" {
		prefix = defaultTokenPrefix
	}

	return &PaymentVerifier{
		gateway:     gateway,
		tokenPrefix: prefix,
		metrics:     m,
		logger:      logging.NewLogger("payment-verifier"),
	}
}

// Verify returns nil when desc proves payment of exactly total.
func (v *PaymentVerifier) Verify(ctx context.Context, desc *models.PaymentDescriptor, total decimal.Decimal) error {
	if desc == nil {
		return errors.New(errors.KindMissingPaymentInfo, "payment information is required")
	}

	var err error
	if desc.UsesGateway() {
		err = v.verifyGateway(ctx, desc.ID, total)
	} else {
		err = v.verifySimulated(desc.Token)
	}

	if v.metrics != nil {
		result := "ok"
		if err != nil {
			result = string(errors.KindOf(err))
		}
		method := string(desc.Method)
		if !desc.UsesGateway() {
			method = string(models.PaymentMethodSimulated)
		}
		v.metrics.PaymentChecks.WithLabelValues(method, result).Inc()
	}
	return err
}

func (v *PaymentVerifier) verifyGateway(ctx context.Context, id string, total decimal.Decimal) error {
	if v.gateway == nil {
		return errors.New(errors.KindPaymentGatewayUnavailable, "payment gateway is not configured")
	}
	if id == "" {
		return errors.New(errors.KindMissingPaymentInfo, "payment id is required")
	}

	conf, err := v.gateway.RetrievePayment(ctx, id)
	if err != nil {
		v.logger.WithFields(logging.Fields{
			"payment_id": id,
			"error":      err.Error(),
		}).Error("Payment verification failed")
		return errors.Wrap(err, errors.KindPaymentVerificationError, "failed to verify payment").
			With("payment_id", id)
	}
	if conf == nil {
		return errors.Newf(errors.KindPaymentNotFound, "payment %s not found", id).
			With("payment_id", id)
	}

	expected, ok := models.ToMinorUnits(total)
	if !ok {
		return errors.New(errors.KindPaymentAmountMismatch, "order total cannot be charged").
			With("payment_id", id).
			With("total", total.StringFixed(2))
	}
	if conf.AmountMinor != expected {
		v.logger.WithFields(logging.Fields{
			"payment_id": id,
			"expected":   expected,
			"actual":     conf.AmountMinor,
		}).Warn("Payment amount mismatch")
		return errors.New(errors.KindPaymentAmountMismatch, "payment amount does not match order total").
			With("payment_id", id).
			With("expected", expected).
			With("actual", conf.AmountMinor)
	}

	if conf.Status != models.PaymentStatusSucceeded {
		return errors.Newf(errors.KindPaymentIncomplete, "payment not completed: %s", conf.Status).
			With("payment_id", id).
			With("status", conf.Status)
	}
	return nil
}

func (v *PaymentVerifier) verifySimulated(token string) error {
	if token == "" {
		return errors.New(errors.KindMissingPaymentInfo, "payment token is required")
	}
	if !strings.HasPrefix(token, v.tokenPrefix) {
		return errors.New(errors.KindInvalidPaymentToken, "invalid payment token")
	}
	return nil
}
