package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// CreatePaymentIntent handles POST /api/payment-intents
func (h *Handlers) CreatePaymentIntent(c *gin.Context) {
	var req models.QuotePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.Wrap(err, errors.KindInvalidRequest, "invalid request body"))
		return
	}

	result, err := h.orderService.QuotePayment(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret":     result.ClientSecret,
		"payment_intent_id": result.PaymentIntentID,
		"amount":            result.Amount.StringFixed(2),
	})
}

// PaymentConfig handles GET /api/config
func (h *Handlers) PaymentConfig(c *gin.Context) {
	var key *string
	if k := h.config.Payment.StripePublishableKey; k != "" {
		key = &k
	}

	c.JSON(http.StatusOK, gin.H{
		"stripe_publishable_key": key,
	})
}
