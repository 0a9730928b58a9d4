package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func TestMain(m *testing.M) {
	logging.Silence()
	os.Exit(m.Run())
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backends := &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(srv.URL),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
			MaxNetworkRetries: stripe.Int64(0),
		}),
	}
	return newStripeGateway("sk_test_123", backends)
}

func TestStripeGateway_RetrievePayment(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":94997,"currency":"usd","status":"succeeded"}`))
	})

	conf, err := gw.RetrievePayment(context.Background(), "pi_123")
	require.NoError(t, err)
	require.NotNil(t, conf)

	assert.Equal(t, "pi_123", conf.ID)
	assert.Equal(t, int64(94997), conf.AmountMinor)
	assert.Equal(t, "usd", conf.Currency)
	assert.Equal(t, models.PaymentStatusSucceeded, conf.Status)
}

func TestStripeGateway_RetrievePayment_Missing(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"resource_missing","type":"invalid_request_error","message":"No such payment_intent: 'pi_x'"}}`))
	})

	conf, err := gw.RetrievePayment(context.Background(), "pi_x")
	require.NoError(t, err)
	assert.Nil(t, conf)
}

func TestStripeGateway_RetrievePayment_GatewayError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"internal"}}`))
	})

	conf, err := gw.RetrievePayment(context.Background(), "pi_123")
	assert.Error(t, err)
	assert.Nil(t, conf)
}

func TestStripeGateway_CreatePayment(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "94997", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[user_id]"))
		assert.Equal(t, "ada@gmail.com", r.PostForm.Get("receipt_email"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_new","object":"payment_intent","amount":94997,"currency":"usd","client_secret":"pi_new_secret","status":"requires_payment_method"}`))
	})

	intent, err := gw.CreatePayment(context.Background(), models.PaymentIntentRequest{
		AmountMinor:  94997,
		Currency:     "usd",
		ReceiptEmail: "ada@gmail.com",
		Metadata:     map[string]string{"user_id": "7"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_new", intent.ID)
	assert.Equal(t, "pi_new_secret", intent.ClientSecret)
	assert.Equal(t, int64(94997), intent.AmountMinor)
}
