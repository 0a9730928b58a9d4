package handlers

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// OrderService is the checkout behaviour the HTTP layer exposes.
type OrderService interface {
	PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest) (*models.PlaceOrderResult, error)
	QuotePayment(ctx context.Context, req *models.QuotePaymentRequest) (*models.QuotePaymentResult, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handlers holds all HTTP handlers for the checkout service.
type Handlers struct {
	orderService OrderService
	checks       map[string]HealthCheck
	config       *config.Config
	logger       *logging.Logger
}

// NewHandlers creates a new handlers instance. checks are run by the
// readiness probe.
func NewHandlers(orderService OrderService, checks map[string]HealthCheck, cfg *config.Config) *Handlers {
	return &Handlers{
		orderService: orderService,
		checks:       checks,
		config:       cfg,
		logger:       logging.NewLogger("handlers"),
	}
}
