package service

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/ratelimit"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
)

// OrderService runs the order placement pipeline and serves committed orders.
type OrderService struct {
	users          UserRepository
	catalog        CatalogRepository
	orders         OrderRepository
	orderCache     repository.OrderCache
	limiter        ratelimit.Limiter
	gateway        clients.PaymentGateway
	payments       *PaymentVerifier
	eventPublisher OrderEventPublisher
	metrics        *metrics.Metrics
	config         *config.Config
	logger         *logging.Logger
	now            func() time.Time
}

// NewOrderService creates a new order service. gateway may be nil when no
// payment gateway is configured.
func NewOrderService(
	users UserRepository,
	catalog CatalogRepository,
	orders OrderRepository,
	orderCache repository.OrderCache,
	limiter ratelimit.Limiter,
	gateway clients.PaymentGateway,
	eventPublisher OrderEventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		users:          users,
		catalog:        catalog,
		orders:         orders,
		orderCache:     orderCache,
		limiter:        limiter,
		gateway:        gateway,
		payments:       NewPaymentVerifier(gateway, cfg.Payment, m),
		eventPublisher: eventPublisher,
		metrics:        m,
		config:         cfg,
		logger:         logging.NewLogger("order-service"),
		now:            time.Now,
	}
}

// PlaceOrder validates, throttles, checks payment for and commits one order.
// Nothing is written unless every stage before the commit succeeds.
func (s *OrderService) PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest) (result *models.PlaceOrderResult, err error) {
	start := time.Now()
	defer func() {
		kind := ""
		if err != nil {
			kind = string(errors.KindOf(err))
			s.logger.WithFields(logging.Fields{
				"kind":  kind,
				"error": err.Error(),
			}).Warn("Order rejected")
		}
		s.metrics.ObservePlacement(start, kind)
	}()

	if err := ValidatePlaceOrderRequest(req); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"user_id":    req.UserID,
		"item_count": len(req.Items),
	}).Info("Placing order")

	if _, err := s.verifiedUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	quote, err := s.priceCart(ctx, req.Items, req.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, req.UserID); err != nil {
		return nil, err
	}

	if err := s.payments.Verify(ctx, req.Payment, quote.Total); err != nil {
		return nil, err
	}

	order, err := s.orders.CommitOrder(ctx, &models.OrderDraft{
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		Lines:           quote.Lines,
		Total:           quote.Total,
	})
	if err != nil {
		if !errors.IsKind(err, errors.KindOrderCommitFailed) {
			err = errors.Wrap(err, errors.KindOrderCommitFailed, "failed to commit order")
		}
		return nil, err
	}

	s.afterCommit(ctx, order)

	s.logger.WithFields(logging.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total.StringFixed(2),
	}).Info("Order placed")

	return &models.PlaceOrderResult{OrderID: order.ID, Total: order.Total}, nil
}

func (s *OrderService) verifiedUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "failed to load user")
	}
	if user == nil {
		return nil, errors.New(errors.KindInvalidUser, "invalid user").With("user_id", id)
	}
	if !user.Verified {
		return nil, errors.New(errors.KindInvalidUser, "user email not verified").With("user_id", id)
	}
	return user, nil
}

func (s *OrderService) priceCart(ctx context.Context, lines []models.CartLine, expected *decimal.Decimal) (*models.Quote, error) {
	products, err := s.catalog.GetProducts(ctx, models.ProductIDs(lines))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "failed to load products")
	}
	return PriceCart(lines, models.NewCatalog(products), expected)
}

// checkRate applies the submission rate gate. A limiter that cannot reach
// its store lets the submission through.
func (s *OrderService) checkRate(ctx context.Context, userID int64) error {
	decision, err := s.limiter.Allow(ctx, strconv.FormatInt(userID, 10), s.now())
	if err != nil {
		s.metrics.RateGateDecisions.WithLabelValues("error").Inc()
		s.logger.WithFields(logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Rate limiter unavailable, allowing submission")
		return nil
	}

	if !decision.Allowed {
		s.metrics.RateGateDecisions.WithLabelValues(string(decision.Reason)).Inc()
		return errors.New(errors.KindRateLimited, "too many order attempts, please wait").
			With("reason", string(decision.Reason)).
			With("retry_after", int(math.Ceil(decision.RetryAfter.Seconds())))
	}

	s.metrics.RateGateDecisions.WithLabelValues("allowed").Inc()
	return nil
}

func (s *OrderService) afterCommit(ctx context.Context, order *models.Order) {
	if s.config.Features.EnableOrderCaching {
		if err := s.orderCache.Set(ctx, order); err != nil {
			// Log but don't fail
			s.logger.WithFields(logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			}).Error("Failed to cache order")
		}
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderPlaced(ctx, order); err != nil {
			s.logger.WithFields(logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			}).Error("Failed to publish order placed event")
		}
	}
}

// QuotePayment prices a cart and opens a gateway payment for its total. The
// client confirms that payment and then places the order with its id.
func (s *OrderService) QuotePayment(ctx context.Context, req *models.QuotePaymentRequest) (*models.QuotePaymentResult, error) {
	if err := ValidateQuotePaymentRequest(req); err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, errors.New(errors.KindPaymentGatewayUnavailable, "payment provider not configured on server")
	}

	user, err := s.verifiedUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	quote, err := s.priceCart(ctx, req.Items, nil)
	if err != nil {
		return nil, err
	}

	amount, ok := models.ToMinorUnits(quote.Total)
	if !ok {
		return nil, errors.New(errors.KindInvalidPrice, "order total out of chargeable range").
			With("total", quote.Total.StringFixed(2))
	}

	items, err := json.Marshal(req.Items)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "failed to encode items")
	}

	intent, err := s.gateway.CreatePayment(ctx, models.PaymentIntentRequest{
		AmountMinor:  amount,
		Currency:     s.currency(),
		ReceiptEmail: user.Email,
		Metadata: map[string]string{
			"user_id": strconv.FormatInt(req.UserID, 10),
			"items":   string(items),
		},
	})
	if err != nil {
		s.logger.WithFields(logging.Fields{
			"user_id": req.UserID,
			"error":   err.Error(),
		}).Error("Failed to create payment intent")
		return nil, errors.Wrap(err, errors.KindPaymentVerificationError, "failed to create payment intent")
	}

	return &models.QuotePaymentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          quote.Total,
	}, nil
}

func (s *OrderService) currency() string {
	if s.config.Payment.Currency != "" {
		return s.config.Payment.Currency
	}
	return models.DefaultCurrency
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	if s.config.Features.EnableOrderCaching {
		if order, err := s.orderCache.Get(ctx, id); err == nil && order != nil {
			s.logger.WithField("order_id", id).Debug("Order found in cache")
			return order, nil
		}
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching {
		if err := s.orderCache.Set(ctx, order); err != nil {
			s.logger.WithFields(logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			}).Warn("Failed to cache order")
		}
	}
	return order, nil
}

// ListUserOrders returns a page of a user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error) {
	limit, offset, err := NormalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	}).Debug("Listing user orders")

	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// UpdateOrderStatus applies a lifecycle transition. Cancelling an order
// returns its items to stock.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"order_id":   id,
		"new_status": status,
	}).Info("Updating order status")

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.metrics.StatusUpdates.WithLabelValues(string(status)).Inc()

	if s.config.Features.EnableOrderCaching {
		if err := s.orderCache.Delete(ctx, id); err != nil {
			s.logger.WithFields(logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			}).Warn("Failed to invalidate cached order")
		}
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, order); err != nil {
			s.logger.WithFields(logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			}).Error("Failed to publish status change event")
		}
	}
	return order, nil
}
