package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// PlaceOrder handles POST /api/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.Wrap(err, errors.KindInvalidRequest, "invalid request body"))
		return
	}

	result, err := h.orderService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Order placed successfully",
		"order_id": result.OrderID,
		"total":    result.Total.StringFixed(2),
	})
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListUserOrders handles GET /api/users/:user_id/orders
func (h *Handlers) ListUserOrders(c *gin.Context) {
	userID, err := int64Param(c, "user_id")
	if err != nil {
		handleError(c, err)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		handleError(c, errors.New(errors.KindInvalidRequest, "invalid limit").With("field", "limit"))
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		handleError(c, errors.New(errors.KindInvalidRequest, "invalid offset").With("field", "offset"))
		return
	}

	orders, err := h.orderService.ListUserOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateOrderStatusRequest is the body of a status transition.
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus handles POST /api/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.Wrap(err, errors.KindInvalidRequest, "invalid request body"))
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Newf(errors.KindInvalidRequest, "invalid %s", name).With("field", name)
	}
	return id, nil
}

var kindStatus = map[errors.Kind]int{
	errors.KindInvalidRequest:            http.StatusBadRequest,
	errors.KindInvalidQuantity:           http.StatusBadRequest,
	errors.KindProductNotFound:           http.StatusBadRequest,
	errors.KindInvalidPrice:              http.StatusBadRequest,
	errors.KindInsufficientStock:         http.StatusBadRequest,
	errors.KindTotalMismatch:             http.StatusBadRequest,
	errors.KindMissingPaymentInfo:        http.StatusBadRequest,
	errors.KindInvalidPaymentToken:       http.StatusBadRequest,
	errors.KindPaymentNotFound:           http.StatusBadRequest,
	errors.KindPaymentAmountMismatch:     http.StatusBadRequest,
	errors.KindPaymentIncomplete:         http.StatusBadRequest,
	errors.KindInvalidUser:               http.StatusForbidden,
	errors.KindNotFound:                  http.StatusNotFound,
	errors.KindRateLimited:               http.StatusTooManyRequests,
	errors.KindPaymentVerificationError:  http.StatusBadGateway,
	errors.KindPaymentGatewayUnavailable: http.StatusInternalServerError,
	errors.KindOrderCommitFailed:         http.StatusInternalServerError,
	errors.KindInternal:                  http.StatusInternalServerError,
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind errors.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func handleError(c *gin.Context, err error) {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Wrap(err, errors.KindInternal, "internal server error")
	}

	status := statusFor(e.Kind)
	logger := logging.FromContext(c.Request.Context(), logging.NewLogger("handlers")).WithFields(logging.Fields{
		"kind":   e.Kind,
		"path":   c.FullPath(),
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		logger.WithField("error", err.Error()).Error("Request failed")
	} else {
		logger.Debug("Request rejected")
	}

	if e.Kind == errors.KindRateLimited {
		if retryAfter, ok := e.Details["retry_after"].(int); ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
		}
	}

	message := e.Message
	if e.Kind == errors.KindInternal {
		message = "internal server error"
	}

	body := gin.H{
		"error": message,
		"kind":  e.Kind,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	c.JSON(status, body)
}
