package models

import "github.com/shopspring/decimal"

// PlaceOrderRequest is an order submission.
type PlaceOrderRequest struct {
	UserID          int64              `json:"user_id"`
	Items           []CartLine         `json:"items"`
	Amount          *decimal.Decimal   `json:"amount,omitempty"`
	ShippingAddress *string            `json:"shipping_address,omitempty"`
	Payment         *PaymentDescriptor `json:"payment"`
}

// PlaceOrderResult is returned for a committed order.
type PlaceOrderResult struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// QuotePaymentRequest asks for a gateway payment intent covering a cart.
type QuotePaymentRequest struct {
	UserID          int64      `json:"user_id"`
	Items           []CartLine `json:"items"`
	ShippingAddress *string    `json:"shipping_address,omitempty"`
}

// QuotePaymentResult carries the intent the client must confirm.
type QuotePaymentResult struct {
	ClientSecret    string          `json:"client_secret"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Amount          decimal.Decimal `json:"amount"`
}
