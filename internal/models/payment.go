package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects how a payment proof is checked.
type PaymentMethod string

const (
	// PaymentMethodStripe proofs are verified against the payment gateway.
	PaymentMethodStripe PaymentMethod = "stripe"
	// PaymentMethodSimulated proofs are test-mode tokens.
	PaymentMethodSimulated PaymentMethod = "simulated"
)

// PaymentStatusSucceeded is the gateway status of a completed charge.
const PaymentStatusSucceeded = "succeeded"

// DefaultCurrency is the currency all catalog prices are denominated in.
const DefaultCurrency = "usd"

// PaymentDescriptor is the client's proof of payment.
type PaymentDescriptor struct {
	Method PaymentMethod `json:"method"`
	ID     string        `json:"id,omitempty"`
	Token  string        `json:"token,omitempty"`
}

// UsesGateway reports whether the descriptor must be verified with the gateway.
func (d PaymentDescriptor) UsesGateway() bool {
	return d.Method == PaymentMethodStripe
}

// PaymentConfirmation is the gateway's record of a payment.
type PaymentConfirmation struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// PaymentIntent is a gateway payment the client completes before placing an order.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentIntentRequest describes a gateway payment to open for a priced cart.
type PaymentIntentRequest struct {
	AmountMinor  int64
	Currency     string
	ReceiptEmail string
	Metadata     map[string]string
}

var (
	hundred       = decimal.NewFromInt(100)
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
)

// ToMinorUnits converts an amount to minor currency units, rounding half away
// from zero. ok is false for negative amounts and for amounts whose minor
// units do not fit in an int64.
func ToMinorUnits(amount decimal.Decimal) (minor int64, ok bool) {
	units := amount.Mul(hundred).Round(0)
	if units.IsNegative() || units.GreaterThan(maxMinorUnits) {
		return 0, false
	}
	return units.IntPart(), true
}
