// Package errors defines the error taxonomy of the checkout flow. Every
// failure surfaced to a caller carries a Kind so the transport layer can map
// it uniformly.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a checkout failure.
type Kind string

const (
	KindInvalidRequest            Kind = "InvalidRequest"
	KindInvalidUser               Kind = "InvalidUser"
	KindInvalidQuantity           Kind = "InvalidQuantity"
	KindProductNotFound           Kind = "ProductNotFound"
	KindInvalidPrice              Kind = "InvalidPrice"
	KindInsufficientStock         Kind = "InsufficientStock"
	KindTotalMismatch             Kind = "TotalMismatch"
	KindRateLimited               Kind = "RateLimited"
	KindMissingPaymentInfo        Kind = "MissingPaymentInfo"
	KindInvalidPaymentToken       Kind = "InvalidPaymentToken"
	KindPaymentGatewayUnavailable Kind = "PaymentGatewayUnavailable"
	KindPaymentNotFound           Kind = "PaymentNotFound"
	KindPaymentAmountMismatch     Kind = "PaymentAmountMismatch"
	KindPaymentIncomplete         Kind = "PaymentIncomplete"
	KindPaymentVerificationError  Kind = "PaymentVerificationError"
	KindOrderCommitFailed         Kind = "OrderCommitFailed"
	KindNotFound                  Kind = "NotFound"
	KindInternal                  Kind = "Internal"
)

// ErrNotFound is returned by lookups that find nothing.
var ErrNotFound = New(KindNotFound, "not found")

// Error is a classified checkout failure.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	cause   error
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind. The cause stays reachable through
// errors.Is/As and pkg/errors.Cause.
func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: pkgerrors.WithStack(cause)}
}

// With attaches a detail to the error and returns it for chaining.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, pkgerrors.Cause(e.cause))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause implements the pkg/errors causer interface.
func (e *Error) Cause() error {
	return e.cause
}

// Is matches errors by kind so that errors.Is(err, ErrNotFound) works for any
// NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
