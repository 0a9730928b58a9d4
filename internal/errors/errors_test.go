package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"classified", New(KindRateLimited, "slow down"), KindRateLimited},
		{"wrapped with fmt", fmt.Errorf("outer: %w", New(KindTotalMismatch, "mismatch")), KindTotalMismatch},
		{"wrapped with pkg/errors", pkgerrors.Wrap(New(KindPaymentNotFound, "gone"), "verify"), KindPaymentNotFound},
		{"plain error", stderrors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(cause, KindPaymentVerificationError, "failed to verify payment")

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause, pkgerrors.Cause(err.Cause()))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), string(KindPaymentVerificationError))
}

func TestIs_MatchesByKind(t *testing.T) {
	err := Newf(KindNotFound, "order %d not found", 42)

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(New(KindInvalidUser, "x"), ErrNotFound))
}

func TestWith_AttachesDetails(t *testing.T) {
	err := New(KindInsufficientStock, "not enough stock").
		With("product_id", int64(8)).
		With("available", 1)

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, int64(8), e.Details["product_id"])
	assert.Equal(t, 1, e.Details["available"])
}
