package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "100.00", "100.00", true},
		{"within tolerance", "100.00", "100.01", true},
		{"negative side", "99.995", "100.00", true},
		{"outside tolerance", "100.00", "100.02", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoneyEqual(decimal.RequireFromString(tt.a), decimal.RequireFromString(tt.b))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDomainErrorMatching(t *testing.T) {
	err := fmt.Errorf("create return: %w", NewDomainError(CodeOverReturn, "only 1 left"))

	assert.ErrorIs(t, err, ErrOverReturn)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, CodeOverReturn, ErrorCode(err))

	cause := errors.New("deadlock detected")
	wrapped := WrapDomainError(CodeTransactionFailed, "ledger write failed", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, ErrTransactionFailed)
}
