package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Level Tests
// ============================================

func TestLevel_Covers(t *testing.T) {
	tests := []struct {
		name     string
		onHand   int
		quantity int
		expected bool
	}{
		{"plenty", 10, 3, true},
		{"exact", 5, 5, true},
		{"short", 2, 5, false},
		{"zero stock", 0, 1, false},
		{"zero quantity", 10, 0, false},
		{"negative quantity", 10, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := Level{ProductID: 1, OnHand: tt.onHand}
			assert.Equal(t, tt.expected, level.Covers(tt.quantity))
		})
	}
}

func TestLevel_Take_Success(t *testing.T) {
	level := Level{ProductID: 7, OnHand: 10}

	next, err := level.Take(3)

	require.NoError(t, err)
	assert.Equal(t, 7, next.OnHand)
	assert.Equal(t, int64(7), next.ProductID)
	assert.Equal(t, 10, level.OnHand, "receiver must not change")
}

func TestLevel_Take_Insufficient(t *testing.T) {
	level := Level{ProductID: 7, OnHand: 2}

	_, err := level.Take(5)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(7), stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, "insufficient stock for product ID: 7. Available stock: 2", stockErr.Error())
}

func TestLevel_Take_InvalidQuantity(t *testing.T) {
	level := Level{ProductID: 1, OnHand: 10}

	_, err := level.Take(0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = level.Take(-4)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

// ============================================
// Ledger Tests
// ============================================

func TestLedger_RepeatedProductConsumesCumulatively(t *testing.T) {
	ledger := NewLedger()
	ledger.Load(Level{ProductID: 1, OnHand: 5})

	require.NoError(t, ledger.Take(1, 3))

	err := ledger.Take(1, 3)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)

	remaining, ok := ledger.Remaining(1)
	require.True(t, ok)
	assert.Equal(t, 2, remaining.OnHand)
}

func TestLedger_UnknownProduct(t *testing.T) {
	ledger := NewLedger()

	err := ledger.Take(99, 1)

	assert.ErrorIs(t, err, ErrProductNotFound)
}
