package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrProductNotFound   = errors.New("product not found")
)

// InsufficientStockError reports the product that could not cover a line
// and how many units were on hand at the time of the check.
type InsufficientStockError struct {
	ProductID int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product ID: %d. Available stock: %d", e.ProductID, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) match the typed error.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Level is the on-hand quantity of a single product.
type Level struct {
	ProductID int64 `json:"product_id"`
	OnHand    int   `json:"on_hand"`
}

// Covers reports whether the level can satisfy quantity units.
func (l Level) Covers(quantity int) bool {
	return quantity > 0 && l.OnHand >= quantity
}

// Take returns the level left after removing quantity units. The receiver
// is not modified, and the result is never negative.
func (l Level) Take(quantity int) (Level, error) {
	if quantity <= 0 {
		return l, ErrInvalidQuantity
	}
	if l.OnHand < quantity {
		return l, &InsufficientStockError{ProductID: l.ProductID, Available: l.OnHand}
	}
	return Level{ProductID: l.ProductID, OnHand: l.OnHand - quantity}, nil
}

// Ledger tracks the remaining levels of the products locked by one unit of
// work, so repeated lines for the same product consume cumulatively.
type Ledger struct {
	levels map[int64]Level
}

func NewLedger() *Ledger {
	return &Ledger{levels: make(map[int64]Level)}
}

// Load registers the level read from the store.
func (l *Ledger) Load(level Level) {
	l.levels[level.ProductID] = level
}

// Take deducts quantity from the product's remaining level.
func (l *Ledger) Take(productID int64, quantity int) error {
	level, ok := l.levels[productID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	next, err := level.Take(quantity)
	if err != nil {
		return err
	}
	l.levels[productID] = next
	return nil
}

// Remaining returns the level currently tracked for productID.
func (l *Ledger) Remaining(productID int64) (Level, bool) {
	level, ok := l.levels[productID]
	return level, ok
}
