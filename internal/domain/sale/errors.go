package sale

import (
	"errors"
	"fmt"
)

var (
	ErrMissingClient   = errors.New("client is required")
	ErrUnknownClient   = errors.New("client does not exist")
	ErrEmptyCart       = errors.New("empty cart")
	ErrInvalidLine     = errors.New("invalid product data in the sale")
	ErrUnknownProduct  = errors.New("product does not exist")
	ErrUnknownEmployee = errors.New("no employee is linked to the acting user")
	ErrSaleNotFound    = errors.New("sale not found")
)

// ValidationError rejects a cart before any sale is attempted. Line is the
// zero-based index of the offending line, or -1 for cart-level problems.
type ValidationError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Line < 0 {
		if e.Field != "" {
			return fmt.Sprintf("%s: %v", e.Field, e.Err)
		}
		return e.Err.Error()
	}
	if e.Value != "" {
		return fmt.Sprintf("%v: line %d, %s %q", e.Err, e.Line+1, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: line %d, %s", e.Err, e.Line+1, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError wraps any failure of the transactional store. The unit of
// work it happened in has been rolled back, so the call may be retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
