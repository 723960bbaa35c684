package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyCanceled   = errors.New("order already canceled")
	ErrInvalidOrder      = errors.New("invalid order request")
)

// StockUnavailableError reports which product aborted an orchestration.
// It unwraps to the underlying kind so callers can still test with errors.Is.
type StockUnavailableError struct {
	ProductID string
	Err       error
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("stock unavailable for product %s: %v", e.ProductID, e.Err)
}

func (e *StockUnavailableError) Unwrap() error {
	return e.Err
}
