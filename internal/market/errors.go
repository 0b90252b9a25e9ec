package market

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrEmptyOrder      = errors.New("no order items")
	ErrAlreadyReviewed = errors.New("Product already reviewed")
)

// ValidationError marks a malformed or missing payload field.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ProductUnavailableError is returned when a checkout references a product
// whose listing is inactive.
type ProductUnavailableError struct{ Name string }

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("Product %s is not available", e.Name)
}

// InsufficientStockError carries the available quantity so the message can
// tell the buyer how many are left.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Only %d items available for product: %s", e.Available, e.ProductName)
}

// InvalidTransitionError rejects a status change the table does not allow,
// including re-driving an edge that was already taken.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}
