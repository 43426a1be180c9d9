package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBadSignature      = errors.New("bad signature")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
)

// InsufficientStockError names the item and the quantities that did not fit.
type InsufficientStockError struct {
	FoodItemID string
	Name       string
	Requested  int
	Available  int
	Disabled   bool
}

func (e *InsufficientStockError) Error() string {
	if e.Disabled {
		return fmt.Sprintf("food item '%s' (%s) is not available", e.Name, e.FoodItemID)
	}
	return fmt.Sprintf("food item '%s' (%s) is not available in requested quantity: requested %d, available %d",
		e.Name, e.FoodItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
