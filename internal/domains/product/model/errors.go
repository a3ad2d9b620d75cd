package model

import (
	"fmt"

	"github.com/google/uuid"
)

type ProductError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProductError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
)

func NewProductNotFoundError(productID uuid.UUID) *ProductError {
	return &ProductError{
		Code:    ErrCodeProductNotFound,
		Message: fmt.Sprintf("product %s not found", productID),
	}
}

func NewInsufficientStockError(name string, stock, requested int) *ProductError {
	return &ProductError{
		Code:    ErrCodeInsufficientStock,
		Message: fmt.Sprintf("only %d left in stock for %q, requested %d", stock, name, requested),
	}
}

func NewInvalidQuantityError(quantity int) *ProductError {
	return &ProductError{
		Code:    ErrCodeInvalidQuantity,
		Message: fmt.Sprintf("quantity must be positive, got %d", quantity),
	}
}

func NewDatabaseError(op string, err error) *ProductError {
	return &ProductError{
		Code:    ErrCodeDatabaseError,
		Message: fmt.Sprintf("database error during %s", op),
		Err:     err,
	}
}
