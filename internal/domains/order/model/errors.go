package model

import "fmt"

// =====================================================
// ORDER ERRORS
// =====================================================
type OrderError struct {
	Code    string
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeCancellationExpired  = "CANCELLATION_WINDOW_EXPIRED"
	ErrCodeCouponNotApplicable  = "COUPON_NOT_APPLICABLE"
	ErrCodeNotCardOrder         = "NOT_CARD_ORDER"
	ErrCodeMissingPaymentIntent = "MISSING_PAYMENT_INTENT"
	ErrCodePaymentGatewayError  = "PAYMENT_GATEWAY_ERROR"
	ErrCodeEmptyOrder           = "EMPTY_ORDER"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeTransactionError     = "TRANSACTION_ERROR"
)

func NewOrderNotFoundError() *OrderError {
	return &OrderError{
		Code:    ErrCodeOrderNotFound,
		Message: "order not found",
	}
}

func NewInvalidTransitionError(from, to string) *OrderError {
	return &OrderError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition order from %s to %s", from, to),
	}
}

func NewCancellationExpiredError() *OrderError {
	return &OrderError{
		Code:    ErrCodeCancellationExpired,
		Message: "order can no longer be cancelled",
	}
}

func NewCouponNotApplicableError(reason string) *OrderError {
	return &OrderError{
		Code:    ErrCodeCouponNotApplicable,
		Message: fmt.Sprintf("coupon not applicable: %s", reason),
	}
}

func NewNotCardOrderError() *OrderError {
	return &OrderError{
		Code:    ErrCodeNotCardOrder,
		Message: "order is not payable by card",
	}
}

func NewMissingPaymentIntentError() *OrderError {
	return &OrderError{
		Code:    ErrCodeMissingPaymentIntent,
		Message: "order has no payment intent",
	}
}

func NewPaymentGatewayError(err error) *OrderError {
	return &OrderError{
		Code:    ErrCodePaymentGatewayError,
		Message: "payment gateway request failed",
		Err:     err,
	}
}

func NewEmptyOrderError() *OrderError {
	return &OrderError{
		Code:    ErrCodeEmptyOrder,
		Message: "order must contain at least one item",
	}
}

func NewDatabaseError(op string, err error) *OrderError {
	return &OrderError{
		Code:    ErrCodeDatabaseError,
		Message: fmt.Sprintf("database error during %s", op),
		Err:     err,
	}
}

func NewTransactionError(op string, err error) *OrderError {
	return &OrderError{
		Code:    ErrCodeTransactionError,
		Message: fmt.Sprintf("transaction failed during %s", op),
		Err:     err,
	}
}
