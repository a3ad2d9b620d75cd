package model

import "fmt"

type CouponError struct {
	Code    string
	Message string
	Err     error
}

func (e *CouponError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CouponError) Unwrap() error {
	return e.Err
}

// Error codes cover the full validation taxonomy. Each maps to a distinct
// HTTP status in the handler.
const (
	ErrCodeCouponNotFound       = "COUPON_NOT_FOUND"
	ErrCodeCouponExpired        = "COUPON_EXPIRED"
	ErrCodeCouponNotYetStarted  = "COUPON_NOT_YET_STARTED"
	ErrCodeCouponOutOfWindow    = "COUPON_OUT_OF_WINDOW"
	ErrCodeCouponNotAssigned    = "COUPON_NOT_ASSIGNED"
	ErrCodeCouponUsageExceeded  = "COUPON_USAGE_EXCEEDED"
	ErrCodeCouponCodeTaken      = "COUPON_CODE_TAKEN"
	ErrCodeCouponDatabaseError  = "COUPON_DATABASE_ERROR"
	ErrCodeCouponInvalidRequest = "COUPON_INVALID_REQUEST"
)

func NewCouponNotFoundError(code string) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponNotFound,
		Message: fmt.Sprintf("coupon %q not found", code),
	}
}

func NewCouponExpiredError(code string) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponExpired,
		Message: fmt.Sprintf("coupon %q is expired", code),
	}
}

func NewCouponNotYetStartedError(code string) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponNotYetStarted,
		Message: fmt.Sprintf("coupon %q is not active yet", code),
	}
}

func NewCouponOutOfWindowError(code string) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponOutOfWindow,
		Message: fmt.Sprintf("coupon %q is outside its validity window", code),
	}
}

func NewCouponNotAssignedError(code string) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponNotAssigned,
		Message: fmt.Sprintf("coupon %q is not assigned to this user", code),
	}
}

func NewCouponUsageExceededError(code string, maxUsage int) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponUsageExceeded,
		Message: fmt.Sprintf("coupon %q usage limit of %d reached", code, maxUsage),
	}
}

func NewCouponCodeTakenError(code string) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponCodeTaken,
		Message: fmt.Sprintf("coupon code %q already exists", code),
	}
}

func NewCouponDatabaseError(op string, err error) *CouponError {
	return &CouponError{
		Code:    ErrCodeCouponDatabaseError,
		Message: fmt.Sprintf("database error during %s", op),
		Err:     err,
	}
}
