package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// =====================================================
// PAYMENT GATEWAY INTERFACE
// =====================================================
// PaymentGateway abstracts the card payment provider. The production
// implementation talks to Stripe; tests use the mock package.
type PaymentGateway interface {
	// CreateCheckoutSession builds a hosted checkout page for an order.
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)

	// CreatePaymentIntent opens a payment intent for a given amount.
	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (*PaymentIntent, error)

	// ConfirmPaymentIntent confirms an intent server-side.
	ConfirmPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error)

	// RefundPayment refunds the charge behind a payment intent.
	// A zero amount refunds the full charge.
	RefundPayment(ctx context.Context, params RefundParams) (*Refund, error)

	// CreateCoupon mirrors a local coupon on the gateway so hosted
	// checkout shows the discounted amount.
	CreateCoupon(ctx context.Context, params CouponParams) (*GatewayCoupon, error)
}

// CheckoutLineItem is one purchasable line on the hosted checkout page.
// UnitAmount is in the smallest currency unit (cents, piasters).
type CheckoutLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

type CheckoutSessionParams struct {
	OrderID    uuid.UUID
	Items      []CheckoutLineItem
	CouponID   string // gateway coupon ID, empty when no discount applies
	Currency   string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	PaymentIntentID string `json:"payment_intent"`
}

type PaymentIntentParams struct {
	OrderID  uuid.UUID
	Amount   int64
	Currency string
}

type PaymentIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
}

// Payment intent statuses we care about.
const (
	IntentStatusSucceeded = "succeeded"
	IntentStatusCanceled  = "canceled"
)

type RefundParams struct {
	PaymentIntentID string
	Amount          int64
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CouponParams struct {
	PercentOff *float64
	AmountOff  *int64
	Currency   string
}

type GatewayCoupon struct {
	ID string `json:"id"`
}

// =====================================================
// GATEWAY ERRORS
// =====================================================
// GatewayError carries the provider's HTTP status and error code so the
// order service can distinguish retryable failures from declines.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsRetryable reports whether the failure is transient on the provider's
// side.
func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
