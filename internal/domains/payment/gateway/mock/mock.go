package mock

import (
	"context"
	"fmt"
	"sync"

	"shopora-backend/internal/domains/payment/gateway"
)

// Gateway is an in-memory PaymentGateway for tests. Every method can be
// overridden per-call with the corresponding Fn field; otherwise a
// deterministic success response is returned.
type Gateway struct {
	mu sync.Mutex

	seq int

	CreateCheckoutSessionFn func(ctx context.Context, params gateway.CheckoutSessionParams) (*gateway.CheckoutSession, error)
	CreatePaymentIntentFn   func(ctx context.Context, params gateway.PaymentIntentParams) (*gateway.PaymentIntent, error)
	ConfirmPaymentIntentFn  func(ctx context.Context, intentID string) (*gateway.PaymentIntent, error)
	RefundPaymentFn         func(ctx context.Context, params gateway.RefundParams) (*gateway.Refund, error)
	CreateCouponFn          func(ctx context.Context, params gateway.CouponParams) (*gateway.GatewayCoupon, error)

	// Recorded calls
	CheckoutSessions []gateway.CheckoutSessionParams
	Refunds          []gateway.RefundParams
	Coupons          []gateway.CouponParams
}

func New() *Gateway {
	return &Gateway{}
}

func (g *Gateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_test_%03d", prefix, g.seq)
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutSessionParams) (*gateway.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.CheckoutSessions = append(g.CheckoutSessions, params)

	if g.CreateCheckoutSessionFn != nil {
		return g.CreateCheckoutSessionFn(ctx, params)
	}

	id := g.nextID("cs")
	return &gateway.CheckoutSession{
		ID:              id,
		URL:             "https://checkout.example.com/" + id,
		PaymentIntentID: g.nextID("pi"),
	}, nil
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, params gateway.PaymentIntentParams) (*gateway.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CreatePaymentIntentFn != nil {
		return g.CreatePaymentIntentFn(ctx, params)
	}

	id := g.nextID("pi")
	return &gateway.PaymentIntent{
		ID:           id,
		Status:       "requires_confirmation",
		ClientSecret: id + "_secret",
		Amount:       params.Amount,
	}, nil
}

func (g *Gateway) ConfirmPaymentIntent(ctx context.Context, intentID string) (*gateway.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ConfirmPaymentIntentFn != nil {
		return g.ConfirmPaymentIntentFn(ctx, intentID)
	}

	return &gateway.PaymentIntent{
		ID:     intentID,
		Status: gateway.IntentStatusSucceeded,
	}, nil
}

func (g *Gateway) RefundPayment(ctx context.Context, params gateway.RefundParams) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Refunds = append(g.Refunds, params)

	if g.RefundPaymentFn != nil {
		return g.RefundPaymentFn(ctx, params)
	}

	return &gateway.Refund{
		ID:     g.nextID("re"),
		Status: "succeeded",
	}, nil
}

func (g *Gateway) CreateCoupon(ctx context.Context, params gateway.CouponParams) (*gateway.GatewayCoupon, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Coupons = append(g.Coupons, params)

	if g.CreateCouponFn != nil {
		return g.CreateCouponFn(ctx, params)
	}

	return &gateway.GatewayCoupon{ID: g.nextID("co")}, nil
}
