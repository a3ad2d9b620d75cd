package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopora-backend/internal/config"
	"shopora-backend/internal/domains/payment/gateway"
)

type recordedRequest struct {
	path string
	auth string
	form url.Values
}

// newTestClient spins up a fake Stripe API that records each request and
// replies with the given status and JSON body.
func newTestClient(t *testing.T, status int, body string) (gateway.PaymentGateway, *recordedRequest) {
	t.Helper()

	rec := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.StripeConfig{
		SecretKey:  "sk_test_secret",
		APIURL:     server.URL,
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cancel",
		Currency:   "egp",
	})

	return client, rec
}

func TestCreateCheckoutSession(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK,
		`{"id":"cs_123","url":"https://checkout.stripe.com/c/cs_123","payment_intent":"pi_123"}`)

	orderID := uuid.New()
	session, err := client.CreateCheckoutSession(context.Background(), gateway.CheckoutSessionParams{
		OrderID: orderID,
		Items: []gateway.CheckoutLineItem{
			{Name: "Widget", UnitAmount: 5000, Quantity: 2},
			{Name: "Shipping", UnitAmount: 1500, Quantity: 1},
		},
		CouponID: "co_42",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_123", session.URL)
	assert.Equal(t, "pi_123", session.PaymentIntentID)

	assert.Equal(t, "/v1/checkout/sessions", rec.path)
	assert.Equal(t, "Bearer sk_test_secret", rec.auth)
	assert.Equal(t, "payment", rec.form.Get("mode"))
	assert.Equal(t, orderID.String(), rec.form.Get("metadata[orderId]"))
	assert.Equal(t, "Widget", rec.form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "5000", rec.form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2", rec.form.Get("line_items[0][quantity]"))
	assert.Equal(t, "egp", rec.form.Get("line_items[1][price_data][currency]"))
	assert.Equal(t, "co_42", rec.form.Get("discounts[0][coupon]"))
}

func TestCreateCheckoutSession_APIError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusPaymentRequired,
		`{"error":{"code":"card_declined","type":"card_error","message":"Your card was declined."}}`)

	_, err := client.CreateCheckoutSession(context.Background(), gateway.CheckoutSessionParams{
		OrderID: uuid.New(),
		Items:   []gateway.CheckoutLineItem{{Name: "Widget", UnitAmount: 100, Quantity: 1}},
	})

	var gatewayErr *gateway.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, http.StatusPaymentRequired, gatewayErr.StatusCode)
	assert.Equal(t, "card_declined", gatewayErr.Code)
	assert.Equal(t, "Your card was declined.", gatewayErr.Message)
	assert.False(t, gatewayErr.IsRetryable())
}

func TestCreateCheckoutSession_NonJSONError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadGateway, `upstream timeout`)

	_, err := client.CreateCheckoutSession(context.Background(), gateway.CheckoutSessionParams{
		OrderID: uuid.New(),
		Items:   []gateway.CheckoutLineItem{{Name: "Widget", UnitAmount: 100, Quantity: 1}},
	})

	var gatewayErr *gateway.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, "unknown", gatewayErr.Code)
	assert.Equal(t, "upstream timeout", gatewayErr.Message)
	assert.True(t, gatewayErr.IsRetryable())
}

func TestCreatePaymentIntent(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK,
		`{"id":"pi_55","status":"requires_confirmation","client_secret":"pi_55_secret","amount":7000}`)

	orderID := uuid.New()
	intent, err := client.CreatePaymentIntent(context.Background(), gateway.PaymentIntentParams{
		OrderID: orderID,
		Amount:  7000,
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_55", intent.ID)
	assert.Equal(t, int64(7000), intent.Amount)

	assert.Equal(t, "/v1/payment_intents", rec.path)
	assert.Equal(t, "7000", rec.form.Get("amount"))
	assert.Equal(t, "egp", rec.form.Get("currency"))
	assert.Equal(t, orderID.String(), rec.form.Get("metadata[orderId]"))
}

func TestConfirmPaymentIntent(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK,
		`{"id":"pi_55","status":"succeeded"}`)

	intent, err := client.ConfirmPaymentIntent(context.Background(), "pi_55")

	require.NoError(t, err)
	assert.Equal(t, gateway.IntentStatusSucceeded, intent.Status)
	assert.Equal(t, "/v1/payment_intents/pi_55/confirm", rec.path)
}

func TestRefundPayment(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK,
		`{"id":"re_9","status":"succeeded"}`)

	refund, err := client.RefundPayment(context.Background(), gateway.RefundParams{
		PaymentIntentID: "pi_55",
		Amount:          2500,
	})

	require.NoError(t, err)
	assert.Equal(t, "re_9", refund.ID)
	assert.Equal(t, "/v1/refunds", rec.path)
	assert.Equal(t, "pi_55", rec.form.Get("payment_intent"))
	assert.Equal(t, "2500", rec.form.Get("amount"))
}

func TestRefundPayment_ZeroAmountIsFullRefund(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK,
		`{"id":"re_9","status":"succeeded"}`)

	_, err := client.RefundPayment(context.Background(), gateway.RefundParams{
		PaymentIntentID: "pi_55",
	})

	require.NoError(t, err)
	// Omitting amount tells the provider to refund the whole charge
	assert.False(t, rec.form.Has("amount"))
}

func TestCreateCoupon_PercentOff(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"id":"co_1"}`)

	percentOff := 20.0
	coupon, err := client.CreateCoupon(context.Background(), gateway.CouponParams{
		PercentOff: &percentOff,
	})

	require.NoError(t, err)
	assert.Equal(t, "co_1", coupon.ID)
	assert.Equal(t, "/v1/coupons", rec.path)
	assert.Equal(t, "once", rec.form.Get("duration"))
	assert.Equal(t, "20", rec.form.Get("percent_off"))
	assert.False(t, rec.form.Has("currency"))
}

func TestCreateCoupon_AmountOff(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK, `{"id":"co_2"}`)

	amountOff := int64(3000)
	_, err := client.CreateCoupon(context.Background(), gateway.CouponParams{
		AmountOff: &amountOff,
	})

	require.NoError(t, err)
	assert.Equal(t, "3000", rec.form.Get("amount_off"))
	assert.Equal(t, "egp", rec.form.Get("currency"))
}

func TestCreateCoupon_NoDiscountRejected(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"id":"co_3"}`)

	_, err := client.CreateCoupon(context.Background(), gateway.CouponParams{})

	var gatewayErr *gateway.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, "parameter_missing", gatewayErr.Code)
}
