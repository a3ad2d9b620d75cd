package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopora-backend/internal/config"
	"shopora-backend/internal/domains/payment/gateway"
	"shopora-backend/pkg/logger"
)

// Client is a thin Stripe API client. The Stripe API takes form-encoded
// requests and returns JSON.
type Client struct {
	config     config.StripeConfig
	httpClient *http.Client
}

func NewClient(cfg config.StripeConfig) gateway.PaymentGateway {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutSessionParams) (*gateway.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.config.SuccessURL)
	form.Set("cancel_url", c.config.CancelURL)
	form.Set("client_reference_id", params.OrderID.String())
	form.Set("metadata[orderId]", params.OrderID.String())

	currency := params.Currency
	if currency == "" {
		currency = c.config.Currency
	}

	for i, item := range params.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	if params.CouponID != "" {
		form.Set("discounts[0][coupon]", params.CouponID)
	}

	var session gateway.CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}

	logger.Info("Checkout session created", map[string]interface{}{
		"session_id": session.ID,
		"order_id":   params.OrderID,
	})

	return &session, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, params gateway.PaymentIntentParams) (*gateway.PaymentIntent, error) {
	currency := params.Currency
	if currency == "" {
		currency = c.config.Currency
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", currency)
	form.Set("metadata[orderId]", params.OrderID.String())
	form.Set("automatic_payment_methods[enabled]", "true")

	var intent gateway.PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents", form, &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

func (c *Client) ConfirmPaymentIntent(ctx context.Context, intentID string) (*gateway.PaymentIntent, error) {
	path := fmt.Sprintf("/v1/payment_intents/%s/confirm", url.PathEscape(intentID))

	var intent gateway.PaymentIntent
	if err := c.post(ctx, path, url.Values{}, &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

func (c *Client) RefundPayment(ctx context.Context, params gateway.RefundParams) (*gateway.Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", params.PaymentIntentID)
	if params.Amount > 0 {
		form.Set("amount", strconv.FormatInt(params.Amount, 10))
	}

	var refund gateway.Refund
	if err := c.post(ctx, "/v1/refunds", form, &refund); err != nil {
		return nil, err
	}

	logger.Info("Refund created", map[string]interface{}{
		"refund_id":      refund.ID,
		"payment_intent": params.PaymentIntentID,
	})

	return &refund, nil
}

func (c *Client) CreateCoupon(ctx context.Context, params gateway.CouponParams) (*gateway.GatewayCoupon, error) {
	form := url.Values{}
	form.Set("duration", "once")

	switch {
	case params.PercentOff != nil:
		form.Set("percent_off", strconv.FormatFloat(*params.PercentOff, 'f', -1, 64))
	case params.AmountOff != nil:
		form.Set("amount_off", strconv.FormatInt(*params.AmountOff, 10))
		currency := params.Currency
		if currency == "" {
			currency = c.config.Currency
		}
		form.Set("currency", currency)
	default:
		return nil, &gateway.GatewayError{
			StatusCode: http.StatusBadRequest,
			Code:       "parameter_missing",
			Message:    "coupon requires percent_off or amount_off",
		}
	}

	var coupon gateway.GatewayCoupon
	if err := c.post(ctx, "/v1/coupons", form, &coupon); err != nil {
		return nil, err
	}

	return &coupon, nil
}

// post sends a form-encoded request and decodes the JSON response into out.
// Non-2xx responses are turned into *gateway.GatewayError.
func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.APIURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(statusCode int, body []byte) error {
	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		return &gateway.GatewayError{
			StatusCode: statusCode,
			Code:       "unknown",
			Message:    strings.TrimSpace(string(body)),
		}
	}

	code := envelope.Error.Code
	if code == "" {
		code = envelope.Error.Type
	}

	return &gateway.GatewayError{
		StatusCode: statusCode,
		Code:       code,
		Message:    envelope.Error.Message,
	}
}
