package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

func (r OrderItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.By(validUUID)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

type ShippingAddressRequest struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (r ShippingAddressRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Address, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.PostalCode, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.Country, validation.Required, validation.Length(1, 100)),
	)
}

// CreateOrderRequest carries no prices: the total is derived server-side
// from the products' applied prices at availability-check time.
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PhoneNumbers    []string               `json:"phoneNumbers"`
	CouponCode      string                 `json:"couponCode"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.ShippingAddress, validation.Required),
		validation.Field(&r.PhoneNumbers, validation.Required, validation.Length(1, 5)),
		validation.Field(&r.PaymentMethod, validation.Required, validation.In(PaymentMethodCash, PaymentMethodCard)),
	)
}

// ConvertCartRequest creates an order from the caller's cart. Items and
// pricing come from the cart snapshot, the rest mirrors CreateOrderRequest.
type ConvertCartRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PhoneNumbers    []string               `json:"phoneNumbers"`
	CouponCode      string                 `json:"couponCode"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

func (r ConvertCartRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ShippingAddress, validation.Required),
		validation.Field(&r.PhoneNumbers, validation.Required, validation.Length(1, 5)),
		validation.Field(&r.PaymentMethod, validation.Required, validation.In(PaymentMethodCash, PaymentMethodCard)),
	)
}

// PayOrderResponse is returned when a Pending card order starts checkout.
type PayOrderResponse struct {
	CheckoutURL     string `json:"checkoutUrl"`
	SessionID       string `json:"sessionId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// WebhookEvent is the slice of the provider's event envelope we consume.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Metadata struct {
				OrderID string `json:"orderId"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func validUUID(value interface{}) error {
	if value.(uuid.UUID) == uuid.Nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
}
