package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Order statuses. An order is born Pending (card) or Placed (cash) and
// only moves along the documented transitions.
const (
	StatusPending   = "Pending"
	StatusPlaced    = "Placed"
	StatusPaid      = "Paid"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
	StatusRefunded  = "Refunded"
)

// Payment methods
const (
	PaymentMethodCash = "Cash"
	PaymentMethodCard = "Card"
)

// CancellationWindow is how long after creation a buyer may cancel.
const CancellationWindow = 24 * time.Hour

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PhoneNumbers    pq.StringArray  `json:"phoneNumbers"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	CouponID        *uuid.UUID      `json:"couponId,omitempty"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	PaymentMethod   string          `json:"paymentMethod"`
	Status          string          `json:"status"`
	PaymentIntentID *string         `json:"paymentIntentId,omitempty"`
	QRSummaryURL    *string         `json:"qrSummaryUrl,omitempty"`
	DeliveredBy     *uuid.UUID      `json:"deliveredBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
}

// IsCancellable reports whether the order may still be cancelled by the
// buyer at the given instant. Only young, not-yet-fulfilled orders
// qualify.
func (o *Order) IsCancellable(now time.Time) bool {
	if o.Status != StatusPending && o.Status != StatusPlaced {
		return false
	}
	return now.Sub(o.CreatedAt) < CancellationWindow
}

// InitialStatus returns the status a new order starts in for the given
// payment method. Card orders stay Pending until the payment webhook
// confirms them.
func InitialStatus(paymentMethod string) string {
	if paymentMethod == PaymentMethodCard {
		return StatusPending
	}
	return StatusPlaced
}
