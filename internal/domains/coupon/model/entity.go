package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon statuses
const (
	StatusValid   = "valid"
	StatusExpired = "expired"
)

// Coupon types
const (
	TypeFixed      = "fixed"
	TypePercentage = "percentage"
)

type Coupon struct {
	ID     uuid.UUID       `json:"id"`
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
	// Type is either "fixed" (currency amount off) or "percentage"
	// (percent of the shipping-inclusive total).
	Type      string     `json:"type"`
	FromDate  time.Time  `json:"fromDate"`
	ToDate    time.Time  `json:"toDate"`
	Status    string     `json:"status"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsFixed reports whether the coupon takes a flat amount off.
func (c *Coupon) IsFixed() bool {
	return c.Type == TypeFixed
}

// CouponUser is the per-user assignment of a coupon with a usage budget.
// A coupon is only redeemable by users it was assigned to.
type CouponUser struct {
	ID         uuid.UUID `json:"id"`
	CouponID   uuid.UUID `json:"couponId"`
	UserID     uuid.UUID `json:"userId"`
	MaxUsage   int       `json:"maxUsage"`
	UsageCount int       `json:"usageCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Discount is the outcome of a successful coupon validation, consumed by
// the pricing engine.
type Discount struct {
	CouponID     uuid.UUID       `json:"couponId"`
	Code         string          `json:"code"`
	IsFixed      bool            `json:"isFixed"`
	IsPercentage bool            `json:"isPercentage"`
	Amount       decimal.Decimal `json:"amount"`
}
