package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	// AppliedPrice is the effective unit price after product-level
	// discounts. Falls back to Price when no discount applies.
	AppliedPrice decimal.Decimal `json:"appliedPrice"`
	Stock        int             `json:"stock"`
	Sold         int             `json:"sold"`
	ImageURL     *string         `json:"imageUrl,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// EffectivePrice returns the price a buyer actually pays per unit.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.AppliedPrice.IsPositive() {
		return p.AppliedPrice
	}
	return p.Price
}

// RequestedItem is one line of an availability check: a product and the
// quantity the caller wants to buy.
type RequestedItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// AvailableItem is the availability checker's verdict for one line.
type AvailableItem struct {
	Product  *Product
	Quantity int
	Subtotal decimal.Decimal
}
