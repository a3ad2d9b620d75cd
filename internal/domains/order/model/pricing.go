package model

import (
	"github.com/shopspring/decimal"

	couponModel "shopora-backend/internal/domains/coupon/model"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeTotal applies a validated discount to the shipping-inclusive
// price and returns what the buyer pays. Pure and deterministic; all
// arithmetic is decimal so repeated runs produce identical totals.
//
// Rules:
//   - no discount: total equals the price unchanged
//   - fixed: price - amount; a fixed discount larger than the price is
//     rejected instead of producing a negative total
//   - percentage: price - price*amount/100
func ComputeTotal(shippingPrice decimal.Decimal, discount *couponModel.Discount) (decimal.Decimal, error) {
	if discount == nil {
		return shippingPrice, nil
	}

	if discount.IsFixed {
		if discount.Amount.GreaterThan(shippingPrice) {
			return decimal.Zero, NewCouponNotApplicableError("discount exceeds order price")
		}
		return shippingPrice.Sub(discount.Amount), nil
	}

	reduction := shippingPrice.Mul(discount.Amount).Div(oneHundred)
	return shippingPrice.Sub(reduction), nil
}
