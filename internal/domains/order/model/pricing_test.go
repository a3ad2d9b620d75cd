package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	couponModel "shopora-backend/internal/domains/coupon/model"
)

func TestComputeTotal_NoDiscount(t *testing.T) {
	total, err := ComputeTotal(decimal.NewFromInt(300), nil)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(total), "total should equal price, got %s", total)
}

func TestComputeTotal_FixedDiscount(t *testing.T) {
	discount := &couponModel.Discount{
		IsFixed: true,
		Amount:  decimal.NewFromInt(30),
	}

	total, err := ComputeTotal(decimal.NewFromInt(100), discount)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(70).Equal(total), "expected 70, got %s", total)
}

func TestComputeTotal_PercentageDiscount(t *testing.T) {
	discount := &couponModel.Discount{
		IsPercentage: true,
		Amount:       decimal.NewFromInt(20),
	}

	total, err := ComputeTotal(decimal.NewFromInt(200), discount)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(160).Equal(total), "expected 160, got %s", total)
}

func TestComputeTotal_FixedDiscountExceedsPrice(t *testing.T) {
	discount := &couponModel.Discount{
		IsFixed: true,
		Amount:  decimal.NewFromInt(150),
	}

	_, err := ComputeTotal(decimal.NewFromInt(100), discount)

	require.Error(t, err)
	var orderErr *OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, ErrCodeCouponNotApplicable, orderErr.Code)
}

func TestComputeTotal_FixedDiscountEqualToPrice(t *testing.T) {
	discount := &couponModel.Discount{
		IsFixed: true,
		Amount:  decimal.NewFromInt(100),
	}

	total, err := ComputeTotal(decimal.NewFromInt(100), discount)

	require.NoError(t, err)
	assert.True(t, total.IsZero(), "expected zero total, got %s", total)
}

func TestComputeTotal_PercentageKeepsPrecision(t *testing.T) {
	discount := &couponModel.Discount{
		IsPercentage: true,
		Amount:       decimal.NewFromInt(15),
	}

	total, err := ComputeTotal(decimal.RequireFromString("99.99"), discount)

	require.NoError(t, err)
	// 99.99 - 99.99*0.15 = 84.9915, no float drift
	assert.True(t, decimal.RequireFromString("84.9915").Equal(total), "got %s", total)
}

func TestComputeTotal_Deterministic(t *testing.T) {
	discount := &couponModel.Discount{
		IsPercentage: true,
		Amount:       decimal.RequireFromString("33.33"),
	}
	price := decimal.RequireFromString("123.45")

	first, err := ComputeTotal(price, discount)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := ComputeTotal(price, discount)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}
