package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"shopora-backend/internal/domains/coupon/service"
)

// ExpireCouponsHandler runs the periodic sweep that flips coupons whose
// validity window has ended from "valid" to "expired".
type ExpireCouponsHandler struct {
	service service.CouponService
}

func NewExpireCouponsHandler(service service.CouponService) *ExpireCouponsHandler {
	return &ExpireCouponsHandler{service: service}
}

func (h *ExpireCouponsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if _, err := h.service.ExpireOutdated(ctx); err != nil {
		return fmt.Errorf("coupon expiry sweep failed: %w", err)
	}
	return nil
}
