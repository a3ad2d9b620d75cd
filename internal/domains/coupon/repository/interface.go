package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"shopora-backend/internal/domains/coupon/model"
)

// =====================================================
// COUPON REPOSITORY INTERFACE
// =====================================================
type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, page, limit int) ([]model.Coupon, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CodeExists(ctx context.Context, code string) (bool, error)

	// Assignment and usage tracking
	AssignToUser(ctx context.Context, assignment *model.CouponUser) error
	GetAssignment(ctx context.Context, couponID, userID uuid.UUID) (*model.CouponUser, error)
	IncrementUsageWithTx(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) error

	// ExpireOutdated flips "valid" coupons whose window ended to
	// "expired". Returns how many rows changed. Run by the sweep job.
	ExpireOutdated(ctx context.Context, now time.Time) (int64, error)
}
