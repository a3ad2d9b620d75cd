package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopora-backend/internal/domains/coupon/model"
	"shopora-backend/internal/domains/coupon/repository"
	"shopora-backend/pkg/logger"
)

type CouponService interface {
	// Validate runs the full redemption check for a user-supplied code
	// and returns the discount to feed into pricing. Read-only: usage is
	// only consumed inside the order transaction.
	Validate(ctx context.Context, code string, userID uuid.UUID) (*model.Discount, error)

	// Admin operations
	Create(ctx context.Context, req model.CreateCouponRequest, createdBy uuid.UUID) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, page, limit int) ([]model.Coupon, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AssignToUser(ctx context.Context, couponID uuid.UUID, req model.AssignCouponRequest) (*model.CouponUser, error)

	// ExpireOutdated is invoked by the periodic sweep.
	ExpireOutdated(ctx context.Context) (int64, error)
}

type couponService struct {
	repo repository.CouponRepository

	// now is injected so validity-window checks are testable.
	now func() time.Time
}

func NewCouponService(repo repository.CouponRepository) CouponService {
	return &couponService{
		repo: repo,
		now:  time.Now,
	}
}

// NewCouponServiceWithClock is used by tests to pin the clock.
func NewCouponServiceWithClock(repo repository.CouponRepository, now func() time.Time) CouponService {
	return &couponService{
		repo: repo,
		now:  now,
	}
}

func (s *couponService) Validate(ctx context.Context, code string, userID uuid.UUID) (*model.Discount, error) {
	// STEP 1: Look the coupon up by code
	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	// STEP 2: The status flag is authoritative. The sweep keeps it in
	// sync with the window, but a coupon can also be expired manually.
	if coupon.Status != model.StatusValid {
		return nil, model.NewCouponExpiredError(code)
	}

	// STEP 3: Check the validity window against the current time. The
	// sweep runs on an interval, so a coupon whose window just closed
	// may still carry status "valid".
	now := s.now()
	if now.Before(coupon.FromDate) {
		return nil, model.NewCouponNotYetStartedError(code)
	}
	if now.After(coupon.ToDate) {
		return nil, model.NewCouponOutOfWindowError(code)
	}

	// STEP 4: The coupon must be assigned to this user
	assignment, err := s.repo.GetAssignment(ctx, coupon.ID, userID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, model.NewCouponNotAssignedError(code)
	}

	// STEP 5: Usage budget must not be exhausted
	if assignment.UsageCount >= assignment.MaxUsage {
		return nil, model.NewCouponUsageExceededError(code, assignment.MaxUsage)
	}

	return &model.Discount{
		CouponID:     coupon.ID,
		Code:         coupon.Code,
		IsFixed:      coupon.IsFixed(),
		IsPercentage: !coupon.IsFixed(),
		Amount:       coupon.Amount,
	}, nil
}

func (s *couponService) Create(ctx context.Context, req model.CreateCouponRequest, createdBy uuid.UUID) (*model.Coupon, error) {
	exists, err := s.repo.CodeExists(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.NewCouponCodeTakenError(req.Code)
	}

	coupon := &model.Coupon{
		ID:       uuid.New(),
		Code:     req.Code,
		Amount:   decimal.NewFromFloat(req.Amount),
		Type:     req.Type,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Status:   model.StatusValid,
	}
	if createdBy != uuid.Nil {
		coupon.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	logger.Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
		"type":      coupon.Type,
	})

	return coupon, nil
}

func (s *couponService) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *couponService) List(ctx context.Context, page, limit int) ([]model.Coupon, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *couponService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *couponService) AssignToUser(ctx context.Context, couponID uuid.UUID, req model.AssignCouponRequest) (*model.CouponUser, error) {
	// Fail fast if the coupon is gone
	if _, err := s.repo.GetByID(ctx, couponID); err != nil {
		return nil, err
	}

	assignment := &model.CouponUser{
		ID:         uuid.New(),
		CouponID:   couponID,
		UserID:     req.UserID,
		MaxUsage:   req.MaxUsage,
		UsageCount: 0,
	}

	if err := s.repo.AssignToUser(ctx, assignment); err != nil {
		return nil, err
	}

	return assignment, nil
}

func (s *couponService) ExpireOutdated(ctx context.Context) (int64, error) {
	expired, err := s.repo.ExpireOutdated(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		logger.Info("Expired outdated coupons", map[string]interface{}{
			"count": expired,
		})
	}

	return expired, nil
}
