package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopora-backend/internal/domains/coupon/model"
)

// fakeCouponRepo is an in-memory CouponRepository.
type fakeCouponRepo struct {
	coupons     map[string]*model.Coupon // by code
	assignments map[string]*model.CouponUser
	expiredRuns int
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{
		coupons:     make(map[string]*model.Coupon),
		assignments: make(map[string]*model.CouponUser),
	}
}

func assignmentKey(couponID, userID uuid.UUID) string {
	return couponID.String() + "/" + userID.String()
}

func (f *fakeCouponRepo) Create(ctx context.Context, coupon *model.Coupon) error {
	f.coupons[coupon.Code] = coupon
	return nil
}

func (f *fakeCouponRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	for _, c := range f.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, model.NewCouponNotFoundError(id.String())
}

func (f *fakeCouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, model.NewCouponNotFoundError(code)
	}
	return c, nil
}

func (f *fakeCouponRepo) List(ctx context.Context, page, limit int) ([]model.Coupon, int64, error) {
	var out []model.Coupon
	for _, c := range f.coupons {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCouponRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for code, c := range f.coupons {
		if c.ID == id {
			delete(f.coupons, code)
			return nil
		}
	}
	return model.NewCouponNotFoundError(id.String())
}

func (f *fakeCouponRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	_, ok := f.coupons[code]
	return ok, nil
}

func (f *fakeCouponRepo) AssignToUser(ctx context.Context, assignment *model.CouponUser) error {
	f.assignments[assignmentKey(assignment.CouponID, assignment.UserID)] = assignment
	return nil
}

func (f *fakeCouponRepo) GetAssignment(ctx context.Context, couponID, userID uuid.UUID) (*model.CouponUser, error) {
	return f.assignments[assignmentKey(couponID, userID)], nil
}

func (f *fakeCouponRepo) IncrementUsageWithTx(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) error {
	a := f.assignments[assignmentKey(couponID, userID)]
	if a == nil || a.UsageCount >= a.MaxUsage {
		return model.NewCouponUsageExceededError(couponID.String(), 0)
	}
	a.UsageCount++
	return nil
}

func (f *fakeCouponRepo) ExpireOutdated(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, c := range f.coupons {
		if c.Status == model.StatusValid && c.ToDate.Before(now) {
			c.Status = model.StatusExpired
			n++
		}
	}
	f.expiredRuns++
	return n, nil
}

// test fixtures

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func seedCoupon(repo *fakeCouponRepo, code string, status string, from, to time.Time) *model.Coupon {
	c := &model.Coupon{
		ID:       uuid.New(),
		Code:     code,
		Amount:   decimal.NewFromInt(20),
		Type:     model.TypePercentage,
		FromDate: from,
		ToDate:   to,
		Status:   status,
	}
	repo.coupons[code] = c
	return c
}

func seedAssignment(repo *fakeCouponRepo, couponID, userID uuid.UUID, maxUsage, used int) {
	repo.assignments[assignmentKey(couponID, userID)] = &model.CouponUser{
		ID:         uuid.New(),
		CouponID:   couponID,
		UserID:     userID,
		MaxUsage:   maxUsage,
		UsageCount: used,
	}
}

func TestValidate_Success(t *testing.T) {
	repo := newFakeCouponRepo()
	userID := uuid.New()
	coupon := seedCoupon(repo, "SUMMER20", model.StatusValid,
		testNow.Add(-24*time.Hour), testNow.Add(24*time.Hour))
	seedAssignment(repo, coupon.ID, userID, 3, 1)

	svc := NewCouponServiceWithClock(repo, fixedClock)

	discount, err := svc.Validate(context.Background(), "SUMMER20", userID)

	require.NoError(t, err)
	assert.Equal(t, coupon.ID, discount.CouponID)
	assert.True(t, discount.IsPercentage)
	assert.False(t, discount.IsFixed)
	assert.True(t, decimal.NewFromInt(20).Equal(discount.Amount))
}

func TestValidate_NotFound(t *testing.T) {
	svc := NewCouponServiceWithClock(newFakeCouponRepo(), fixedClock)

	_, err := svc.Validate(context.Background(), "NOPE", uuid.New())

	var couponErr *model.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, model.ErrCodeCouponNotFound, couponErr.Code)
}

func TestValidate_ExpiredStatus(t *testing.T) {
	repo := newFakeCouponRepo()
	userID := uuid.New()
	coupon := seedCoupon(repo, "OLD", model.StatusExpired,
		testNow.Add(-48*time.Hour), testNow.Add(48*time.Hour))
	seedAssignment(repo, coupon.ID, userID, 3, 0)

	svc := NewCouponServiceWithClock(repo, fixedClock)

	_, err := svc.Validate(context.Background(), "OLD", userID)

	var couponErr *model.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, model.ErrCodeCouponExpired, couponErr.Code)
}

func TestValidate_NotYetStarted(t *testing.T) {
	repo := newFakeCouponRepo()
	userID := uuid.New()
	coupon := seedCoupon(repo, "FUTURE", model.StatusValid,
		testNow.Add(time.Hour), testNow.Add(48*time.Hour))
	seedAssignment(repo, coupon.ID, userID, 3, 0)

	svc := NewCouponServiceWithClock(repo, fixedClock)

	_, err := svc.Validate(context.Background(), "FUTURE", userID)

	var couponErr *model.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, model.ErrCodeCouponNotYetStarted, couponErr.Code)
}

func TestValidate_WindowClosedButStatusStillValid(t *testing.T) {
	// The sweep runs on an interval, so the status flag can lag behind
	// the window. Validation must not trust the flag alone.
	repo := newFakeCouponRepo()
	userID := uuid.New()
	coupon := seedCoupon(repo, "LAGGING", model.StatusValid,
		testNow.Add(-48*time.Hour), testNow.Add(-time.Minute))
	seedAssignment(repo, coupon.ID, userID, 3, 0)

	svc := NewCouponServiceWithClock(repo, fixedClock)

	_, err := svc.Validate(context.Background(), "LAGGING", userID)

	var couponErr *model.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, model.ErrCodeCouponOutOfWindow, couponErr.Code)
}

func TestValidate_NotAssigned(t *testing.T) {
	repo := newFakeCouponRepo()
	seedCoupon(repo, "VIP", model.StatusValid,
		testNow.Add(-time.Hour), testNow.Add(time.Hour))

	svc := NewCouponServiceWithClock(repo, fixedClock)

	_, err := svc.Validate(context.Background(), "VIP", uuid.New())

	var couponErr *model.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, model.ErrCodeCouponNotAssigned, couponErr.Code)
}

func TestValidate_UsageExceeded(t *testing.T) {
	repo := newFakeCouponRepo()
	userID := uuid.New()
	coupon := seedCoupon(repo, "USED", model.StatusValid,
		testNow.Add(-time.Hour), testNow.Add(time.Hour))
	seedAssignment(repo, coupon.ID, userID, 2, 2)

	svc := NewCouponServiceWithClock(repo, fixedClock)

	_, err := svc.Validate(context.Background(), "USED", userID)

	var couponErr *model.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, model.ErrCodeCouponUsageExceeded, couponErr.Code)
}

func TestCreate_DuplicateCode(t *testing.T) {
	repo := newFakeCouponRepo()
	seedCoupon(repo, "TAKEN", model.StatusValid,
		testNow, testNow.Add(time.Hour))

	svc := NewCouponServiceWithClock(repo, fixedClock)

	_, err := svc.Create(context.Background(), model.CreateCouponRequest{
		Code:     "TAKEN",
		Amount:   10,
		Type:     model.TypeFixed,
		FromDate: testNow,
		ToDate:   testNow.Add(time.Hour),
	}, uuid.New())

	var couponErr *model.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, model.ErrCodeCouponCodeTaken, couponErr.Code)
}

func TestCreate_NewCouponStartsValid(t *testing.T) {
	repo := newFakeCouponRepo()
	svc := NewCouponServiceWithClock(repo, fixedClock)

	adminID := uuid.New()
	coupon, err := svc.Create(context.Background(), model.CreateCouponRequest{
		Code:     "FRESH",
		Amount:   15,
		Type:     model.TypePercentage,
		FromDate: testNow,
		ToDate:   testNow.Add(72 * time.Hour),
	}, adminID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusValid, coupon.Status)
	assert.NotEqual(t, uuid.Nil, coupon.ID)
	require.NotNil(t, coupon.CreatedBy)
	assert.Equal(t, adminID, *coupon.CreatedBy)
}

func TestExpireOutdated_FlipsOnlyPastWindowCoupons(t *testing.T) {
	repo := newFakeCouponRepo()
	seedCoupon(repo, "GONE", model.StatusValid,
		testNow.Add(-72*time.Hour), testNow.Add(-time.Hour))
	seedCoupon(repo, "ALIVE", model.StatusValid,
		testNow.Add(-time.Hour), testNow.Add(time.Hour))
	seedCoupon(repo, "ALREADY", model.StatusExpired,
		testNow.Add(-72*time.Hour), testNow.Add(-48*time.Hour))

	svc := NewCouponServiceWithClock(repo, fixedClock)

	n, err := svc.ExpireOutdated(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, model.StatusExpired, repo.coupons["GONE"].Status)
	assert.Equal(t, model.StatusValid, repo.coupons["ALIVE"].Status)
}
