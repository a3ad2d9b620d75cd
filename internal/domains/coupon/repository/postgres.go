package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopora-backend/internal/domains/coupon/model"
)

type postgresCouponRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &postgresCouponRepository{pool: pool}
}

const couponColumns = `
	id, code, amount, type, from_date, to_date, status, created_by, created_at, updated_at
`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Amount,
		&c.Type,
		&c.FromDate,
		&c.ToDate,
		&c.Status,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresCouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, amount, type, from_date, to_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Amount,
		coupon.Type,
		coupon.FromDate,
		coupon.ToDate,
		coupon.Status,
		coupon.CreatedBy,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)

	if err != nil {
		return model.NewCouponDatabaseError("create coupon", err)
	}

	return nil
}

func (r *postgresCouponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewCouponNotFoundError(id.String())
		}
		return nil, model.NewCouponDatabaseError("get coupon by id", err)
	}

	return coupon, nil
}

func (r *postgresCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewCouponNotFoundError(code)
		}
		return nil, model.NewCouponDatabaseError("get coupon by code", err)
	}

	return coupon, nil
}

func (r *postgresCouponRepository) List(ctx context.Context, page, limit int) ([]model.Coupon, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, model.NewCouponDatabaseError("count coupons", err)
	}

	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, model.NewCouponDatabaseError("list coupons", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, model.NewCouponDatabaseError("scan coupon", err)
		}
		coupons = append(coupons, *c)
	}

	return coupons, total, rows.Err()
}

func (r *postgresCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return model.NewCouponDatabaseError("delete coupon", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewCouponNotFoundError(id.String())
	}
	return nil
}

func (r *postgresCouponRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM coupons WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, model.NewCouponDatabaseError("check coupon code", err)
	}
	return exists, nil
}

func (r *postgresCouponRepository) AssignToUser(ctx context.Context, assignment *model.CouponUser) error {
	query := `
		INSERT INTO coupon_users (id, coupon_id, user_id, max_usage, usage_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (coupon_id, user_id)
		DO UPDATE SET max_usage = EXCLUDED.max_usage, updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		assignment.ID,
		assignment.CouponID,
		assignment.UserID,
		assignment.MaxUsage,
		assignment.UsageCount,
	).Scan(&assignment.CreatedAt, &assignment.UpdatedAt)

	if err != nil {
		return model.NewCouponDatabaseError("assign coupon", err)
	}

	return nil
}

func (r *postgresCouponRepository) GetAssignment(ctx context.Context, couponID, userID uuid.UUID) (*model.CouponUser, error) {
	query := `
		SELECT id, coupon_id, user_id, max_usage, usage_count, created_at, updated_at
		FROM coupon_users
		WHERE coupon_id = $1 AND user_id = $2
	`

	var cu model.CouponUser
	err := r.pool.QueryRow(ctx, query, couponID, userID).Scan(
		&cu.ID,
		&cu.CouponID,
		&cu.UserID,
		&cu.MaxUsage,
		&cu.UsageCount,
		&cu.CreatedAt,
		&cu.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, model.NewCouponDatabaseError("get coupon assignment", err)
	}

	return &cu, nil
}

// IncrementUsageWithTx bumps the usage counter inside the order
// transaction. The usage guard re-checks the budget so two concurrent
// orders cannot both consume the last redemption.
func (r *postgresCouponRepository) IncrementUsageWithTx(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) error {
	query := `
		UPDATE coupon_users
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE coupon_id = $1 AND user_id = $2 AND usage_count < max_usage
	`

	tag, err := tx.Exec(ctx, query, couponID, userID)
	if err != nil {
		return model.NewCouponDatabaseError("increment coupon usage", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("coupon usage update affected no rows for coupon %s user %s", couponID, userID)
	}

	return nil
}

func (r *postgresCouponRepository) ExpireOutdated(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE coupons
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND to_date < $3
	`

	tag, err := r.pool.Exec(ctx, query, model.StatusExpired, model.StatusValid, now)
	if err != nil {
		return 0, model.NewCouponDatabaseError("expire outdated coupons", err)
	}

	return tag.RowsAffected(), nil
}
