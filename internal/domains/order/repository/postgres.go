package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopora-backend/internal/domains/order/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

// =====================================================
// TRANSACTION MANAGEMENT
// =====================================================

func (r *postgresOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *postgresOrderRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *postgresOrderRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// =====================================================
// CREATE ORDER
// =====================================================

func (r *postgresOrderRepository) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id,
			shipping_address, shipping_city, shipping_postal_code, shipping_country,
			phone_numbers, shipping_price, coupon_id, total_price,
			payment_method, status
		) VALUES (
			$1, $2,
			$3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12
		)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.ID,
		order.UserID,
		order.ShippingAddress.Address,
		order.ShippingAddress.City,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		order.PhoneNumbers,
		order.ShippingPrice,
		order.CouponID,
		order.TotalPrice,
		order.PaymentMethod,
		order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		return model.NewDatabaseError("create order", err)
	}

	return nil
}

func (r *postgresOrderRepository) CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, title, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Title,
			item.UnitPrice,
			item.Quantity,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return model.NewDatabaseError("create order items", err)
		}
	}

	return nil
}

// =====================================================
// READ ORDER
// =====================================================

const orderColumns = `
	id, user_id,
	shipping_address, shipping_city, shipping_postal_code, shipping_country,
	phone_numbers, shipping_price, coupon_id, total_price,
	payment_method, status, payment_intent_id, qr_summary_url, delivered_by,
	created_at, updated_at, paid_at, delivered_at, cancelled_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.ShippingAddress.Address,
		&o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country,
		&o.PhoneNumbers,
		&o.ShippingPrice,
		&o.CouponID,
		&o.TotalPrice,
		&o.PaymentMethod,
		&o.Status,
		&o.PaymentIntentID,
		&o.QRSummaryURL,
		&o.DeliveredBy,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.PaidAt,
		&o.DeliveredAt,
		&o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresOrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewOrderNotFoundError()
		}
		return nil, model.NewDatabaseError("get order by id", err)
	}

	items, err := r.getItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *postgresOrderRepository) GetByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewOrderNotFoundError()
		}
		return nil, model.NewDatabaseError("get order by id and user", err)
	}

	items, err := r.getItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *postgresOrderRepository) ListByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, model.NewDatabaseError("count orders", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, model.NewDatabaseError("list orders", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, model.NewDatabaseError("scan order", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, model.NewDatabaseError("list orders", err)
	}

	// Listings omit line items; the detail endpoint loads them.
	return orders, total, nil
}

func (r *postgresOrderRepository) getItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, title, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, model.NewDatabaseError("get order items", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Title,
			&item.UnitPrice,
			&item.Quantity,
		)
		if err != nil {
			return nil, model.NewDatabaseError("scan order item", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// =====================================================
// STATUS TRANSITIONS
// =====================================================
// Every transition is a conditional UPDATE. The status guard in the
// WHERE clause is what makes concurrent transitions safe: only one of
// two racing updates sees a row in the expected state.

func (r *postgresOrderRepository) MarkDelivered(ctx context.Context, orderID, deliveredBy uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, delivered_by = $2, delivered_at = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	tag, err := r.pool.Exec(ctx, query,
		model.StatusDelivered, deliveredBy, at, orderID, model.StatusPlaced)
	if err != nil {
		return false, model.NewDatabaseError("mark delivered", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *postgresOrderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, paid_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	tag, err := r.pool.Exec(ctx, query,
		model.StatusPaid, at, orderID, model.StatusPending)
	if err != nil {
		return false, model.NewDatabaseError("mark paid", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *postgresOrderRepository) MarkRefunded(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	tag, err := r.pool.Exec(ctx, query,
		model.StatusRefunded, orderID, model.StatusPaid)
	if err != nil {
		return false, model.NewDatabaseError("mark refunded", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *postgresOrderRepository) MarkCancelledWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, cancelled_at = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)
	`

	tag, err := tx.Exec(ctx, query,
		model.StatusCancelled, at, orderID, model.StatusPending, model.StatusPlaced)
	if err != nil {
		return false, model.NewDatabaseError("mark cancelled", err)
	}

	return tag.RowsAffected() > 0, nil
}

// =====================================================
// PAYMENT BOOKKEEPING
// =====================================================

func (r *postgresOrderRepository) SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	query := `
		UPDATE orders
		SET payment_intent_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := r.pool.Exec(ctx, query, intentID, orderID)
	if err != nil {
		return model.NewDatabaseError("set payment intent", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewOrderNotFoundError()
	}

	return nil
}

func (r *postgresOrderRepository) SetQRSummaryURL(ctx context.Context, orderID uuid.UUID, url string) error {
	query := `
		UPDATE orders
		SET qr_summary_url = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := r.pool.Exec(ctx, query, url, orderID)
	if err != nil {
		return model.NewDatabaseError("set qr summary url", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewOrderNotFoundError()
	}

	return nil
}
