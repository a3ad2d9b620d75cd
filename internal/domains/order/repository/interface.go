package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"shopora-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
type OrderRepository interface {
	// Transaction management. The service owns the transaction so order,
	// stock, coupon and cart writes commit atomically.
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// Order writes
	CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// Order reads
	GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	GetByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error)

	// Status transitions. Each is a conditional UPDATE guarded on the
	// current status; zero rows affected means the transition lost.
	MarkDelivered(ctx context.Context, orderID, deliveredBy uuid.UUID, at time.Time) (bool, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID) (bool, error)
	MarkCancelledWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, at time.Time) (bool, error)

	// Payment bookkeeping
	SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error
	SetQRSummaryURL(ctx context.Context, orderID uuid.UUID, url string) error
}
