package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"shopora-backend/internal/domains/product/model"
)

// =====================================================
// PRODUCT REPOSITORY INTERFACE
// =====================================================
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, page, limit int) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error

	// Stock mutations. The WithTx variants participate in a caller-owned
	// transaction so stock, order and coupon writes commit together.
	ReduceStockWithTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error
	RestoreStockWithTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error
}
