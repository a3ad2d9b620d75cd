package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"shopora-backend/internal/domains/cart/model"
)

type CartRepository interface {
	// GetByUserID returns the user's cart with items, or ErrCartNotFound.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// GetOrCreate returns the user's cart, creating an empty one if needed.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	UpsertItem(ctx context.Context, item *model.CartItem) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error

	// DeleteCartWithTx removes the cart and its items inside the order
	// transaction, so cart conversion and order creation commit together.
	DeleteCartWithTx(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error
}
