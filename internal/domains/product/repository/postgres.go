package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopora-backend/internal/domains/product/model"
)

type postgresProductRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &postgresProductRepository{pool: pool}
}

const productColumns = `
	id, name, slug, description, price, applied_price,
	stock, sold, image_url, created_at, updated_at
`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.AppliedPrice,
		&p.Stock,
		&p.Sold,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (id, name, slug, description, price, applied_price, stock, sold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.AppliedPrice,
		product.Stock,
		product.Sold,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return model.NewDatabaseError("create product", err)
	}

	return nil
}

func (r *postgresProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewProductNotFoundError(id)
		}
		return nil, model.NewDatabaseError("get product by id", err)
	}

	return product, nil
}

func (r *postgresProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, model.NewDatabaseError("get products by ids", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, model.NewDatabaseError("scan product", err)
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}

func (r *postgresProductRepository) List(ctx context.Context, page, limit int) ([]model.Product, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, model.NewDatabaseError("count products", err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, model.NewDatabaseError("list products", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, model.NewDatabaseError("scan product", err)
		}
		products = append(products, *p)
	}

	return products, total, rows.Err()
}

func (r *postgresProductRepository) Update(ctx context.Context, product *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5,
		    applied_price = $6, stock = $7, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.AppliedPrice,
		product.Stock,
	)
	if err != nil {
		return model.NewDatabaseError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewProductNotFoundError(product.ID)
	}

	return nil
}

func (r *postgresProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return model.NewDatabaseError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewProductNotFoundError(id)
	}
	return nil
}

func (r *postgresProductRepository) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET image_url = $2, updated_at = NOW() WHERE id = $1`,
		id, imageURL,
	)
	if err != nil {
		return model.NewDatabaseError("update product image", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewProductNotFoundError(id)
	}
	return nil
}

// ReduceStockWithTx decrements stock and increments sold in one statement.
// The stock guard in the WHERE clause makes concurrent oversells impossible:
// the row is locked for the duration of the UPDATE and the condition is
// re-evaluated against the committed value.
func (r *postgresProductRepository) ReduceStockWithTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, sold = sold + $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return model.NewDatabaseError("reduce stock", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the product vanished or stock dropped below the
		// requested quantity since availability was checked.
		product, getErr := r.getByIDWithTx(ctx, tx, productID)
		if getErr != nil {
			return getErr
		}
		return model.NewInsufficientStockError(product.Name, product.Stock, quantity)
	}

	return nil
}

// RestoreStockWithTx reverses ReduceStockWithTx when an order is cancelled.
func (r *postgresProductRepository) RestoreStockWithTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, sold = sold - $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return model.NewDatabaseError("restore stock", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewProductNotFoundError(productID)
	}

	return nil
}

func (r *postgresProductRepository) getByIDWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewProductNotFoundError(id)
		}
		return nil, model.NewDatabaseError("get product by id", err)
	}

	return product, nil
}
