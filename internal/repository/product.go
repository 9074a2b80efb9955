package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dungnguyen2112/FLowershop/internal/domain/product"
)

const (
	listProductsSQL = `SELECT product_id, name, description, price, stock_quantity
		FROM products ORDER BY product_id`

	getProductByIDSQL = `SELECT product_id, name, description, price, stock_quantity
		FROM products WHERE product_id = $1`

	getProductsByIDsSQL = `SELECT product_id, name, description, price, stock_quantity
		FROM products WHERE product_id = ANY($1) ORDER BY product_id`

	getProductsByIDsForUpdateSQL = `SELECT product_id, name, description, price, stock_quantity
		FROM products WHERE product_id = ANY($1) ORDER BY product_id FOR UPDATE`

	createProductSQL = `INSERT INTO products (name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4) RETURNING product_id`

	updateProductSQL = `UPDATE products SET name = $2, description = $3, price = $4, stock_quantity = $5
		WHERE product_id = $1`

	deleteProductSQL = `DELETE FROM products WHERE product_id = $1`

	decrementStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $2
		WHERE product_id = $1 AND stock_quantity >= $2`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	db DBTX
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: pool}
}

// List returns the whole catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs, ordered by ID.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByIDsForUpdate is GetByIDs with row locks. The ORDER BY gives every
// caller the same lock acquisition order.
func (r *ProductRepository) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, getProductsByIDsForUpdateSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("locking products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new catalog item and fills in its generated ID.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.db.QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.Price, p.StockQuantity,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// Update overwrites an existing catalog item.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.db.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.StockQuantity,
	)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a catalog item.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty guarded by the current stock level: the update
// matches no row when stock would go negative, which is reported as
// product.ErrInsufficientStock.
func (r *ProductRepository) DecrementStock(ctx context.Context, id, qty int64) error {
	tag, err := r.db.Exec(ctx, decrementStockSQL, id, qty)
	if err != nil {
		return fmt.Errorf("decrementing stock for product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity)
	return p, err
}
