package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dungnguyen2112/FLowershop/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (customer_id, order_date, total_amount)
		VALUES ($1, $2, $3) RETURNING order_id`

	getOrderByIDSQL = `SELECT order_id, customer_id, order_date, total_amount
		FROM orders WHERE order_id = $1 AND customer_id = $2`

	listOrdersByCustomerSQL = `SELECT order_id, customer_id, order_date, total_amount
		FROM orders WHERE customer_id = $1 ORDER BY order_id`

	listAllOrdersSQL = `SELECT order_id, customer_id, order_date, total_amount
		FROM orders ORDER BY order_id`

	updateOrderHeaderSQL = `UPDATE orders SET order_date = $2, total_amount = $3
		WHERE order_id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE order_id = $1`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4) RETURNING order_item_id`

	updateOrderItemSQL = `UPDATE order_items SET quantity = $2, price_at_purchase = $3
		WHERE order_item_id = $1`

	listOrderItemsSQL = `SELECT order_item_id, order_id, product_id, quantity, price_at_purchase
		FROM order_items WHERE order_id = $1 ORDER BY order_item_id`

	deleteOrderItemsSQL = `DELETE FROM order_items
		WHERE order_id = $1 AND product_id = ANY($2)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// lookups always filter by owning customer, so a foreign order behaves
// exactly like a missing one.
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: pool}
}

// Create persists a new order header and fills in its generated ID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.db.QueryRow(ctx, createOrderSQL,
		o.CustomerID, o.OrderDate, o.TotalAmount,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// GetByID returns the order only when it belongs to customerID.
func (r *OrderRepository) GetByID(ctx context.Context, orderID, customerID int64) (*order.Order, error) {
	rows, err := r.db.Query(ctx, getOrderByIDSQL, orderID, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}
	return &o, nil
}

// ListByCustomer returns all orders owned by customerID ordered by ID.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %d: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order in the system ordered by ID.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateHeader overwrites the order's date and total.
func (r *OrderRepository) UpdateHeader(ctx context.Context, o *order.Order) error {
	tag, err := r.db.Exec(ctx, updateOrderHeaderSQL, o.ID, o.OrderDate, o.TotalAmount)
	if err != nil {
		return fmt.Errorf("updating order %d: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order; its items go with it via the cascade.
func (r *OrderRepository) Delete(ctx context.Context, orderID int64) error {
	tag, err := r.db.Exec(ctx, deleteOrderSQL, orderID)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// InsertItem persists a new order line and fills in its generated ID.
func (r *OrderRepository) InsertItem(ctx context.Context, item *order.Item) error {
	err := r.db.QueryRow(ctx, insertOrderItemSQL,
		item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("inserting item for order %d: %w", item.OrderID, err)
	}
	return nil
}

// UpdateItem overwrites an order line's quantity and snapshotted price.
func (r *OrderRepository) UpdateItem(ctx context.Context, item *order.Item) error {
	_, err := r.db.Exec(ctx, updateOrderItemSQL, item.ID, item.Quantity, item.PriceAtPurchase)
	if err != nil {
		return fmt.Errorf("updating item %d: %w", item.ID, err)
	}
	return nil
}

// ListItems returns the order's lines ordered by item ID.
func (r *OrderRepository) ListItems(ctx context.Context, orderID int64) ([]order.Item, error) {
	rows, err := r.db.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %d: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanOrderItem)
}

// DeleteItems removes the order's lines for the given products.
func (r *OrderRepository) DeleteItems(ctx context.Context, orderID int64, productIDs []int64) error {
	_, err := r.db.Exec(ctx, deleteOrderItemsSQL, orderID, productIDs)
	if err != nil {
		return fmt.Errorf("deleting items for order %d: %w", orderID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.TotalAmount)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PriceAtPurchase)
	return item, err
}
