package order

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
	"github.com/dungnguyen2112/FLowershop/internal/domain/loyalty"
	"github.com/dungnguyen2112/FLowershop/internal/domain/product"
)

// Sentinel errors for the order workflow.
var (
	// ErrNotFound covers both a missing order and an order owned by another
	// customer. The two cases are deliberately indistinguishable so that the
	// API never leaks whether a foreign order exists.
	ErrNotFound = errors.New("order not found")

	// ErrEmptyItems rejects order creation without line items.
	ErrEmptyItems = errors.New("items required")

	// ErrCustomerNotFound indicates the requesting customer id has no
	// account row. Should not happen behind authentication, but the
	// workflow checks anyway.
	ErrCustomerNotFound = customer.ErrNotFound
)

// ProductNotFoundError reports every referenced product id that does not
// exist in the catalog.
type ProductNotFoundError struct {
	ProductIDs []int64
}

func (e *ProductNotFoundError) Error() string {
	ids := make([]string, len(e.ProductIDs))
	for i, id := range e.ProductIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("products with IDs [%s] not found", strings.Join(ids, ", "))
}

// InsufficientStockError indicates a line item requests more units than the
// product has in stock.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product ID %d", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// Order is an order header. TotalAmount always equals the sum of its items'
// quantity times price-at-purchase.
type Order struct {
	ID          int64
	CustomerID  int64
	OrderDate   time.Time
	TotalAmount decimal.Decimal
}

// Item is a single order line. PriceAtPurchase is the catalog price
// snapshotted when the line was created or last updated; later product price
// changes do not affect it.
type Item struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	Quantity        int64
	PriceAtPurchase decimal.Decimal
}

// Repository defines persistence operations for orders and their items.
// GetByID and ListItems treat an order owned by another customer as absent.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID, customerID int64) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateHeader(ctx context.Context, o *Order) error
	Delete(ctx context.Context, orderID int64) error

	InsertItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context, orderID int64) ([]Item, error)
	DeleteItems(ctx context.Context, orderID int64, productIDs []int64) error
}

// Tx exposes the persistence operations available inside one unit of work.
// Every mutation performed through a Tx commits or rolls back together.
type Tx interface {
	Products() product.Repository
	Customers() customer.Repository
	Orders() Repository
	Tiers() loyalty.Repository
}

// Store begins units of work for the order workflow. The callback's error
// aborts the transaction; a nil return commits it.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
