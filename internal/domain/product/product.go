package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInsufficientStock is returned by DecrementStock when the guarded update
// would drive stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// Product represents a catalog item available for purchase. StockQuantity
// never goes negative as a result of an order operation.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int64
}

// Repository defines persistence operations for the product catalog.
//
// GetByIDsForUpdate and DecrementStock are only meaningful inside a unit of
// work: the former takes row-level locks on the selected products, the latter
// refuses to drive stock below zero.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	GetByIDsForUpdate(ctx context.Context, ids []int64) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, id, qty int64) error
}
