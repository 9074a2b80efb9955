package customer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// ErrEmailTaken is returned when registering with an already used email.
var ErrEmailTaken = errors.New("email already registered")

// AdminRoleID is the role granting access to catalog writes, reporting, and
// the admin listing endpoints.
const AdminRoleID int64 = 1

// Customer holds an account together with its ledger state: cumulative spend
// and the current loyalty tier. LoyaltyID is nil when no tier qualifies.
type Customer struct {
	ID             int64
	Name           string
	Email          string
	HashedPassword string
	PhoneNumber    string
	Address        string
	LoyaltyID      *int64
	TotalSpent     decimal.Decimal
	RoleID         int64
}

// Repository defines persistence operations for customer accounts and the
// per-customer ledger. UpdateLedger is mutated exclusively by the order
// workflow inside a unit of work.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	// UpdateLedger overwrites the customer's cumulative spend and loyalty
	// tier. A nil tierID clears the tier.
	UpdateLedger(ctx context.Context, id int64, totalSpent decimal.Decimal, tierID *int64) error
}
