package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
)

const (
	getCustomerByIDSQL = `SELECT customer_id, name, email, hashed_password, phone_number, address, loyalty_id, total_spent, role_id
		FROM customers WHERE customer_id = $1`

	getCustomerByEmailSQL = `SELECT customer_id, name, email, hashed_password, phone_number, address, loyalty_id, total_spent, role_id
		FROM customers WHERE email = $1`

	listCustomersSQL = `SELECT customer_id, name, email, hashed_password, phone_number, address, loyalty_id, total_spent, role_id
		FROM customers ORDER BY customer_id`

	createCustomerSQL = `INSERT INTO customers (name, email, hashed_password, phone_number, address, loyalty_id, total_spent, role_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING customer_id`

	updateCustomerSQL = `UPDATE customers SET name = $2, email = $3, phone_number = $4, address = $5
		WHERE customer_id = $1`

	updateCustomerPasswordSQL = `UPDATE customers SET hashed_password = $2 WHERE customer_id = $1`

	updateCustomerLedgerSQL = `UPDATE customers SET total_spent = $2, loyalty_id = $3 WHERE customer_id = $1`
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	db DBTX
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: pool}
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.db.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

// GetByEmail returns a single customer by email.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	rows, err := r.db.Query(ctx, getCustomerByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("getting customer by email: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer by email: %w", err)
	}
	return &c, nil
}

// List returns all customers ordered by ID.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.db.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// Create inserts a new account and fills in its generated ID. A duplicate
// email is reported as customer.ErrEmailTaken.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	err := r.db.QueryRow(ctx, createCustomerSQL,
		c.Name, c.Email, c.HashedPassword, c.PhoneNumber, c.Address,
		c.LoyaltyID, c.TotalSpent, c.RoleID,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrEmailTaken
		}
		return fmt.Errorf("creating customer: %w", err)
	}
	return nil
}

// Update overwrites the customer's profile fields. The ledger and password
// have their own update paths.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	tag, err := r.db.Exec(ctx, updateCustomerSQL,
		c.ID, c.Name, c.Email, c.PhoneNumber, c.Address,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrEmailTaken
		}
		return fmt.Errorf("updating customer %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *CustomerRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	tag, err := r.db.Exec(ctx, updateCustomerPasswordSQL, id, hashedPassword)
	if err != nil {
		return fmt.Errorf("updating password for customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// UpdateLedger overwrites the cumulative spend and loyalty tier.
func (r *CustomerRepository) UpdateLedger(ctx context.Context, id int64, totalSpent decimal.Decimal, tierID *int64) error {
	tag, err := r.db.Exec(ctx, updateCustomerLedgerSQL, id, totalSpent, tierID)
	if err != nil {
		return fmt.Errorf("updating ledger for customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.HashedPassword, &c.PhoneNumber,
		&c.Address, &c.LoyaltyID, &c.TotalSpent, &c.RoleID,
	)
	return c, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
