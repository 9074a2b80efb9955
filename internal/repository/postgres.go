package repository

import (
	"context"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dungnguyen2112/FLowershop/db"
	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
	"github.com/dungnguyen2112/FLowershop/internal/domain/loyalty"
	"github.com/dungnguyen2112/FLowershop/internal/domain/order"
	"github.com/dungnguyen2112/FLowershop/internal/domain/product"
)

// DBTX is the query surface shared by pgxpool.Pool and pgx.Tx. Repositories
// are written against it so the same code runs standalone or inside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

var _ order.Store = (*Store)(nil)

// Store exposes the order workflow's unit of work on top of a connection
// pool. Callbacks run inside a single database transaction that commits only
// when the callback returns nil.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn inside a transaction. Any error from fn rolls the whole
// transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(tx order.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&txRepos{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// txRepos binds every repository to one open transaction.
type txRepos struct {
	tx pgx.Tx
}

func (t *txRepos) Products() product.Repository   { return &ProductRepository{db: t.tx} }
func (t *txRepos) Customers() customer.Repository { return &CustomerRepository{db: t.tx} }
func (t *txRepos) Orders() order.Repository       { return &OrderRepository{db: t.tx} }
func (t *txRepos) Tiers() loyalty.Repository      { return &LoyaltyRepository{db: t.tx} }
