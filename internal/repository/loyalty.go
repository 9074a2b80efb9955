package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dungnguyen2112/FLowershop/internal/domain/loyalty"
)

const (
	// The ordering is load-bearing: tier resolution walks the list and takes
	// the first qualifying entry, so highest threshold first with the lowest
	// id breaking ties.
	listTiersSQL = `SELECT loyalty_id, status, loyalty_points, loyalty_description
		FROM loyalty_tiers ORDER BY loyalty_points DESC, loyalty_id ASC`

	getTierByIDSQL = `SELECT loyalty_id, status, loyalty_points, loyalty_description
		FROM loyalty_tiers WHERE loyalty_id = $1`
)

var _ loyalty.Repository = (*LoyaltyRepository)(nil)

// LoyaltyRepository implements loyalty.Repository backed by PostgreSQL.
type LoyaltyRepository struct {
	db DBTX
}

// NewLoyaltyRepository returns a LoyaltyRepository that uses the given pool.
func NewLoyaltyRepository(pool *pgxpool.Pool) *LoyaltyRepository {
	return &LoyaltyRepository{db: pool}
}

// List returns the tier table in resolution order.
func (r *LoyaltyRepository) List(ctx context.Context) ([]loyalty.Tier, error) {
	rows, err := r.db.Query(ctx, listTiersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing loyalty tiers: %w", err)
	}
	return pgx.CollectRows(rows, scanTier)
}

// GetByID returns a single tier by its identifier.
func (r *LoyaltyRepository) GetByID(ctx context.Context, id int64) (*loyalty.Tier, error) {
	rows, err := r.db.Query(ctx, getTierByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting loyalty tier %d: %w", id, err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loyalty.ErrNotFound
		}
		return nil, fmt.Errorf("getting loyalty tier %d: %w", id, err)
	}
	return &t, nil
}

func scanTier(row pgx.CollectableRow) (loyalty.Tier, error) {
	var t loyalty.Tier
	err := row.Scan(&t.ID, &t.Status, &t.PointsThreshold, &t.Description)
	return t, err
}
