package loyalty

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested tier does not exist.
var ErrNotFound = errors.New("loyalty tier not found")

// Tier is a named loyalty status granted once a customer's cumulative spend
// crosses PointsThreshold.
type Tier struct {
	ID              int64
	Status          string
	PointsThreshold int64
	Description     string
}

// Repository provides an ordered snapshot of the tier table.
//
// List returns tiers sorted by PointsThreshold descending; tiers sharing a
// threshold are ordered by ID ascending so that HighestQualifying resolves
// ties to the lowest tier ID.
type Repository interface {
	List(ctx context.Context) ([]Tier, error)
	GetByID(ctx context.Context, id int64) (*Tier, error)
}

// HighestQualifying returns the ID of the highest-threshold tier whose
// threshold does not exceed spent. Tiers must already be ordered as described
// on Repository.List; the first match wins. The second return value is false
// when no tier qualifies (including negative spend).
func HighestQualifying(tiers []Tier, spent decimal.Decimal) (int64, bool) {
	for _, t := range tiers {
		if spent.GreaterThanOrEqual(decimal.NewFromInt(t.PointsThreshold)) {
			return t.ID, true
		}
	}
	return 0, false
}
