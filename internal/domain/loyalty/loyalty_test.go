package loyalty

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tierTable() []Tier {
	// Ordered by threshold descending, as Repository.List guarantees.
	return []Tier{
		{ID: 3, Status: "Gold", PointsThreshold: 500},
		{ID: 2, Status: "Silver", PointsThreshold: 100},
		{ID: 1, Status: "Bronze", PointsThreshold: 0},
	}
}

func TestHighestQualifying(t *testing.T) {
	tests := []struct {
		name   string
		spent  string
		wantID int64
		wantOK bool
	}{
		{"between silver and gold", "150", 2, true},
		{"exactly at gold threshold", "500", 3, true},
		{"just below silver", "99.99", 1, true},
		{"zero spend is bronze", "0", 1, true},
		{"negative spend has no tier", "-1", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := HighestQualifying(tierTable(), decimal.RequireFromString(tt.spent))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestHighestQualifying_Idempotent(t *testing.T) {
	spent := decimal.RequireFromString("123.45")

	first, ok1 := HighestQualifying(tierTable(), spent)
	second, ok2 := HighestQualifying(tierTable(), spent)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestHighestQualifying_EqualThresholdsLowestIDWins(t *testing.T) {
	// Two tiers at the same threshold: List orders them by ID ascending,
	// so the lower ID is returned first.
	tiers := []Tier{
		{ID: 4, Status: "Emerald", PointsThreshold: 200},
		{ID: 7, Status: "Jade", PointsThreshold: 200},
		{ID: 1, Status: "Bronze", PointsThreshold: 0},
	}

	id, ok := HighestQualifying(tiers, decimal.NewFromInt(250))
	require.True(t, ok)
	assert.Equal(t, int64(4), id)
}

func TestHighestQualifying_EmptyTable(t *testing.T) {
	_, ok := HighestQualifying(nil, decimal.NewFromInt(1000))
	assert.False(t, ok)
}
