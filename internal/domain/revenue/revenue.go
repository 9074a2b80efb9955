// Package revenue defines the reporting queries over completed orders.
package revenue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport is the summed order total for a single calendar day.
type DailyReport struct {
	Date         time.Time
	TotalRevenue decimal.Decimal
}

// MonthlyReport is the summed order total for a calendar month.
type MonthlyReport struct {
	Year         int
	Month        int
	TotalRevenue decimal.Decimal
}

// YearlyReport is the summed order total for a calendar year.
type YearlyReport struct {
	Year         int
	TotalRevenue decimal.Decimal
}

// Repository aggregates order totals by period. Nil filters mean "the most
// recent period with any orders"; a report with zero revenue is returned when
// nothing matches.
type Repository interface {
	Daily(ctx context.Context, date *time.Time) (*DailyReport, error)
	Monthly(ctx context.Context, year, month *int) (*MonthlyReport, error)
	Yearly(ctx context.Context, year *int) (*YearlyReport, error)
}
