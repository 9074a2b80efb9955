package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dungnguyen2112/FLowershop/internal/domain/revenue"
)

const (
	dailyRevenueSQL = `SELECT CAST(order_date AS date) AS day, SUM(total_amount) AS total
		FROM orders
		WHERE $1::date IS NULL OR CAST(order_date AS date) = $1
		GROUP BY day
		ORDER BY day DESC
		LIMIT 1`

	monthlyRevenueSQL = `SELECT EXTRACT(YEAR FROM order_date)::int AS year,
			EXTRACT(MONTH FROM order_date)::int AS month,
			SUM(total_amount) AS total
		FROM orders
		WHERE ($1::int IS NULL OR EXTRACT(YEAR FROM order_date) = $1)
			AND ($2::int IS NULL OR EXTRACT(MONTH FROM order_date) = $2)
		GROUP BY year, month
		ORDER BY year DESC, month DESC
		LIMIT 1`

	yearlyRevenueSQL = `SELECT EXTRACT(YEAR FROM order_date)::int AS year,
			SUM(total_amount) AS total
		FROM orders
		WHERE $1::int IS NULL OR EXTRACT(YEAR FROM order_date) = $1
		GROUP BY year
		ORDER BY year DESC
		LIMIT 1`
)

var _ revenue.Repository = (*RevenueRepository)(nil)

// RevenueRepository implements revenue.Repository backed by PostgreSQL.
// Unfiltered queries report the most recent period that has any orders; a
// filter that matches nothing yields a zero-revenue report echoing the
// filter.
type RevenueRepository struct {
	db DBTX
}

// NewRevenueRepository returns a RevenueRepository that uses the given pool.
func NewRevenueRepository(pool *pgxpool.Pool) *RevenueRepository {
	return &RevenueRepository{db: pool}
}

// Daily sums order totals for one calendar day.
func (r *RevenueRepository) Daily(ctx context.Context, date *time.Time) (*revenue.DailyReport, error) {
	report := &revenue.DailyReport{TotalRevenue: decimal.Zero}
	if date != nil {
		report.Date = *date
	}

	err := r.db.QueryRow(ctx, dailyRevenueSQL, date).Scan(&report.Date, &report.TotalRevenue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report, nil
		}
		return nil, fmt.Errorf("querying daily revenue: %w", err)
	}
	return report, nil
}

// Monthly sums order totals for one calendar month.
func (r *RevenueRepository) Monthly(ctx context.Context, year, month *int) (*revenue.MonthlyReport, error) {
	report := &revenue.MonthlyReport{TotalRevenue: decimal.Zero}
	if year != nil {
		report.Year = *year
	}
	if month != nil {
		report.Month = *month
	}

	err := r.db.QueryRow(ctx, monthlyRevenueSQL, year, month).
		Scan(&report.Year, &report.Month, &report.TotalRevenue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report, nil
		}
		return nil, fmt.Errorf("querying monthly revenue: %w", err)
	}
	return report, nil
}

// Yearly sums order totals for one calendar year.
func (r *RevenueRepository) Yearly(ctx context.Context, year *int) (*revenue.YearlyReport, error) {
	report := &revenue.YearlyReport{TotalRevenue: decimal.Zero}
	if year != nil {
		report.Year = *year
	}

	err := r.db.QueryRow(ctx, yearlyRevenueSQL, year).Scan(&report.Year, &report.TotalRevenue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report, nil
		}
		return nil, fmt.Errorf("querying yearly revenue: %w", err)
	}
	return report, nil
}
