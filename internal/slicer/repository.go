package slicer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// PGRepository reads distinct slicer values from the summary tables.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func table(currency string) string {
	switch currency {
	case "SGD":
		return "blue_whale_sgd_summary"
	case "USC":
		return "blue_whale_usc_summary"
	default:
		return "blue_whale_myr_summary"
	}
}

// Periods returns the distinct year/month pairs with data.
func (r *PGRepository) Periods(ctx context.Context, currency string) ([]Period, error) {
	query := fmt.Sprintf(`SELECT DISTINCT year, month FROM %s WHERE currency = $1`, table(currency))
	rows, err := r.pool.Query(ctx, query, currency)
	if err != nil {
		return nil, fmt.Errorf("%w: query periods: %v", shared.ErrDataSource, err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.Year, &p.Month); err != nil {
			return nil, fmt.Errorf("%w: scan periods: %v", shared.ErrDataSource, err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate periods: %v", shared.ErrDataSource, err)
	}
	return periods, nil
}

// Lines returns the distinct brands with data, ordered by name.
func (r *PGRepository) Lines(ctx context.Context, currency string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT line FROM %s WHERE currency = $1 ORDER BY line`, table(currency))
	rows, err := r.pool.Query(ctx, query, currency)
	if err != nil {
		return nil, fmt.Errorf("%w: query lines: %v", shared.ErrDataSource, err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: collect lines: %v", shared.ErrDataSource, err)
	}
	return lines, nil
}
