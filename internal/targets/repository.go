package targets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

const uniqueViolation = "23505"

// Repository persists targets in bp_target.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const targetColumns = `id, currency, line, year, quarter, deposit_target, ggr_target, active_member_target, updated_by, updated_at`

// List returns targets for a currency and year, ordered by line and
// quarter.
func (r *Repository) List(ctx context.Context, currency string, year int) ([]Target, error) {
	query := fmt.Sprintf(`SELECT %s FROM bp_target WHERE currency = $1 AND year = $2 ORDER BY line, quarter`, targetColumns)
	rows, err := r.pool.Query(ctx, query, currency, year)
	if err != nil {
		return nil, fmt.Errorf("%w: query targets: %v", shared.ErrDataSource, err)
	}
	defer rows.Close()

	var result []Target
	for rows.Next() {
		var t Target
		if err := scanTarget(rows, &t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate targets: %v", shared.ErrDataSource, err)
	}
	return result, nil
}

// Find locates one target by its business key.
func (r *Repository) Find(ctx context.Context, currency, line string, year, quarter int) (Target, error) {
	query := fmt.Sprintf(`SELECT %s FROM bp_target WHERE currency = $1 AND line = $2 AND year = $3 AND quarter = $4`, targetColumns)
	row := r.pool.QueryRow(ctx, query, currency, line, year, quarter)
	var t Target
	if err := scanTarget(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Target{}, shared.ErrNotFound
		}
		return Target{}, err
	}
	return t, nil
}

// Create inserts a new target. A duplicate business key maps to
// ErrDuplicate.
func (r *Repository) Create(ctx context.Context, t Target) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bp_target (id, currency, line, year, quarter, deposit_target, ggr_target, active_member_target, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Currency, t.Line, t.Year, t.Quarter, t.DepositTarget, t.GGRTarget, t.ActiveMemberTarget, t.UpdatedBy, t.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == uniqueViolation {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("%w: insert target: %v", shared.ErrDataSource, err)
	}
	return nil
}

// Update rewrites the target values for an existing business key.
func (r *Repository) Update(ctx context.Context, t Target) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bp_target
		SET deposit_target = $1, ggr_target = $2, active_member_target = $3, updated_by = $4, updated_at = $5
		WHERE id = $6`,
		t.DepositTarget, t.GGRTarget, t.ActiveMemberTarget, t.UpdatedBy, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("%w: update target: %v", shared.ErrDataSource, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTarget(row pgx.Row, t *Target) error {
	if err := row.Scan(&t.ID, &t.Currency, &t.Line, &t.Year, &t.Quarter,
		&t.DepositTarget, &t.GGRTarget, &t.ActiveMemberTarget, &t.UpdatedBy, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("%w: scan target: %v", shared.ErrDataSource, err)
	}
	return nil
}
