package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// Repository provides PostgreSQL backed reads for the dashboard. All
// reads are request-scoped and idempotent; no method writes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// whereClause translates a QueryFilter into SQL conditions. This is the
// single place slicer state becomes SQL, so call sites never chain
// conditions ad hoc.
func whereClause(f QueryFilter) (string, []any) {
	conds := []string{"currency = $1"}
	args := []any{f.Currency}
	if f.restricted() {
		args = append(args, f.Line)
		conds = append(conds, fmt.Sprintf("line = $%d", len(args)))
	}
	if f.Range != nil {
		args = append(args, f.Range.Start)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
		args = append(args, f.Range.End)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
		return strings.Join(conds, " AND "), args
	}
	if f.Year != 0 {
		args = append(args, f.Year)
		conds = append(conds, fmt.Sprintf("year = $%d", len(args)))
	}
	if f.Month != "" {
		args = append(args, f.Month)
		conds = append(conds, fmt.Sprintf("month = $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

// Deposits returns raw deposit events matching the filter.
func (r *Repository) Deposits(ctx context.Context, f QueryFilter) ([]kpi.TransactionRow, error) {
	return r.transactions(ctx, "deposit", f)
}

// Withdraws returns raw withdraw events matching the filter.
func (r *Repository) Withdraws(ctx context.Context, f QueryFilter) ([]kpi.TransactionRow, error) {
	return r.transactions(ctx, "withdraw", f)
}

func (r *Repository) transactions(ctx context.Context, table string, f QueryFilter) ([]kpi.TransactionRow, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT date, time, year, month, line, currency, user_key, unique_code,
		       amount, operator_group, proc_sec, status
		FROM %s
		WHERE %s
		ORDER BY date, time`, table, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", shared.ErrDataSource, table, err)
	}
	defer rows.Close()

	var result []kpi.TransactionRow
	for rows.Next() {
		var row kpi.TransactionRow
		if err := rows.Scan(&row.Date, &row.Time, &row.Year, &row.Month, &row.Line,
			&row.Currency, &row.UserKey, &row.UniqueCode, &row.Amount,
			&row.OperatorGroup, &row.ProcSec, &row.Status); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", shared.ErrDataSource, table, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", shared.ErrDataSource, table, err)
	}
	return result, nil
}

// Summaries returns pre-aggregated brand/day rows from the currency's
// summary table. Zero matching rows is an empty slice, not an error.
func (r *Repository) Summaries(ctx context.Context, f QueryFilter) ([]kpi.SummaryRow, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT date, year, month, line, currency, deposit_cases, deposit_amount,
		       withdraw_cases, withdraw_amount, add_transaction, deduct_transaction
		FROM %s
		WHERE %s
		ORDER BY date`, summaryTable(f.Currency), where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query summary: %v", shared.ErrDataSource, err)
	}
	defer rows.Close()

	var result []kpi.SummaryRow
	for rows.Next() {
		var row kpi.SummaryRow
		if err := rows.Scan(&row.Date, &row.Year, &row.Month, &row.Line, &row.Currency,
			&row.DepositCases, &row.DepositAmount, &row.WithdrawCases,
			&row.WithdrawAmount, &row.AddTransaction, &row.DeductTransaction); err != nil {
			return nil, fmt.Errorf("%w: scan summary: %v", shared.ErrDataSource, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate summary: %v", shared.ErrDataSource, err)
	}
	return result, nil
}

// Members returns member/day rows for distinct member and retention
// counting.
func (r *Repository) Members(ctx context.Context, f QueryFilter) ([]kpi.MemberRow, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT date, line, currency, user_key, unique_code, deposit_cases
		FROM member_report_daily
		WHERE %s
		ORDER BY date`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query members: %v", shared.ErrDataSource, err)
	}
	defer rows.Close()

	var result []kpi.MemberRow
	for rows.Next() {
		var row kpi.MemberRow
		if err := rows.Scan(&row.Date, &row.Line, &row.Currency, &row.UserKey,
			&row.UniqueCode, &row.DepositCases); err != nil {
			return nil, fmt.Errorf("%w: scan members: %v", shared.ErrDataSource, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate members: %v", shared.ErrDataSource, err)
	}
	return result, nil
}

// Lines returns the distinct brands known for a currency, ordered by
// name. The caller applies the brand access filter on top.
func (r *Repository) Lines(ctx context.Context, currency string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT line FROM %s WHERE currency = $1 ORDER BY line`, summaryTable(currency))
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
