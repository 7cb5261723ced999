package kpi

import "time"

// TransactionRow is one raw deposit or withdraw event as stored in the
// transaction tables. Rows are immutable once queried.
type TransactionRow struct {
	Date          time.Time
	Time          string
	Year          int
	Month         string
	Line          string
	Currency      string
	UserKey       string
	UniqueCode    string
	Amount        float64
	OperatorGroup string
	// ProcSec is the processing latency in seconds. Nil means the latency
	// was never recorded; such rows stay out of latency aggregates.
	ProcSec *float64
	Status  string
}

// SummaryRow is one pre-aggregated brand/day record. It is the
// authoritative source for period totals.
type SummaryRow struct {
	Date              time.Time
	Year              int
	Month             string
	Line              string
	Currency          string
	DepositCases      int
	DepositAmount     float64
	WithdrawCases     int
	WithdrawAmount    float64
	AddTransaction    float64
	DeductTransaction float64
}

// MemberRow is one member/day record from the member report, used for
// distinct active member and retention counting.
type MemberRow struct {
	Date         time.Time
	Line         string
	Currency     string
	UserKey      string
	UniqueCode   string
	DepositCases int
}

// DistinctMembers counts distinct depositing user keys and distinct
// unique codes. Only rows with at least one deposit case qualify.
func DistinctMembers(rows []MemberRow) (active, pure int) {
	users := make(map[string]struct{})
	codes := make(map[string]struct{})
	for _, row := range rows {
		if row.DepositCases <= 0 {
			continue
		}
		if row.UserKey != "" {
			users[row.UserKey] = struct{}{}
		}
		if row.UniqueCode != "" {
			codes[row.UniqueCode] = struct{}{}
		}
	}
	return len(users), len(codes)
}

// RetainedMembers counts user keys that deposited in both periods.
func RetainedMembers(previous, current []MemberRow) int {
	prev := make(map[string]struct{}, len(previous))
	for _, row := range previous {
		if row.DepositCases > 0 && row.UserKey != "" {
			prev[row.UserKey] = struct{}{}
		}
	}
	retained := make(map[string]struct{})
	for _, row := range current {
		if row.DepositCases <= 0 || row.UserKey == "" {
			continue
		}
		if _, ok := prev[row.UserKey]; ok {
			retained[row.UserKey] = struct{}{}
		}
	}
	return len(retained)
}

// SinceCutoff returns the rows dated on or after cutoff. A zero cutoff
// returns the input unchanged.
func SinceCutoff(rows []TransactionRow, cutoff time.Time) []TransactionRow {
	if cutoff.IsZero() {
		return rows
	}
	filtered := make([]TransactionRow, 0, len(rows))
	for _, row := range rows {
		if !row.Date.Before(cutoff) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
