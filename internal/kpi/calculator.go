// Package kpi implements the aggregation core of the dashboard: pure
// calculators turning raw transaction, summary, and member rows into
// named business metrics, plus period comparison and time-series
// bucketing on top of them.
package kpi

// CalculateTransactions aggregates raw deposit and withdraw events into
// a snapshot. Pure function: no I/O, deterministic for a given input.
//
// Automation and latency metrics are derived from both directions, since
// the processing channel applies to deposits and withdrawals alike. Rows
// whose operator group matches neither the automation nor the manual set
// stay in the overall totals but out of both partitions.
func CalculateTransactions(deposits, withdraws []TransactionRow, policy Policy) Snapshot {
	var s Snapshot

	users := make(map[string]struct{})
	codes := make(map[string]struct{})
	var procTotal float64

	for _, row := range deposits {
		s.DepositCases++
		s.DepositAmount += row.Amount
		if row.UserKey != "" {
			users[row.UserKey] = struct{}{}
		}
		if row.UniqueCode != "" {
			codes[row.UniqueCode] = struct{}{}
		}
		procTotal += tally(&s, row, policy)
	}
	for _, row := range withdraws {
		s.WithdrawCases++
		s.WithdrawAmount += row.Amount
		procTotal += tally(&s, row, policy)
	}

	s.ActiveMember = len(users)
	s.PureUser = len(codes)
	s.AvgProcSec = ratio(procTotal, float64(s.LatencySamples))
	s.finalize()
	return s
}

// tally records the automation partition and latency buckets for one
// row, returning its latency contribution.
func tally(s *Snapshot, row TransactionRow, policy Policy) float64 {
	switch {
	case policy.isAutomation(row.OperatorGroup):
		s.AutomationTransactions++
	case policy.isManual(row.OperatorGroup):
		s.ManualTransactions++
	}
	if row.ProcSec == nil {
		return 0
	}
	sec := *row.ProcSec
	if sec < 0 {
		return 0
	}
	s.LatencySamples++
	if sec > policy.OverdueThresholdSec {
		s.OverdueTransactions++
	}
	if sec <= policy.FastThresholdSec {
		s.FastTransactions++
	}
	return sec
}

// CalculateSummary aggregates pre-aggregated brand/day rows into a
// snapshot. Member rows, when supplied, provide the distinct active and
// pure user counts; summary rows alone cannot, since a user depositing
// on two days would be counted twice.
func CalculateSummary(rows []SummaryRow, members []MemberRow) Snapshot {
	var s Snapshot
	for _, row := range rows {
		s.DepositCases += row.DepositCases
		s.DepositAmount += row.DepositAmount
		s.WithdrawCases += row.WithdrawCases
		s.WithdrawAmount += row.WithdrawAmount
		s.AddTransaction += row.AddTransaction
		s.DeductTransaction += row.DeductTransaction
	}
	s.ActiveMember, s.PureUser = DistinctMembers(members)
	s.finalize()
	return s
}
