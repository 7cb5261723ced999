package kpi

import "math"

// Delta is the period-over-period movement of one metric.
type Delta struct {
	PeriodA          float64 `json:"periodA"`
	PeriodB          float64 `json:"periodB"`
	Difference       float64 `json:"difference"`
	PercentageChange float64 `json:"percentageChange"`
}

// Compare computes the movement from period A to period B.
//
// A zero base cannot yield a true ratio, so the change is pinned to
// +100 or -100 by the sign of B. A negative base divides by its
// absolute value, which keeps both sign and magnitude meaningful:
// moving from a loss of -100 to a profit of +50 reports +150, an
// improvement worth 150% of the original loss.
func Compare(a, b float64) Delta {
	d := Delta{PeriodA: a, PeriodB: b, Difference: b - a}
	switch {
	case a == 0 && b == 0:
		d.PercentageChange = 0
	case a == 0 && b > 0:
		d.PercentageChange = 100
	case a == 0 && b < 0:
		d.PercentageChange = -100
	default:
		d.PercentageChange = (b - a) / math.Abs(a) * 100
	}
	return d
}

// SnapshotComparison holds one Delta per KPI field for a brand or for
// the overall total. Churn and retention are only populated on totals;
// per-brand snapshots never carry a retention baseline, so their
// deltas stay zero.
type SnapshotComparison struct {
	DepositAmount        Delta `json:"depositAmount"`
	DepositCases         Delta `json:"depositCases"`
	WithdrawAmount       Delta `json:"withdrawAmount"`
	WithdrawCases        Delta `json:"withdrawCases"`
	GrossGamingRevenue   Delta `json:"grossGamingRevenue"`
	NetProfit            Delta `json:"netProfit"`
	ActiveMember         Delta `json:"activeMember"`
	PureUser             Delta `json:"pureUser"`
	AvgTransactionValue  Delta `json:"avgTransactionValue"`
	PurchaseFrequency    Delta `json:"purchaseFrequency"`
	GGRPerUser           Delta `json:"ggrPerUser"`
	DepositAmountPerUser Delta `json:"depositAmountPerUser"`
	Winrate              Delta `json:"winrate"`
	AutomationRate       Delta `json:"automationRate"`
	OverdueRate          Delta `json:"overdueRate"`
	ChurnRate            Delta `json:"churnRate"`
	RetentionRate        Delta `json:"retentionRate"`
}

// CompareSnapshots applies Compare independently per KPI field. The
// "all brands" comparison is this same function on the total snapshots,
// never a reduction over per-brand comparisons.
func CompareSnapshots(a, b Snapshot) SnapshotComparison {
	return SnapshotComparison{
		DepositAmount:        Compare(a.DepositAmount, b.DepositAmount),
		DepositCases:         Compare(float64(a.DepositCases), float64(b.DepositCases)),
		WithdrawAmount:       Compare(a.WithdrawAmount, b.WithdrawAmount),
		WithdrawCases:        Compare(float64(a.WithdrawCases), float64(b.WithdrawCases)),
		GrossGamingRevenue:   Compare(a.GrossGamingRevenue, b.GrossGamingRevenue),
		NetProfit:            Compare(a.NetProfit, b.NetProfit),
		ActiveMember:         Compare(float64(a.ActiveMember), float64(b.ActiveMember)),
		PureUser:             Compare(float64(a.PureUser), float64(b.PureUser)),
		AvgTransactionValue:  Compare(a.AvgTransactionValue, b.AvgTransactionValue),
		PurchaseFrequency:    Compare(a.PurchaseFrequency, b.PurchaseFrequency),
		GGRPerUser:           Compare(a.GGRPerUser, b.GGRPerUser),
		DepositAmountPerUser: Compare(a.DepositAmountPerUser, b.DepositAmountPerUser),
		Winrate:              Compare(a.Winrate, b.Winrate),
		AutomationRate:       Compare(a.AutomationRate, b.AutomationRate),
		OverdueRate:          Compare(a.OverdueRate, b.OverdueRate),
		ChurnRate:            Compare(a.ChurnRate, b.ChurnRate),
		RetentionRate:        Compare(a.RetentionRate, b.RetentionRate),
	}
}

// Rounded returns a copy with every delta rounded for serialization.
func (c SnapshotComparison) Rounded() SnapshotComparison {
	round := func(d Delta) Delta {
		d.PeriodA = Round2(d.PeriodA)
		d.PeriodB = Round2(d.PeriodB)
		d.Difference = Round2(d.Difference)
		d.PercentageChange = Round2(d.PercentageChange)
		return d
	}
	c.DepositAmount = round(c.DepositAmount)
	c.DepositCases = round(c.DepositCases)
	c.WithdrawAmount = round(c.WithdrawAmount)
	c.WithdrawCases = round(c.WithdrawCases)
	c.GrossGamingRevenue = round(c.GrossGamingRevenue)
	c.NetProfit = round(c.NetProfit)
	c.ActiveMember = round(c.ActiveMember)
	c.PureUser = round(c.PureUser)
	c.AvgTransactionValue = round(c.AvgTransactionValue)
	c.PurchaseFrequency = round(c.PurchaseFrequency)
	c.GGRPerUser = round(c.GGRPerUser)
	c.DepositAmountPerUser = round(c.DepositAmountPerUser)
	c.Winrate = round(c.Winrate)
	c.AutomationRate = round(c.AutomationRate)
	c.OverdueRate = round(c.OverdueRate)
	c.ChurnRate = round(c.ChurnRate)
	c.RetentionRate = round(c.RetentionRate)
	return c
}
