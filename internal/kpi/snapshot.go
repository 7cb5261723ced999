package kpi

import "math"

// Snapshot carries the computed business metrics for one
// (currency, line, period) combination. It is derived on every request
// and never persisted.
type Snapshot struct {
	DepositAmount     float64 `json:"depositAmount"`
	DepositCases      int     `json:"depositCases"`
	WithdrawAmount    float64 `json:"withdrawAmount"`
	WithdrawCases     int     `json:"withdrawCases"`
	AddTransaction    float64 `json:"addTransaction"`
	DeductTransaction float64 `json:"deductTransaction"`

	GrossGamingRevenue float64 `json:"grossGamingRevenue"`
	NetProfit          float64 `json:"netProfit"`

	ActiveMember int `json:"activeMember"`
	PureUser     int `json:"pureUser"`

	AvgTransactionValue  float64 `json:"avgTransactionValue"`
	PurchaseFrequency    float64 `json:"purchaseFrequency"`
	GGRPerUser           float64 `json:"ggrPerUser"`
	DepositAmountPerUser float64 `json:"depositAmountPerUser"`
	Winrate              float64 `json:"winrate"`
	ChurnRate            float64 `json:"churnRate"`
	RetentionRate        float64 `json:"retentionRate"`

	AutomationTransactions int     `json:"automationTransactions"`
	ManualTransactions     int     `json:"manualTransactions"`
	OverdueTransactions    int     `json:"overdueTransactions"`
	FastTransactions       int     `json:"fastTransactions"`
	LatencySamples         int     `json:"latencySamples"`
	AvgProcSec             float64 `json:"avgProcSec"`
	AutomationRate         float64 `json:"automationRate"`
	OverdueRate            float64 `json:"overdueRate"`
}

// ratio divides with a guarded denominator. A zero denominator yields 0,
// never NaN or Inf.
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// finalize recomputes every derived metric from the raw totals already
// present on the snapshot.
func (s *Snapshot) finalize() {
	s.GrossGamingRevenue = s.DepositAmount - s.WithdrawAmount
	s.NetProfit = (s.DepositAmount + s.AddTransaction) - (s.WithdrawAmount + s.DeductTransaction)
	s.AvgTransactionValue = ratio(s.DepositAmount, float64(s.DepositCases))
	s.PurchaseFrequency = ratio(float64(s.DepositCases), float64(s.ActiveMember))
	s.GGRPerUser = ratio(s.GrossGamingRevenue, float64(s.ActiveMember))
	s.DepositAmountPerUser = ratio(s.DepositAmount, float64(s.ActiveMember))
	s.Winrate = ratio(s.GrossGamingRevenue, s.DepositAmount) * 100
	s.AutomationRate = ratio(float64(s.AutomationTransactions), float64(s.AutomationTransactions+s.ManualTransactions)) * 100
	s.OverdueRate = ratio(float64(s.OverdueTransactions), float64(s.LatencySamples)) * 100
}

// ApplyRetention fills churn and retention from the previous period's
// active member count and the number of members retained into this one.
func (s *Snapshot) ApplyRetention(previousActive, retained int) {
	s.RetentionRate = ratio(float64(retained), float64(previousActive)) * 100
	if previousActive == 0 {
		s.ChurnRate = 0
		return
	}
	s.ChurnRate = 100 - s.RetentionRate
}

// Round2 rounds to two decimal places. Applied once at the serialization
// boundary; intermediate computation keeps full float precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rounded returns a copy of the snapshot with every float metric rounded
// for serialization.
func (s Snapshot) Rounded() Snapshot {
	s.DepositAmount = Round2(s.DepositAmount)
	s.WithdrawAmount = Round2(s.WithdrawAmount)
	s.AddTransaction = Round2(s.AddTransaction)
	s.DeductTransaction = Round2(s.DeductTransaction)
	s.GrossGamingRevenue = Round2(s.GrossGamingRevenue)
	s.NetProfit = Round2(s.NetProfit)
	s.AvgTransactionValue = Round2(s.AvgTransactionValue)
	s.PurchaseFrequency = Round2(s.PurchaseFrequency)
	s.GGRPerUser = Round2(s.GGRPerUser)
	s.DepositAmountPerUser = Round2(s.DepositAmountPerUser)
	s.Winrate = Round2(s.Winrate)
	s.ChurnRate = Round2(s.ChurnRate)
	s.RetentionRate = Round2(s.RetentionRate)
	s.AvgProcSec = Round2(s.AvgProcSec)
	s.AutomationRate = Round2(s.AutomationRate)
	s.OverdueRate = Round2(s.OverdueRate)
	return s
}
