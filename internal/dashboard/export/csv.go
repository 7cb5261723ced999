// Package export renders KPI and comparison payloads as CSV with a
// fixed column order, for download from the dashboard.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/format"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
)

// snapshotHeader labels monetary columns with the currency symbol, e.g.
// "Deposit Amount (RM)" for MYR downloads.
func snapshotHeader(currency string) []string {
	symbol := format.Symbol(currency)
	return []string{
		"Line",
		"Deposit Amount (" + symbol + ")", "Deposit Cases",
		"Withdraw Amount (" + symbol + ")", "Withdraw Cases",
		"GGR (" + symbol + ")", "Net Profit (" + symbol + ")",
		"Active Member", "Pure User",
		"ATV (" + symbol + ")", "Purchase Frequency",
		"Winrate", "Automation Rate", "Overdue Rate",
		"Churn Rate", "Retention Rate",
	}
}

// WriteOverviewCSV serialises the per-brand table with the overall total
// as the last row.
func WriteOverviewCSV(w io.Writer, currency string, overview dashboard.Overview) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(snapshotHeader(currency)); err != nil {
		return err
	}
	for _, brand := range overview.Brands {
		if err := writer.Write(snapshotRecord(brand.Line, brand.KPI)); err != nil {
			return err
		}
	}
	if err := writer.Write(snapshotRecord("TOTAL", overview.Total)); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func snapshotRecord(line string, s kpi.Snapshot) []string {
	return []string{
		line,
		formatFloat(s.DepositAmount),
		strconv.Itoa(s.DepositCases),
		formatFloat(s.WithdrawAmount),
		strconv.Itoa(s.WithdrawCases),
		formatFloat(s.GrossGamingRevenue),
		formatFloat(s.NetProfit),
		strconv.Itoa(s.ActiveMember),
		strconv.Itoa(s.PureUser),
		formatFloat(s.AvgTransactionValue),
		formatFloat(s.PurchaseFrequency),
		formatFloat(s.Winrate),
		formatFloat(s.AutomationRate),
		formatFloat(s.OverdueRate),
		formatFloat(s.ChurnRate),
		formatFloat(s.RetentionRate),
	}
}

// WriteComparisonCSV serialises per-brand deltas, one metric per row.
func WriteComparisonCSV(w io.Writer, currency string, comparison dashboard.Comparison) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Line", "Metric", "Period A", "Period B", "Difference", "Change %"}); err != nil {
		return err
	}
	symbol := format.Symbol(currency)
	for _, brand := range comparison.Brands {
		if err := writeDeltas(writer, symbol, brand.Line, brand.Deltas); err != nil {
			return err
		}
	}
	if err := writeDeltas(writer, symbol, "TOTAL", comparison.Total); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// writeDeltas emits one row per metric; monetary metric labels carry
// the currency symbol.
func writeDeltas(writer *csv.Writer, symbol, line string, c kpi.SnapshotComparison) error {
	rows := []struct {
		metric string
		delta  kpi.Delta
	}{
		{"Deposit Amount (" + symbol + ")", c.DepositAmount},
		{"Deposit Cases", c.DepositCases},
		{"Withdraw Amount (" + symbol + ")", c.WithdrawAmount},
		{"Withdraw Cases", c.WithdrawCases},
		{"GGR (" + symbol + ")", c.GrossGamingRevenue},
		{"Net Profit (" + symbol + ")", c.NetProfit},
		{"Active Member", c.ActiveMember},
		{"Pure User", c.PureUser},
		{"ATV (" + symbol + ")", c.AvgTransactionValue},
		{"Purchase Frequency", c.PurchaseFrequency},
		{"GGR Per User (" + symbol + ")", c.GGRPerUser},
		{"Deposit Per User (" + symbol + ")", c.DepositAmountPerUser},
		{"Winrate", c.Winrate},
		{"Automation Rate", c.AutomationRate},
		{"Overdue Rate", c.OverdueRate},
		{"Churn Rate", c.ChurnRate},
		{"Retention Rate", c.RetentionRate},
	}
	for _, row := range rows {
		record := []string{
			line,
			row.metric,
			formatFloat(row.delta.PeriodA),
			formatFloat(row.delta.PeriodB),
			formatFloat(row.delta.Difference),
			formatFloat(row.delta.PercentageChange),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteSeriesCSV serialises a bucketed series.
func WriteSeriesCSV(w io.Writer, currency string, points []kpi.SeriesPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	symbol := format.Symbol(currency)
	header := []string{
		"Period",
		"Deposit Amount (" + symbol + ")", "Deposit Cases",
		"Withdraw Amount (" + symbol + ")", "GGR (" + symbol + ")",
		"Automation Rate", "Overdue Rate",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, point := range points {
		record := []string{
			point.Period,
			formatFloat(point.DepositAmount),
			strconv.Itoa(point.DepositCases),
			formatFloat(point.WithdrawAmount),
			formatFloat(point.GrossGamingRevenue),
			formatFloat(point.AutomationRate),
			formatFloat(point.OverdueRate),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(kpi.Round2(v), 'f', 2, 64)
}
