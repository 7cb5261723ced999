// Package dashboard fetches raw aggregates and turns them into the KPI,
// comparison, and chart payloads served to the UI.
package dashboard

import (
	"fmt"
	"time"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// Currencies supported by the platform. Each one maps to its own
// summary table.
const (
	CurrencyMYR = "MYR"
	CurrencySGD = "SGD"
	CurrencyUSC = "USC"
)

// LineAll selects every brand the caller may access.
const LineAll = "ALL"

// DateRange is an inclusive start/end day span.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// QueryFilter is the explicit slicer state for one aggregation query.
// Filters are conjunctive. A date range and a year/month selection are
// two different addressing modes and must not be combined.
type QueryFilter struct {
	Currency string
	Line     string
	Year     int
	Month    string
	Range    *DateRange
}

// Validate checks the filter before any query is issued.
func (f QueryFilter) Validate() error {
	switch f.Currency {
	case CurrencyMYR, CurrencySGD, CurrencyUSC:
	default:
		return fmt.Errorf("%w: unknown currency %q", shared.ErrValidation, f.Currency)
	}
	if f.Range != nil {
		if f.Year != 0 || f.Month != "" {
			return fmt.Errorf("%w: date range and year/month filters are mutually exclusive", shared.ErrValidation)
		}
		if f.Range.End.Before(f.Range.Start) {
			return fmt.Errorf("%w: date range end before start", shared.ErrValidation)
		}
	}
	return nil
}

// restricted reports whether the filter pins a single line.
func (f QueryFilter) restricted() bool {
	return f.Line != "" && f.Line != LineAll
}

func summaryTable(currency string) string {
	switch currency {
	case CurrencySGD:
		return "blue_whale_sgd_summary"
	case CurrencyUSC:
		return "blue_whale_usc_summary"
	default:
		return "blue_whale_myr_summary"
	}
}
