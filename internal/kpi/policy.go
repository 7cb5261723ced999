package kpi

import "time"

// Policy groups the business constants applied during KPI aggregation.
// Values are operational policy, not derived from data, so they live in
// configuration rather than in the calculator itself.
type Policy struct {
	// OverdueThresholdSec marks a transaction overdue once its processing
	// time exceeds this many seconds.
	OverdueThresholdSec float64
	// FastThresholdSec marks a transaction fast when processed within this
	// many seconds.
	FastThresholdSec float64
	// AutomationGroups lists operator groups counted as automated handling.
	AutomationGroups []string
	// ManualGroups lists operator groups counted as manual handling.
	ManualGroups []string
	// AutomationStart is the rollout date of automated processing. Rows
	// before it are dropped from automation series to avoid pre launch
	// noise. A zero value disables the floor.
	AutomationStart time.Time
}

// DefaultPolicy returns the thresholds used in production dashboards.
func DefaultPolicy() Policy {
	return Policy{
		OverdueThresholdSec: 30,
		FastThresholdSec:    10,
		AutomationGroups:    []string{"Automation", "BOT"},
		ManualGroups:        []string{"Staff", "User", "Manual"},
	}
}

func (p Policy) isAutomation(group string) bool {
	for _, g := range p.AutomationGroups {
		if g == group {
			return true
		}
	}
	return false
}

func (p Policy) isManual(group string) bool {
	for _, g := range p.ManualGroups {
		if g == group {
			return true
		}
	}
	return false
}
