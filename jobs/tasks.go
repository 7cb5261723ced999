// Package jobs hosts the background task definitions and the Asynq
// worker that runs them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskKPIWarmup pre-populates the dashboard KPI caches.
	TaskKPIWarmup = "kpi:warmup"
)

// KPIWarmupPayload scopes a warmup run. An empty currency list warms
// every supported region.
type KPIWarmupPayload struct {
	Currencies []string `json:"currencies,omitempty"`
}

// NewKPIWarmupTask constructs an Asynq task for cache warmup.
func NewKPIWarmupTask(payload KPIWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskKPIWarmup, data), nil
}
