package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	jobmetrics "github.com/bluewhale-ops/bluewhale-analytics/internal/jobs"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/slicer"
)

var allCurrencies = []string{dashboard.CurrencyMYR, dashboard.CurrencySGD, dashboard.CurrencyUSC}

// KPIWarmupJob pre-populates the dashboard caches for the latest period
// of each currency so the first page load after an ingest stays fast.
type KPIWarmupJob struct {
	Dashboard *dashboard.Service
	Slicer    *slicer.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewKPIWarmupJob wires dependencies for the warmup handler.
func NewKPIWarmupJob(dash *dashboard.Service, slicerSvc *slicer.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *KPIWarmupJob {
	return &KPIWarmupJob{
		Dashboard: dash,
		Slicer:    slicerSvc,
		Logger:    logger,
		Metrics:   metrics,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes KPI warmup tasks. Warming is an unrestricted read:
// cached entries are keyed by caller scope, and the admin scope is the
// one worth priming.
func (j *KPIWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil || j.Slicer == nil {
		return errors.New("kpi warmup: handler not configured")
	}
	var payload KPIWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	currencies := payload.Currencies
	if len(currencies) == 0 {
		currencies = allCurrencies
	}

	tracker := j.Metrics.Track(TaskKPIWarmup)
	var resultErr error
	defer func() { resultErr = tracker.End(resultErr) }()

	admin := shared.CallerContext{}
	for _, currency := range currencies {
		options, err := j.Slicer.Resolve(ctx, currency, admin)
		if err != nil {
			resultErr = err
			j.logger().Error("resolve warmup scope", slog.String("currency", currency), slog.Any("error", err))
			return resultErr
		}
		if options.Defaults.Year == 0 {
			continue
		}
		filter := dashboard.QueryFilter{
			Currency: currency,
			Line:     dashboard.LineAll,
			Year:     options.Defaults.Year,
			Month:    options.Defaults.Month,
		}
		if _, err := j.Dashboard.Overview(ctx, filter, admin, kpi.BucketDaily); err != nil {
			resultErr = err
			j.logger().Error("warm overview", slog.String("currency", currency), slog.Any("error", err))
			return resultErr
		}
		j.Metrics.AddWarmedScope(currency)
	}

	j.logger().Info("kpi warmup complete", slog.Int("currencies", len(currencies)))
	return resultErr
}

func (j *KPIWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
