package jobs

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/slicer"
)

type warmupReader struct {
	mu        sync.Mutex
	summaries []kpi.SummaryRow
	fetches   []dashboard.QueryFilter
}

func (r *warmupReader) Deposits(ctx context.Context, f dashboard.QueryFilter) ([]kpi.TransactionRow, error) {
	return nil, nil
}

func (r *warmupReader) Withdraws(ctx context.Context, f dashboard.QueryFilter) ([]kpi.TransactionRow, error) {
	return nil, nil
}

func (r *warmupReader) Summaries(ctx context.Context, f dashboard.QueryFilter) ([]kpi.SummaryRow, error) {
	r.mu.Lock()
	r.fetches = append(r.fetches, f)
	r.mu.Unlock()
	return r.summaries, nil
}

func (r *warmupReader) Members(ctx context.Context, f dashboard.QueryFilter) ([]kpi.MemberRow, error) {
	return nil, nil
}

func (r *warmupReader) Lines(ctx context.Context, currency string) ([]string, error) {
	return []string{"BW1"}, nil
}

type warmupSlicerRepo struct {
	periods []slicer.Period
}

func (r *warmupSlicerRepo) Periods(ctx context.Context, currency string) ([]slicer.Period, error) {
	return r.periods, nil
}

func (r *warmupSlicerRepo) Lines(ctx context.Context, currency string) ([]string, error) {
	return []string{"BW1"}, nil
}

func newWarmupJob(reader *warmupReader, periods []slicer.Period) *KPIWarmupJob {
	dash := dashboard.NewService(reader, nil, kpi.DefaultPolicy())
	slc := slicer.NewService(&warmupSlicerRepo{periods: periods})
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	return NewKPIWarmupJob(dash, slc, logger, nil)
}

func TestKPIWarmupHandleWarmsEachCurrency(t *testing.T) {
	reader := &warmupReader{
		summaries: []kpi.SummaryRow{{Line: "BW1", DepositCases: 1, DepositAmount: 100}},
	}
	job := newWarmupJob(reader, []slicer.Period{{Year: 2025, Month: "March"}})

	task, err := NewKPIWarmupTask(KPIWarmupPayload{Currencies: []string{dashboard.CurrencyMYR, dashboard.CurrencySGD}})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var warmed int
	for _, f := range reader.fetches {
		if f.Line == dashboard.LineAll && f.Year == 2025 && f.Month == "March" {
			warmed++
		}
	}
	if warmed != 2 {
		t.Fatalf("expected one overview fetch per currency, got %d (fetches %+v)", warmed, reader.fetches)
	}
}

func TestKPIWarmupSkipsEmptyDataset(t *testing.T) {
	reader := &warmupReader{}
	job := newWarmupJob(reader, nil)

	task, err := NewKPIWarmupTask(KPIWarmupPayload{Currencies: []string{dashboard.CurrencyUSC}})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(reader.fetches) != 0 {
		t.Fatalf("no default period means no warmup fetch, got %+v", reader.fetches)
	}
}

func TestKPIWarmupRejectsMalformedPayload(t *testing.T) {
	job := newWarmupJob(&warmupReader{}, nil)
	task := asynq.NewTask(TaskKPIWarmup, []byte("{"))
	if err := job.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
