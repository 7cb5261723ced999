package slicer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

type mockRepo struct {
	periods []Period
	lines   []string
	err     error
}

func (m *mockRepo) Periods(ctx context.Context, currency string) ([]Period, error) {
	return m.periods, m.err
}

func (m *mockRepo) Lines(ctx context.Context, currency string) ([]string, error) {
	return m.lines, m.err
}

func TestResolveDefaultsToLatestPeriod(t *testing.T) {
	repo := &mockRepo{
		periods: []Period{
			{Year: 2024, Month: "December"},
			{Year: 2025, Month: "January"},
			{Year: 2025, Month: "March"},
			{Year: 2025, Month: "February"},
		},
		lines: []string{"BW1", "BW2"},
	}
	svc := NewService(repo)

	options, err := svc.Resolve(context.Background(), "MYR", shared.CallerContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(options.Years, []int{2025, 2024}) {
		t.Fatalf("years = %v", options.Years)
	}
	if !reflect.DeepEqual(options.Months, []string{"January", "February", "March", "December"}) {
		t.Fatalf("months = %v", options.Months)
	}
	if options.Defaults.Year != 2025 || options.Defaults.Month != "March" {
		t.Fatalf("default period = %d %s", options.Defaults.Year, options.Defaults.Month)
	}
	if options.Defaults.Line != "ALL" {
		t.Fatalf("default line = %q, want ALL", options.Defaults.Line)
	}
}

func TestResolveSingleBrandDefault(t *testing.T) {
	repo := &mockRepo{
		periods: []Period{{Year: 2025, Month: "January"}},
		lines:   []string{"BW1", "BW2", "BW3"},
	}
	svc := NewService(repo)

	caller := shared.CallerContext{AllowedBrands: []string{"BW2"}}
	options, err := svc.Resolve(context.Background(), "MYR", caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(options.Lines, []string{"BW2"}) {
		t.Fatalf("lines = %v", options.Lines)
	}
	if options.Defaults.Line != "BW2" {
		t.Fatalf("default line = %q, want BW2", options.Defaults.Line)
	}
}

func TestResolveEmptyDataset(t *testing.T) {
	svc := NewService(&mockRepo{})
	options, err := svc.Resolve(context.Background(), "USC", shared.CallerContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options.Years) != 0 || len(options.Months) != 0 {
		t.Fatalf("expected empty options, got %+v", options)
	}
	if options.Defaults.Year != 0 {
		t.Fatalf("expected zero default year, got %d", options.Defaults.Year)
	}
}

func TestResolvePropagatesErrors(t *testing.T) {
	wantErr := errors.New("query failed")
	svc := NewService(&mockRepo{err: wantErr})
	if _, err := svc.Resolve(context.Background(), "MYR", shared.CallerContext{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestValidateCurrency(t *testing.T) {
	for _, currency := range []string{"MYR", "SGD", "USC"} {
		if err := Validate(currency); err != nil {
			t.Fatalf("%s should validate: %v", currency, err)
		}
	}
	if err := Validate("EUR"); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
