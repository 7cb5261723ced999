package dashboardhttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/platform/httpx"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/slicer"
)

type stubService struct {
	overview   dashboard.Overview
	comparison dashboard.Comparison
	err        error

	lastFilter dashboard.QueryFilter
	lastBucket kpi.Bucket
	lastCaller shared.CallerContext
}

func (s *stubService) Overview(ctx context.Context, f dashboard.QueryFilter, caller shared.CallerContext, bucket kpi.Bucket) (dashboard.Overview, error) {
	s.lastFilter = f
	s.lastBucket = bucket
	s.lastCaller = caller
	return s.overview, s.err
}

func (s *stubService) Compare(ctx context.Context, currency, line string, caller shared.CallerContext, periodA, periodB dashboard.DateRange) (dashboard.Comparison, error) {
	s.lastCaller = caller
	return s.comparison, s.err
}

type stubSlicer struct {
	options slicer.Options
	err     error
}

func (s *stubSlicer) Resolve(ctx context.Context, currency string, caller shared.CallerContext) (slicer.Options, error) {
	return s.options, s.err
}

func newTestRouter(service *stubService, slicers *stubSlicer) chi.Router {
	h := NewHandler(slog.New(slog.NewTextHandler(&strings.Builder{}, nil)), service, slicers)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func doRequest(t *testing.T, r chi.Router, target string, caller *shared.CallerContext) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if caller != nil {
		req = req.WithContext(shared.ContextWithCaller(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHandleDashboard(t *testing.T) {
	service := &stubService{
		overview: dashboard.Overview{
			Total: kpi.Snapshot{DepositAmount: 1234.5678, DepositCases: 10},
			Brands: []dashboard.BrandSnapshot{
				{Line: "BW1", KPI: kpi.Snapshot{DepositAmount: 1234.5678}},
			},
		},
	}
	r := newTestRouter(service, &stubSlicer{})

	rec := doRequest(t, r, "/api/dashboard?currency=MYR&line=ALL&year=2025&month=March&interval=weekly", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope: %s", rec.Body.String())
	}
	if service.lastFilter.Currency != "MYR" || service.lastFilter.Year != 2025 || service.lastFilter.Month != "March" {
		t.Fatalf("filter not parsed: %+v", service.lastFilter)
	}
	if service.lastBucket != kpi.BucketWeekly {
		t.Fatalf("bucket = %q", service.lastBucket)
	}

	// Metrics are rounded at the boundary.
	if !strings.Contains(rec.Body.String(), "1234.57") {
		t.Fatalf("expected rounded amount in body: %s", rec.Body.String())
	}
}

func TestHandleDashboardLowercaseCurrency(t *testing.T) {
	service := &stubService{}
	r := newTestRouter(service, &stubSlicer{})
	rec := doRequest(t, r, "/api/dashboard?currency=myr", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if service.lastFilter.Currency != "MYR" {
		t.Fatalf("currency not normalised: %q", service.lastFilter.Currency)
	}
}

func TestHandleDashboardRejectsBadQuery(t *testing.T) {
	r := newTestRouter(&stubService{}, &stubSlicer{})

	cases := []struct {
		name   string
		target string
	}{
		{"unknown currency", "/api/dashboard?currency=EUR"},
		{"malformed year", "/api/dashboard?currency=MYR&year=twenty"},
		{"unknown interval", "/api/dashboard?currency=MYR&interval=fortnightly"},
		{"range plus month", "/api/dashboard?currency=MYR&month=March&startDate=2025-01-01&endDate=2025-01-31"},
		{"inverted range", "/api/dashboard?currency=MYR&startDate=2025-02-01&endDate=2025-01-01"},
	}
	for _, tc := range cases {
		rec := doRequest(t, r, tc.target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d body %s", tc.name, rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		if env.Success || env.Error == "" {
			t.Fatalf("%s: expected failure envelope: %s", tc.name, rec.Body.String())
		}
	}
}

func TestHandleDashboardPassesCaller(t *testing.T) {
	service := &stubService{}
	r := newTestRouter(service, &stubSlicer{})
	caller := shared.CallerContext{Role: "Staff", AllowedBrands: []string{"BW1"}}
	rec := doRequest(t, r, "/api/dashboard?currency=MYR", &caller)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if service.lastCaller.Role != "Staff" || len(service.lastCaller.AllowedBrands) != 1 {
		t.Fatalf("caller not propagated: %+v", service.lastCaller)
	}
}

func TestHandleComparisonRequiresDates(t *testing.T) {
	r := newTestRouter(&stubService{}, &stubSlicer{})

	rec := doRequest(t, r, "/api/comparison?currency=MYR&startDateA=2025-01-01&endDateA=2025-01-31", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !strings.Contains(env.Error, "both period date pairs") {
		t.Fatalf("unexpected error message: %q", env.Error)
	}
}

func TestHandleComparison(t *testing.T) {
	service := &stubService{
		comparison: dashboard.Comparison{
			Total: kpi.CompareSnapshots(
				kpi.Snapshot{DepositAmount: 100},
				kpi.Snapshot{DepositAmount: 150},
			),
		},
	}
	r := newTestRouter(service, &stubSlicer{})

	target := "/api/comparison?currency=MYR&startDateA=2025-01-01&endDateA=2025-01-31&startDateB=2025-02-01&endDateB=2025-02-28"
	rec := doRequest(t, r, target, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"percentageChange":50`) {
		t.Fatalf("expected 50%% change in body: %s", rec.Body.String())
	}
}

func TestHandleSlicer(t *testing.T) {
	slicers := &stubSlicer{
		options: slicer.Options{
			Years:    []int{2025, 2024},
			Months:   []string{"January", "February"},
			Lines:    []string{"BW1"},
			Defaults: slicer.Defaults{Year: 2025, Month: "February", Line: "BW1"},
		},
	}
	r := newTestRouter(&stubService{}, slicers)

	rec := doRequest(t, r, "/api/slicer?currency=SGD", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"line":"BW1"`) {
		t.Fatalf("defaults missing: %s", rec.Body.String())
	}

	rec = doRequest(t, r, "/api/slicer?currency=EUR", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid currency status %d", rec.Code)
	}
}

func TestHandleDashboardCSV(t *testing.T) {
	service := &stubService{
		overview: dashboard.Overview{
			Total: kpi.Snapshot{DepositAmount: 600, DepositCases: 6},
			Brands: []dashboard.BrandSnapshot{
				{Line: "BW1", KPI: kpi.Snapshot{DepositAmount: 600, DepositCases: 6}},
			},
			Series: []kpi.SeriesPoint{
				{Period: "2025-03-01", Snapshot: kpi.Snapshot{DepositAmount: 600}},
			},
		},
	}
	r := newTestRouter(service, &stubSlicer{})

	rec := doRequest(t, r, "/api/dashboard/export.csv?currency=MYR&year=2025&month=March", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "dashboard-2025-March.csv") {
		t.Fatalf("content disposition %q", cd)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BW1") || !strings.Contains(body, "TOTAL") {
		t.Fatalf("csv missing rows: %s", body)
	}
	if !strings.Contains(body, "2025-03-01") {
		t.Fatalf("csv missing series section: %s", body)
	}
}

func TestExportRateLimit(t *testing.T) {
	service := &stubService{}
	r := newTestRouter(service, &stubSlicer{})

	var limited bool
	for i := 0; i < 12; i++ {
		rec := doRequest(t, r, "/api/dashboard/export.csv?currency=MYR", nil)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected the export endpoint to throttle")
	}
}
