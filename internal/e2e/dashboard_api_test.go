package e2e

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/app"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	dashboardhttp "github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard/http"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/observability"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/slicer"
)

type fixtureReader struct {
	summaries []kpi.SummaryRow
	members   []kpi.MemberRow
}

func (r *fixtureReader) Deposits(ctx context.Context, f dashboard.QueryFilter) ([]kpi.TransactionRow, error) {
	return nil, nil
}

func (r *fixtureReader) Withdraws(ctx context.Context, f dashboard.QueryFilter) ([]kpi.TransactionRow, error) {
	return nil, nil
}

func (r *fixtureReader) Summaries(ctx context.Context, f dashboard.QueryFilter) ([]kpi.SummaryRow, error) {
	return r.summaries, nil
}

func (r *fixtureReader) Members(ctx context.Context, f dashboard.QueryFilter) ([]kpi.MemberRow, error) {
	return r.members, nil
}

func (r *fixtureReader) Lines(ctx context.Context, currency string) ([]string, error) {
	return []string{"BW1", "BW2"}, nil
}

type fixtureSlicerRepo struct{}

func (fixtureSlicerRepo) Periods(ctx context.Context, currency string) ([]slicer.Period, error) {
	return []slicer.Period{{Year: 2025, Month: "March"}}, nil
}

func (fixtureSlicerRepo) Lines(ctx context.Context, currency string) ([]string, error) {
	return []string{"BW1", "BW2"}, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	reader := &fixtureReader{
		summaries: []kpi.SummaryRow{
			{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Line: "BW1", Currency: "MYR", DepositCases: 4, DepositAmount: 400, WithdrawAmount: 100},
			{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Line: "BW2", Currency: "MYR", DepositCases: 2, DepositAmount: 200, WithdrawAmount: 50},
		},
		members: []kpi.MemberRow{
			{Line: "BW1", UserKey: "u1", UniqueCode: "c1", DepositCases: 1},
			{Line: "BW2", UserKey: "u2", UniqueCode: "c2", DepositCases: 1},
		},
	}
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	service := dashboard.NewService(reader, nil, kpi.DefaultPolicy())
	slicerSvc := slicer.NewService(fixtureSlicerRepo{})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           &app.Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second},
		DashboardHandler: dashboardhttp.NewHandler(logger, service, slicerSvc),
		Metrics:          observability.NewMetrics(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func get(t *testing.T, srv *httptest.Server, path string, headers map[string]string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
	}
	return resp, env
}

func TestHealthz(t *testing.T) {
	srv := newServer(t)
	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestDashboardEndToEnd(t *testing.T) {
	srv := newServer(t)

	resp, env := get(t, srv, "/api/dashboard?currency=MYR&year=2025&month=March", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status %d error %q", resp.StatusCode, env.Error)
	}
	var payload struct {
		Total struct {
			DepositAmount      float64 `json:"depositAmount"`
			GrossGamingRevenue float64 `json:"grossGamingRevenue"`
		} `json:"total"`
		Brands []struct {
			Line string `json:"line"`
		} `json:"brands"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Total.DepositAmount != 600 || payload.Total.GrossGamingRevenue != 450 {
		t.Fatalf("totals wrong: %+v", payload.Total)
	}
	if len(payload.Brands) != 2 {
		t.Fatalf("brands = %+v", payload.Brands)
	}
}

func TestDashboardScopedByBrandHeader(t *testing.T) {
	srv := newServer(t)

	headers := map[string]string{
		app.HeaderRole:          "Staff",
		app.HeaderAllowedBrands: `["BW1"]`,
	}
	resp, env := get(t, srv, "/api/dashboard?currency=MYR&year=2025&month=March", headers)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status %d error %q", resp.StatusCode, env.Error)
	}
	var payload struct {
		Total struct {
			DepositAmount float64 `json:"depositAmount"`
		} `json:"total"`
		Brands []struct {
			Line string `json:"line"`
		} `json:"brands"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Total.DepositAmount != 400 {
		t.Fatalf("scoped total = %.2f, want 400", payload.Total.DepositAmount)
	}
	if len(payload.Brands) != 1 || payload.Brands[0].Line != "BW1" {
		t.Fatalf("scoped brands = %+v", payload.Brands)
	}
}

func TestSlicerRespectsScope(t *testing.T) {
	srv := newServer(t)

	headers := map[string]string{app.HeaderAllowedBrands: `["BW2"]`}
	resp, env := get(t, srv, "/api/slicer?currency=MYR", headers)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status %d error %q", resp.StatusCode, env.Error)
	}
	var options slicer.Options
	if err := json.Unmarshal(env.Data, &options); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(options.Lines) != 1 || options.Lines[0] != "BW2" {
		t.Fatalf("lines = %v", options.Lines)
	}
	if options.Defaults.Line != "BW2" {
		t.Fatalf("default line = %q", options.Defaults.Line)
	}
}

func TestValidationSurfacesAsBadRequest(t *testing.T) {
	srv := newServer(t)
	resp, env := get(t, srv, "/api/dashboard?currency=EUR", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if env.Success || env.Error == "" {
		t.Fatalf("expected failure envelope, got %+v", env)
	}
}

func TestMetricsExposition(t *testing.T) {
	srv := newServer(t)
	// Generate one request so the counter exists.
	get(t, srv, "/api/dashboard?currency=MYR&year=2025&month=March", nil)
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
