// Package dashboardhttp exposes the dashboard, comparison, and slicer
// endpoints consumed by the UI.
package dashboardhttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/dashboard/export"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/platform/httpx"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/slicer"
)

const requestTimeout = 10 * time.Second

// DashboardService defines the data contract used by the handler.
type DashboardService interface {
	Overview(ctx context.Context, f dashboard.QueryFilter, caller shared.CallerContext, bucket kpi.Bucket) (dashboard.Overview, error)
	Compare(ctx context.Context, currency, line string, caller shared.CallerContext, periodA, periodB dashboard.DateRange) (dashboard.Comparison, error)
}

// SlicerService resolves the filter options payload.
type SlicerService interface {
	Resolve(ctx context.Context, currency string, caller shared.CallerContext) (slicer.Options, error)
}

// Handler coordinates HTTP requests for the KPI dashboard.
type Handler struct {
	logger    *slog.Logger
	service   DashboardService
	slicers   SlicerService
	validator *validator.Validate
	csvPool   sync.Pool
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, slicers SlicerService) *Handler {
	h := &Handler{
		logger:    logger,
		service:   service,
		slicers:   slicers,
		validator: validator.New(),
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleSlicer(w http.ResponseWriter, r *http.Request) {
	currency := currencyParam(r)
	if err := slicer.Validate(currency); err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	options, err := h.slicers.Resolve(ctx, currency, shared.CallerFromContext(r.Context()))
	if err != nil {
		h.logError(r, "resolve slicer", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, options)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, bucket, err := parseDashboardQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	overview, err := h.service.Overview(ctx, filter, shared.CallerFromContext(r.Context()), bucket)
	if err != nil {
		h.logError(r, "load overview", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, roundOverview(overview))
}

type comparisonQuery struct {
	Currency string `validate:"required,oneof=MYR SGD USC"`
	Line     string
	StartA   string `validate:"required,datetime=2006-01-02"`
	EndA     string `validate:"required,datetime=2006-01-02"`
	StartB   string `validate:"required,datetime=2006-01-02"`
	EndB     string `validate:"required,datetime=2006-01-02"`
}

func (h *Handler) handleComparison(w http.ResponseWriter, r *http.Request) {
	comparison, _, err := h.loadComparison(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, roundComparison(comparison))
}

func (h *Handler) loadComparison(r *http.Request) (dashboard.Comparison, string, error) {
	q := r.URL.Query()
	query := comparisonQuery{
		Currency: currencyParam(r),
		Line:     strings.TrimSpace(q.Get("line")),
		StartA:   strings.TrimSpace(q.Get("startDateA")),
		EndA:     strings.TrimSpace(q.Get("endDateA")),
		StartB:   strings.TrimSpace(q.Get("startDateB")),
		EndB:     strings.TrimSpace(q.Get("endDateB")),
	}
	if err := h.validator.Struct(query); err != nil {
		return dashboard.Comparison{}, "", fmt.Errorf("%w: both period date pairs are required", shared.ErrValidation)
	}

	periodA, err := parseRange(query.StartA, query.EndA)
	if err != nil {
		return dashboard.Comparison{}, "", err
	}
	periodB, err := parseRange(query.StartB, query.EndB)
	if err != nil {
		return dashboard.Comparison{}, "", err
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	comparison, err := h.service.Compare(ctx, query.Currency, query.Line, shared.CallerFromContext(r.Context()), periodA, periodB)
	if err != nil {
		h.logError(r, "load comparison", err)
		return dashboard.Comparison{}, "", err
	}
	return comparison, query.Currency, nil
}

func (h *Handler) handleDashboardCSV(w http.ResponseWriter, r *http.Request) {
	filter, bucket, err := parseDashboardQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	overview, err := h.service.Overview(ctx, filter, shared.CallerFromContext(r.Context()), bucket)
	if err != nil {
		h.logError(r, "load overview", err)
		httpx.RespondError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteOverviewCSV(buf, filter.Currency, overview); err != nil {
		h.logError(r, "write overview csv", err)
		httpx.RespondError(w, err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteSeriesCSV(buf, filter.Currency, overview.Series); err != nil {
		h.logError(r, "write series csv", err)
		httpx.RespondError(w, err)
		return
	}

	h.streamCSV(w, buf, fmt.Sprintf("dashboard-%s.csv", filterLabel(filter)))
}

func (h *Handler) handleComparisonCSV(w http.ResponseWriter, r *http.Request) {
	comparison, currency, err := h.loadComparison(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteComparisonCSV(buf, currency, comparison); err != nil {
		h.logError(r, "write comparison csv", err)
		httpx.RespondError(w, err)
		return
	}
	h.streamCSV(w, buf, "comparison.csv")
}

func (h *Handler) streamCSV(w http.ResponseWriter, buf *bytes.Buffer, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("stream csv", slog.Any("error", err))
	}
}

func (h *Handler) logError(r *http.Request, action string, err error) {
	h.logger.Error(action, slog.String("path", r.URL.Path), slog.Any("error", err))
}

func currencyParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
}

func parseDashboardQuery(r *http.Request) (dashboard.QueryFilter, kpi.Bucket, error) {
	q := r.URL.Query()
	filter := dashboard.QueryFilter{
		Currency: currencyParam(r),
		Line:     strings.TrimSpace(q.Get("line")),
		Month:    strings.TrimSpace(q.Get("month")),
	}
	if yearStr := strings.TrimSpace(q.Get("year")); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return dashboard.QueryFilter{}, "", fmt.Errorf("%w: malformed year %q", shared.ErrValidation, yearStr)
		}
		filter.Year = year
	}
	start := strings.TrimSpace(q.Get("startDate"))
	end := strings.TrimSpace(q.Get("endDate"))
	if start != "" || end != "" {
		r, err := parseRange(start, end)
		if err != nil {
			return dashboard.QueryFilter{}, "", err
		}
		filter.Range = &r
	}

	bucket, err := kpi.ParseBucket(strings.TrimSpace(q.Get("interval")))
	if err != nil {
		return dashboard.QueryFilter{}, "", fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if err := filter.Validate(); err != nil {
		return dashboard.QueryFilter{}, "", err
	}
	return filter, bucket, nil
}

func parseRange(start, end string) (dashboard.DateRange, error) {
	startDate, err := time.ParseInLocation("2006-01-02", start, time.UTC)
	if err != nil {
		return dashboard.DateRange{}, fmt.Errorf("%w: malformed start date %q", shared.ErrValidation, start)
	}
	endDate, err := time.ParseInLocation("2006-01-02", end, time.UTC)
	if err != nil {
		return dashboard.DateRange{}, fmt.Errorf("%w: malformed end date %q", shared.ErrValidation, end)
	}
	return dashboard.DateRange{Start: startDate, End: endDate}, nil
}

func filterLabel(f dashboard.QueryFilter) string {
	if f.Range != nil {
		return f.Range.Start.Format("2006-01-02") + "_" + f.Range.End.Format("2006-01-02")
	}
	return fmt.Sprintf("%d-%s", f.Year, f.Month)
}

// roundOverview applies boundary rounding to every serialised metric.
func roundOverview(o dashboard.Overview) dashboard.Overview {
	o.Total = o.Total.Rounded()
	for i := range o.Brands {
		o.Brands[i].KPI = o.Brands[i].KPI.Rounded()
	}
	for i := range o.Series {
		o.Series[i].Snapshot = o.Series[i].Snapshot.Rounded()
	}
	for i := range o.AutomationSeries {
		o.AutomationSeries[i].Snapshot = o.AutomationSeries[i].Snapshot.Rounded()
	}
	return o
}

func roundComparison(c dashboard.Comparison) dashboard.Comparison {
	c.Total = c.Total.Rounded()
	for i := range c.Brands {
		c.Brands[i].Deltas = c.Brands[i].Deltas.Rounded()
	}
	return c
}
