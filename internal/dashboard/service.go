package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// Reader exposes the repository queries the service relies on.
type Reader interface {
	Deposits(ctx context.Context, f QueryFilter) ([]kpi.TransactionRow, error)
	Withdraws(ctx context.Context, f QueryFilter) ([]kpi.TransactionRow, error)
	Summaries(ctx context.Context, f QueryFilter) ([]kpi.SummaryRow, error)
	Members(ctx context.Context, f QueryFilter) ([]kpi.MemberRow, error)
	Lines(ctx context.Context, currency string) ([]string, error)
}

// Service coordinates fetching, KPI computation, and caching.
type Service struct {
	repo   Reader
	cache  *Cache
	policy kpi.Policy
}

// NewService wires a Reader with the cache helper and KPI policy.
func NewService(repo Reader, cache *Cache, policy kpi.Policy) *Service {
	return &Service{repo: repo, cache: cache, policy: policy}
}

// Policy returns the KPI policy the service applies.
func (s *Service) Policy() kpi.Policy { return s.policy }

// BrandSnapshot pairs a line with its computed metrics.
type BrandSnapshot struct {
	Line string       `json:"line"`
	KPI  kpi.Snapshot `json:"kpi"`
}

// Overview is the full dashboard payload for one period.
type Overview struct {
	Total  kpi.Snapshot      `json:"total"`
	Brands []BrandSnapshot   `json:"brands"`
	Series []kpi.SeriesPoint `json:"series"`
	// AutomationSeries is always bucketed weekly and floored at the
	// automation rollout date, independent of the requested interval.
	AutomationSeries []kpi.SeriesPoint `json:"automationSeries"`
}

// Overview computes the dashboard payload for the filter, scoped to the
// caller's brand allow-list. Fetches are independent reads and run
// concurrently.
func (s *Service) Overview(ctx context.Context, f QueryFilter, caller shared.CallerContext, bucket kpi.Bucket) (Overview, error) {
	if err := f.Validate(); err != nil {
		return Overview{}, err
	}
	if f.restricted() && !caller.CanAccess(f.Line) {
		return Overview{}, fmt.Errorf("%w: line %q not accessible", shared.ErrValidation, f.Line)
	}

	loader := func(ctx context.Context) (any, error) {
		return s.loadOverview(ctx, f, caller, bucket)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Overview{}, err
		}
		return value.(Overview), nil
	}

	key, err := s.cache.Key(ctx, "dashboard", "overview", filterKey(f), scopeKey(caller), string(bucket))
	if err != nil {
		return Overview{}, err
	}
	var overview Overview
	if err := s.cache.FetchJSON(ctx, key, &overview, loader); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

func (s *Service) loadOverview(ctx context.Context, f QueryFilter, caller shared.CallerContext, bucket kpi.Bucket) (Overview, error) {
	var (
		deposits    []kpi.TransactionRow
		withdraws   []kpi.TransactionRow
		summaries   []kpi.SummaryRow
		members     []kpi.MemberRow
		prevMembers []kpi.MemberRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		deposits, err = s.repo.Deposits(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		withdraws, err = s.repo.Withdraws(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		summaries, err = s.repo.Summaries(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		members, err = s.repo.Members(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		prevMembers, err = s.repo.Members(gctx, previousPeriod(f))
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	deposits = scopeTransactions(deposits, caller)
	withdraws = scopeTransactions(withdraws, caller)
	summaries = scopeSummaries(summaries, caller)
	members = scopeMembers(members, caller)
	prevMembers = scopeMembers(prevMembers, caller)

	total := kpi.CalculateSummary(summaries, members)
	prevActive, _ := kpi.DistinctMembers(prevMembers)
	total.ApplyRetention(prevActive, kpi.RetainedMembers(prevMembers, members))

	automationDeposits := kpi.SinceCutoff(deposits, s.policy.AutomationStart)
	automationWithdraws := kpi.SinceCutoff(withdraws, s.policy.AutomationStart)

	return Overview{
		Total:  total,
		Brands: s.brandBreakdown(summaries, members),
		Series: kpi.BuildTimeSeries(deposits, withdraws, bucket, s.policy),
		// The automation chart stays weekly regardless of the interval
		// toggle; see the series endpoint contract.
		AutomationSeries: kpi.BuildTimeSeries(automationDeposits, automationWithdraws, kpi.BucketWeekly, s.policy),
	}, nil
}

func (s *Service) brandBreakdown(summaries []kpi.SummaryRow, members []kpi.MemberRow) []BrandSnapshot {
	summaryByLine := make(map[string][]kpi.SummaryRow)
	for _, row := range summaries {
		summaryByLine[row.Line] = append(summaryByLine[row.Line], row)
	}
	membersByLine := make(map[string][]kpi.MemberRow)
	for _, row := range members {
		membersByLine[row.Line] = append(membersByLine[row.Line], row)
	}

	lines := make([]string, 0, len(summaryByLine))
	for line := range summaryByLine {
		lines = append(lines, line)
	}
	sort.Strings(lines)

	brands := make([]BrandSnapshot, 0, len(lines))
	for _, line := range lines {
		brands = append(brands, BrandSnapshot{
			Line: line,
			KPI:  kpi.CalculateSummary(summaryByLine[line], membersByLine[line]),
		})
	}
	return brands
}

// BrandComparison pairs a line with its period-over-period deltas.
type BrandComparison struct {
	Line   string                 `json:"line"`
	Deltas kpi.SnapshotComparison `json:"deltas"`
}

// Comparison is the two-period payload: per-brand deltas plus the
// overall movement computed on the totals.
type Comparison struct {
	Total  kpi.SnapshotComparison `json:"total"`
	Brands []BrandComparison      `json:"brands"`
}

// Compare loads both periods concurrently and applies the comparator
// per brand and on the totals.
func (s *Service) Compare(ctx context.Context, currency, line string, caller shared.CallerContext, periodA, periodB DateRange) (Comparison, error) {
	filterA := QueryFilter{Currency: currency, Line: line, Range: &periodA}
	filterB := QueryFilter{Currency: currency, Line: line, Range: &periodB}
	if err := filterA.Validate(); err != nil {
		return Comparison{}, err
	}
	if err := filterB.Validate(); err != nil {
		return Comparison{}, err
	}
	if filterA.restricted() && !caller.CanAccess(line) {
		return Comparison{}, fmt.Errorf("%w: line %q not accessible", shared.ErrValidation, line)
	}

	type periodData struct {
		summaries   []kpi.SummaryRow
		members     []kpi.MemberRow
		prevMembers []kpi.MemberRow
	}
	load := func(ctx context.Context, f QueryFilter) (periodData, error) {
		var data periodData
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			data.summaries, err = s.repo.Summaries(gctx, f)
			return err
		})
		g.Go(func() (err error) {
			data.members, err = s.repo.Members(gctx, f)
			return err
		})
		g.Go(func() (err error) {
			data.prevMembers, err = s.repo.Members(gctx, previousPeriod(f))
			return err
		})
		if err := g.Wait(); err != nil {
			return periodData{}, err
		}
		data.summaries = scopeSummaries(data.summaries, caller)
		data.members = scopeMembers(data.members, caller)
		data.prevMembers = scopeMembers(data.prevMembers, caller)
		return data, nil
	}

	var dataA, dataB periodData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dataA, err = load(gctx, filterA)
		return err
	})
	g.Go(func() (err error) {
		dataB, err = load(gctx, filterB)
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}

	totalA := kpi.CalculateSummary(dataA.summaries, dataA.members)
	prevActiveA, _ := kpi.DistinctMembers(dataA.prevMembers)
	totalA.ApplyRetention(prevActiveA, kpi.RetainedMembers(dataA.prevMembers, dataA.members))

	totalB := kpi.CalculateSummary(dataB.summaries, dataB.members)
	prevActiveB, _ := kpi.DistinctMembers(dataB.prevMembers)
	totalB.ApplyRetention(prevActiveB, kpi.RetainedMembers(dataB.prevMembers, dataB.members))

	brandsA := s.brandBreakdown(dataA.summaries, dataA.members)
	brandsB := s.brandBreakdown(dataB.summaries, dataB.members)

	byLineA := make(map[string]kpi.Snapshot, len(brandsA))
	for _, b := range brandsA {
		byLineA[b.Line] = b.KPI
	}
	lines := make([]string, 0, len(brandsA)+len(brandsB))
	seen := make(map[string]struct{})
	for _, b := range brandsA {
		lines = append(lines, b.Line)
		seen[b.Line] = struct{}{}
	}
	for _, b := range brandsB {
		if _, ok := seen[b.Line]; !ok {
			lines = append(lines, b.Line)
		}
	}
	sort.Strings(lines)

	byLineB := make(map[string]kpi.Snapshot, len(brandsB))
	for _, b := range brandsB {
		byLineB[b.Line] = b.KPI
	}

	comparisons := make([]BrandComparison, 0, len(lines))
	for _, l := range lines {
		comparisons = append(comparisons, BrandComparison{
			Line:   l,
			Deltas: kpi.CompareSnapshots(byLineA[l], byLineB[l]),
		})
	}

	return Comparison{
		Total:  kpi.CompareSnapshots(totalA, totalB),
		Brands: comparisons,
	}, nil
}

// previousPeriod derives the baseline period used for retention: the
// preceding month in year/month mode, the preceding year in year-only
// mode, or a span of equal length ending the day before the range
// starts.
func previousPeriod(f QueryFilter) QueryFilter {
	prev := f
	if f.Range != nil {
		days := int(f.Range.End.Sub(f.Range.Start).Hours()/24) + 1
		end := f.Range.Start.AddDate(0, 0, -1)
		prev.Range = &DateRange{Start: end.AddDate(0, 0, -(days - 1)), End: end}
		return prev
	}
	if kpi.MonthIndex(f.Month) == 0 {
		prev.Year = f.Year - 1
		return prev
	}
	prev.Year, prev.Month = kpi.PreviousMonth(f.Year, f.Month)
	return prev
}

func scopeTransactions(rows []kpi.TransactionRow, caller shared.CallerContext) []kpi.TransactionRow {
	if caller.Unrestricted() {
		return rows
	}
	scoped := rows[:0]
	for _, row := range rows {
		if caller.CanAccess(row.Line) {
			scoped = append(scoped, row)
		}
	}
	return scoped
}

func scopeSummaries(rows []kpi.SummaryRow, caller shared.CallerContext) []kpi.SummaryRow {
	if caller.Unrestricted() {
		return rows
	}
	scoped := rows[:0]
	for _, row := range rows {
		if caller.CanAccess(row.Line) {
			scoped = append(scoped, row)
		}
	}
	return scoped
}

func scopeMembers(rows []kpi.MemberRow, caller shared.CallerContext) []kpi.MemberRow {
	if caller.Unrestricted() {
		return rows
	}
	scoped := rows[:0]
	for _, row := range rows {
		if caller.CanAccess(row.Line) {
			scoped = append(scoped, row)
		}
	}
	return scoped
}

func filterKey(f QueryFilter) string {
	parts := []string{f.Currency, f.Line}
	if f.Range != nil {
		parts = append(parts, f.Range.Start.Format("2006-01-02"), f.Range.End.Format("2006-01-02"))
	} else {
		parts = append(parts, fmt.Sprintf("%d", f.Year), f.Month)
	}
	return strings.Join(parts, ":")
}

// scopeKey folds the caller's allow-list into the cache key so scoped
// and unrestricted callers never share entries.
func scopeKey(caller shared.CallerContext) string {
	if caller.Unrestricted() {
		return "-"
	}
	allowed := append([]string(nil), caller.AllowedBrands...)
	sort.Strings(allowed)
	return strings.Join(allowed, ",")
}
