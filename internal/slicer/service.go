// Package slicer resolves the filter options offered to the UI: the
// years, months, and lines that actually contain data for a currency,
// plus sensible defaults.
package slicer

import (
	"context"
	"fmt"
	"sort"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/kpi"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// Period is one year/month combination with data.
type Period struct {
	Year  int
	Month string
}

// Repository exposes the distinct-value queries the resolver needs.
type Repository interface {
	Periods(ctx context.Context, currency string) ([]Period, error)
	Lines(ctx context.Context, currency string) ([]string, error)
}

// Defaults picks the initial slicer state for a fresh page load.
type Defaults struct {
	Year  int    `json:"year"`
	Month string `json:"month"`
	Line  string `json:"line"`
}

// Options is the resolved slicer payload.
type Options struct {
	Years    []int    `json:"years"`
	Months   []string `json:"months"`
	Lines    []string `json:"lines"`
	Defaults Defaults `json:"defaults"`
}

// Service resolves slicer options. Read-only, no side effects.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve derives the option sets for a currency, restricted to the
// caller's brand allow-list. The default period is the most recent one
// containing at least one row; the default line is "ALL" when the
// caller can see more than one brand, otherwise the single brand.
func (s *Service) Resolve(ctx context.Context, currency string, caller shared.CallerContext) (Options, error) {
	periods, err := s.repo.Periods(ctx, currency)
	if err != nil {
		return Options{}, err
	}
	allLines, err := s.repo.Lines(ctx, currency)
	if err != nil {
		return Options{}, err
	}
	lines := shared.FilterBrands(allLines, caller.AllowedBrands)

	yearSet := make(map[int]struct{})
	monthSet := make(map[string]struct{})
	var latest Period
	for _, p := range periods {
		yearSet[p.Year] = struct{}{}
		monthSet[p.Month] = struct{}{}
		if later(p, latest) {
			latest = p
		}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		return kpi.MonthIndex(months[i]) < kpi.MonthIndex(months[j])
	})

	defaults := Defaults{Year: latest.Year, Month: latest.Month, Line: defaultLine(lines)}
	return Options{Years: years, Months: months, Lines: lines, Defaults: defaults}, nil
}

func later(a, b Period) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return kpi.MonthIndex(a.Month) > kpi.MonthIndex(b.Month)
}

func defaultLine(lines []string) string {
	if len(lines) == 1 {
		return lines[0]
	}
	return "ALL"
}

// Validate rejects unsupported currency codes before querying.
func Validate(currency string) error {
	switch currency {
	case "MYR", "SGD", "USC":
		return nil
	}
	return fmt.Errorf("%w: unknown currency %q", shared.ErrValidation, currency)
}
