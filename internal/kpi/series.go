package kpi

import (
	"fmt"
	"sort"
	"time"
)

// Bucket selects the time-series granularity.
type Bucket string

const (
	BucketHourly  Bucket = "hourly"
	BucketDaily   Bucket = "daily"
	BucketWeekly  Bucket = "weekly"
	BucketMonthly Bucket = "monthly"
)

// ParseBucket validates a client-supplied interval name.
func ParseBucket(v string) (Bucket, error) {
	switch Bucket(v) {
	case BucketHourly, BucketDaily, BucketWeekly, BucketMonthly:
		return Bucket(v), nil
	case "":
		return BucketDaily, nil
	}
	return "", fmt.Errorf("unknown interval %q", v)
}

// SeriesPoint is one chart-ready bucket.
type SeriesPoint struct {
	Period string `json:"period"`
	Snapshot
}

// BuildTimeSeries groups the rows by bucket key and runs the calculator
// once per bucket. Buckets are fully recomputed rather than updated
// incrementally; bucket counts stay small enough that correctness wins.
// Output is sorted chronologically, which lexicographic order gives us
// because every key shape is zero padded.
func BuildTimeSeries(deposits, withdraws []TransactionRow, bucket Bucket, policy Policy) []SeriesPoint {
	depGroups := make(map[string][]TransactionRow)
	for _, row := range deposits {
		key := bucketKey(row, bucket)
		depGroups[key] = append(depGroups[key], row)
	}
	wdGroups := make(map[string][]TransactionRow)
	for _, row := range withdraws {
		key := bucketKey(row, bucket)
		wdGroups[key] = append(wdGroups[key], row)
	}

	keys := make([]string, 0, len(depGroups)+len(wdGroups))
	seen := make(map[string]struct{}, len(depGroups))
	for key := range depGroups {
		keys = append(keys, key)
		seen[key] = struct{}{}
	}
	for key := range wdGroups {
		if _, ok := seen[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	points := make([]SeriesPoint, 0, len(keys))
	for _, key := range keys {
		points = append(points, SeriesPoint{
			Period:   key,
			Snapshot: CalculateTransactions(depGroups[key], wdGroups[key], policy),
		})
	}
	return points
}

// BuildSummarySeries buckets pre-aggregated rows the same way. Member
// level distinct counts are unavailable per bucket, so member dependent
// ratios stay zero in the points.
func BuildSummarySeries(rows []SummaryRow, bucket Bucket) []SeriesPoint {
	groups := make(map[string][]SummaryRow)
	for _, row := range rows {
		key := dateBucketKey(row.Date, bucket)
		groups[key] = append(groups[key], row)
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	points := make([]SeriesPoint, 0, len(keys))
	for _, key := range keys {
		points = append(points, SeriesPoint{
			Period:   key,
			Snapshot: CalculateSummary(groups[key], nil),
		})
	}
	return points
}

func bucketKey(row TransactionRow, bucket Bucket) string {
	if bucket == BucketHourly {
		hour := "00"
		if len(row.Time) >= 2 {
			hour = row.Time[:2]
		}
		return row.Date.Format("2006-01-02") + "T" + hour
	}
	return dateBucketKey(row.Date, bucket)
}

func dateBucketKey(date time.Time, bucket Bucket) string {
	switch bucket {
	case BucketWeekly:
		isoYear, isoWeek := date.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", isoYear, isoWeek)
	case BucketMonthly:
		return date.Format("2006-01")
	default:
		return date.Format("2006-01-02")
	}
}
