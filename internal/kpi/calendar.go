package kpi

import "time"

// monthNames in slicer order. Transaction tables store month names, not
// numbers, so ordering and arithmetic go through these helpers.
var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthIndex returns the 1-based calendar position of a month name, or
// 0 for an unknown name.
func MonthIndex(name string) int {
	for i, m := range monthNames {
		if m == name {
			return i + 1
		}
	}
	return 0
}

// MonthName returns the month name for a 1-based index.
func MonthName(index int) string {
	if index < 1 || index > 12 {
		return ""
	}
	return monthNames[index-1]
}

// PreviousMonth steps one month back from a year/month-name pair.
func PreviousMonth(year int, month string) (int, string) {
	idx := MonthIndex(month)
	if idx == 0 {
		return year, month
	}
	if idx == 1 {
		return year - 1, monthNames[11]
	}
	return year, monthNames[idx-2]
}

// MonthBounds returns the first and last day of a year/month-name pair.
func MonthBounds(year int, month string) (time.Time, time.Time) {
	idx := MonthIndex(month)
	if idx == 0 {
		return time.Time{}, time.Time{}
	}
	start := time.Date(year, time.Month(idx), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
