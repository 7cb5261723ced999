package kpi

import (
	"testing"
	"time"
)

func TestMonthIndex(t *testing.T) {
	if got := MonthIndex("January"); got != 1 {
		t.Fatalf("January = %d", got)
	}
	if got := MonthIndex("December"); got != 12 {
		t.Fatalf("December = %d", got)
	}
	if got := MonthIndex("Janvier"); got != 0 {
		t.Fatalf("unknown month = %d, want 0", got)
	}
}

func TestPreviousMonth(t *testing.T) {
	year, month := PreviousMonth(2025, "March")
	if year != 2025 || month != "February" {
		t.Fatalf("got %d %s", year, month)
	}
	year, month = PreviousMonth(2025, "January")
	if year != 2024 || month != "December" {
		t.Fatalf("year rollover: got %d %s", year, month)
	}
	year, month = PreviousMonth(2025, "Nope")
	if year != 2025 || month != "Nope" {
		t.Fatalf("unknown month should pass through, got %d %s", year, month)
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(2024, "February")
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("leap february end = %v", end)
	}
}
