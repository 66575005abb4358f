package domain

import (
	"testing"
	"time"
)

func TestLogID_LowercasesHash(t *testing.T) {
	t.Parallel()

	got := LogID("0xAbCdEf", 7)
	if got != "0xabcdef-7" {
		t.Fatalf("unexpected log id: %s", got)
	}
}

func TestStakeID_LowercasesAddress(t *testing.T) {
	t.Parallel()

	got := StakeID("3", "0xDEADbeef")
	if got != "3-0xdeadbeef" {
		t.Fatalf("unexpected stake id: %s", got)
	}
}

func TestDayID_TruncatesToUTCDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*3600)
	// 2025-03-10 02:30 +05:00 is 2025-03-09 21:30 UTC
	ts := time.Date(2025, 3, 10, 2, 30, 0, 0, loc)
	if got := DayID(ts); got != "2025-03-09" {
		t.Fatalf("expected 2025-03-09, got %s", got)
	}
}

func TestDayWindow_HalfOpen(t *testing.T) {
	t.Parallel()

	start, end, err := DayWindow("2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !InDay(start, start, end) {
		t.Fatalf("window start must be inside the window")
	}
	if InDay(end, start, end) {
		t.Fatalf("window end must be outside the window")
	}
	if InDay(end.Add(-time.Nanosecond), start, end) != true {
		t.Fatalf("last instant of the day must be inside the window")
	}
}

func TestDayWindow_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, _, err := DayWindow("not-a-day"); err == nil {
		t.Fatalf("expected error for malformed day id")
	}
}
