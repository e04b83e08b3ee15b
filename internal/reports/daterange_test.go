package reports

import (
	"errors"
	"testing"
	"time"

	"github.com/stockpulse/stockpulse/internal/shared"
)

var resolverNow = time.Date(2026, time.March, 17, 14, 35, 12, 0, time.Local)

func TestResolveRangeToday(t *testing.T) {
	window, err := ResolveRange(RangeToday, resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2026, time.March, 17, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2026, time.March, 17, 23, 59, 59, 0, time.Local)
	if !window.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", window.Start, wantStart)
	}
	if !window.End.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", window.End, wantEnd)
	}
}

func TestResolveRangeYesterday(t *testing.T) {
	window, err := ResolveRange(RangeYesterday, resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := window.Start.Day(); got != 16 {
		t.Fatalf("start day = %d, want 16", got)
	}
	if window.End.Hour() != 23 || window.End.Minute() != 59 || window.End.Second() != 59 {
		t.Fatalf("end = %v, want 23:59:59", window.End)
	}
}

func TestResolveRangeLast7SharesTodayEnd(t *testing.T) {
	last7, err := ResolveRange(RangeLast7, resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today, err := ResolveRange(RangeToday, resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !last7.End.Equal(today.End) {
		t.Fatalf("last7 end = %v, today end = %v", last7.End, today.End)
	}
	wantStart := today.Start.AddDate(0, 0, -7)
	if !last7.Start.Equal(wantStart) {
		t.Fatalf("last7 start = %v, want %v", last7.Start, wantStart)
	}
}

func TestResolveRangeLast30(t *testing.T) {
	window, err := ResolveRange(RangeLast30, resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.Local)
	if !window.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", window.Start, wantStart)
	}
}

func TestResolveRangeThisMonth(t *testing.T) {
	window, err := ResolveRange(RangeThisMonth, resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2026, time.March, 31, 23, 59, 59, 0, time.Local)
	if !window.Start.Equal(wantStart) || !window.End.Equal(wantEnd) {
		t.Fatalf("window = %v..%v, want %v..%v", window.Start, window.End, wantStart, wantEnd)
	}
}

func TestResolveRangeLastMonth(t *testing.T) {
	window, err := ResolveRange(RangeLastMonth, resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2026, time.February, 28, 23, 59, 59, 0, time.Local)
	if !window.Start.Equal(wantStart) || !window.End.Equal(wantEnd) {
		t.Fatalf("window = %v..%v, want %v..%v", window.Start, window.End, wantStart, wantEnd)
	}
}

func TestResolveRangeEmptyDefaultsToLast7(t *testing.T) {
	window, err := ResolveRange("", resolverNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last7, _ := ResolveRange(RangeLast7, resolverNow)
	if !window.Start.Equal(last7.Start) || !window.End.Equal(last7.End) {
		t.Fatalf("empty key window = %v..%v, want last7 %v..%v", window.Start, window.End, last7.Start, last7.End)
	}
}

func TestResolveRangeUnknownKeyRejected(t *testing.T) {
	_, err := ResolveRange("fortnight", resolverNow)
	if !errors.Is(err, shared.ErrInvalidDateRange) {
		t.Fatalf("error = %v, want ErrInvalidDateRange", err)
	}
}

func TestResolveRangeStartNeverAfterEnd(t *testing.T) {
	keys := []string{RangeToday, RangeYesterday, RangeLast7, RangeLast30, RangeThisMonth, RangeLastMonth}
	for _, key := range keys {
		window, err := ResolveRange(key, resolverNow)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", key, err)
		}
		if window.Start.After(window.End) {
			t.Fatalf("%s: start %v after end %v", key, window.Start, window.End)
		}
	}
}
