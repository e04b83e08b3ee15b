package reports

import (
	"fmt"
	"time"

	"github.com/stockpulse/stockpulse/internal/shared"
)

// Symbolic date range keys accepted by ResolveRange.
const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeLast7     = "last7days"
	RangeLast30    = "last30days"
	RangeThisMonth = "thismonth"
	RangeLastMonth = "lastmonth"
)

// ResolveRange maps a symbolic period key to a concrete window in the
// server-local calendar, inclusive day boundaries (00:00:00 .. 23:59:59).
// An empty key resolves to last7days; an unrecognized key is an error rather
// than a silent default, so a caller typo cannot quietly change the window.
func ResolveRange(key string, now time.Time) (DateWindow, error) {
	if key == "" {
		key = RangeLast7
	}
	today := startOfDay(now)
	switch key {
	case RangeToday:
		return DateWindow{Start: today, End: endOfDay(today)}, nil
	case RangeYesterday:
		yesterday := today.AddDate(0, 0, -1)
		return DateWindow{Start: yesterday, End: endOfDay(yesterday)}, nil
	case RangeLast7:
		return DateWindow{Start: today.AddDate(0, 0, -7), End: endOfDay(today)}, nil
	case RangeLast30:
		return DateWindow{Start: today.AddDate(0, 0, -30), End: endOfDay(today)}, nil
	case RangeThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateWindow{Start: first, End: first.AddDate(0, 1, 0).Add(-time.Second)}, nil
	case RangeLastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return DateWindow{Start: first, End: first.AddDate(0, 1, 0).Add(-time.Second)}, nil
	}
	return DateWindow{}, fmt.Errorf("%w: %q", shared.ErrInvalidDateRange, key)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
