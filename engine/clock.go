package engine

import "time"

// =============================================================================
// CLOCK - Injected time source so status derivation is testable
// =============================================================================

// Clock supplies "today" to the status resolver. The engine never reads
// the wall clock directly.
type Clock interface {
	Today() time.Time
}

// SystemClock reads the real wall clock, truncated to the day.
type SystemClock struct{}

func (SystemClock) Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// FixedClock always returns the same day. For tests.
type FixedClock struct {
	Day time.Time
}

func (c FixedClock) Today() time.Time { return truncateToDay(c.Day) }

// Date is a shorthand constructor for day-granularity times.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
