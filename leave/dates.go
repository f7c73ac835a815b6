package leave

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE HELPERS - day span, overlap, calendar-year window
// =============================================================================

// daySpan returns the whole-day span of [start, end], rounded, with a
// floor of one day for any non-zero span. Returns zero only when the
// span is exactly zero.
func daySpan(start, end time.Time) decimal.Decimal {
	hours := end.Sub(start).Abs().Hours()
	if hours == 0 {
		return decimal.Zero
	}
	days := math.Round(hours / 24)
	if days < 1 {
		days = 1
	}
	return decimal.NewFromFloat(days)
}

// overlaps reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one calendar day. Covers partial
// overlap, shared endpoints, and full containment either way.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// withinYear reports whether t falls in the given calendar year.
func withinYear(t time.Time, year int) bool {
	return t.Year() == year
}
