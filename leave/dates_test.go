package leave

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestDaySpan(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int64
	}{
		{"four full days", day(1), day(5), 4},
		{"single day", day(1), day(2), 1},
		{"six hours floors to one", day(1), day(1).Add(6 * time.Hour), 1},
		{"36 hours rounds to two", day(1), day(1).Add(36 * time.Hour), 2},
		{"reversed order uses absolute span", day(5), day(1), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := daySpan(tt.start, tt.end)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s want %d", got, tt.want)
		})
	}
}

func TestDaySpan_ZeroSpan(t *testing.T) {
	got := daySpan(day(1), day(1))
	assert.True(t, got.IsZero())
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", day(1), day(5), day(1), day(5), true},
		{"partial", day(1), day(5), day(3), day(8), true},
		{"contained", day(1), day(10), day(3), day(5), true},
		{"touching endpoints", day(1), day(5), day(5), day(8), true},
		{"disjoint", day(1), day(5), day(6), day(10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.want, overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd), "overlap must be symmetric")
		})
	}
}

func TestWithinYear(t *testing.T) {
	assert.True(t, withinYear(day(1), 2025))
	assert.False(t, withinYear(day(1), 2024))
	assert.False(t, withinYear(time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC), 2025))
}
