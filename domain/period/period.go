// Package period provides calendar-month period types and arithmetic.
// All functions are pure - no side effects.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifies one calendar month, the unit of fetching, caching,
// and breakdown (immutable value type).
type Period struct {
	Year  int
	Month time.Month
}

// Of creates a period from a year and month number (1-12).
func Of(year, month int) Period {
	return Period{Year: year, Month: time.Month(month)}
}

// FromTime returns the period containing t (in t's location).
func FromTime(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Key returns the canonical "MM-YYYY" key used in cache and export filenames.
func (p Period) Key() string {
	return fmt.Sprintf("%02d-%d", int(p.Month), p.Year)
}

// Label returns a human-readable label like "January 2026".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}

func (p Period) String() string {
	return p.Key()
}

// IsZero reports whether p is the zero period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Before reports whether p is chronologically before q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Next returns the following calendar month, handling year rollover.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Start returns the first instant of the month in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// EpochRange returns the half-open [start, end) bounds of the month as
// UTC epoch milliseconds: start is the first instant of the month, end is
// the first instant of the following month.
func (p Period) EpochRange() (startMs, endMs int64) {
	return p.Start().UnixMilli(), p.Next().Start().UnixMilli()
}

// ParseKey parses a canonical "MM-YYYY" key.
func ParseKey(key string) (Period, error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("invalid period key %q", key)
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month in period key %q", key)
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1 {
		return Period{}, fmt.Errorf("invalid year in period key %q", key)
	}

	return Of(year, month), nil
}

// ParseFilename extracts the period from a filename of the form
// "MM-YYYY-<suffix>" (e.g. "12-2025-team-usage-events.csv").
func ParseFilename(name string) (Period, error) {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 2 {
		return Period{}, fmt.Errorf("no period prefix in filename %q", name)
	}
	return ParseKey(parts[0] + "-" + parts[1])
}

// MonthsBack returns the n periods ending at the month containing now,
// in chronological order. MonthsBack(now, 2) in February 2026 returns
// January 2026 then February 2026.
func MonthsBack(now time.Time, n int) []Period {
	if n <= 0 {
		return nil
	}

	periods := make([]Period, n)
	year, month := now.Year(), int(now.Month())

	for i := 0; i < n; i++ {
		y, m := year, month-(n-1-i)
		for m <= 0 {
			m += 12
			y--
		}
		periods[i] = Of(y, m)
	}

	return periods
}
