package revenue

import (
	"fmt"
	"time"
)

// Month identifies one calendar month, rendered as YYYY-MM. It is the
// period key for expectation slices and reconciliation results.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("revenue: invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String renders the YYYY-MM form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns the first day of the month (UTC midnight).
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month (UTC midnight).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.End().Day()
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	return MonthOf(m.Start().AddDate(0, 1, 0))
}

// After reports whether m is strictly after o.
func (m Month) After(o Month) bool {
	if m.Year != o.Year {
		return m.Year > o.Year
	}
	return m.Month > o.Month
}

// MonthRange expands the inclusive [start, end] window into calendar
// months. An inverted window yields nil.
func MonthRange(start, end Month) []Month {
	var months []Month
	for m := start; !m.After(end); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// ParseDate parses a YYYY-MM-DD date. The second return is false for
// empty or malformed input; callers skip such records permissively since
// upstream validation owns rejection.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// DaysInclusive counts days in [from, to], both ends included.
func DaysInclusive(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
