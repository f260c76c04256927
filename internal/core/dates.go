// Package core holds the domain value types shared by the ledger and
// planning services: calendar month keys, exact decimal amounts, and the
// income/outcome record shapes.
package core

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month. It is the key type for ledger
// entries, adjustments, and materialized template instances.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YM is a shorthand constructor used heavily in call sites and tests.
func YM(year, month int) YearMonth {
	return YearMonth{Year: year, Month: time.Month(month)}
}

// YMOf returns the YearMonth containing t.
func YMOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Next returns the following calendar month, rolling over the year.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Prev returns the preceding calendar month, rolling back the year.
func (ym YearMonth) Prev() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Compare orders two months chronologically: -1 if ym is earlier than
// other, 0 if equal, +1 if later.
func (ym YearMonth) Compare(other YearMonth) int {
	switch {
	case ym.Year < other.Year:
		return -1
	case ym.Year > other.Year:
		return 1
	case ym.Month < other.Month:
		return -1
	case ym.Month > other.Month:
		return 1
	default:
		return 0
	}
}

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool { return ym.Compare(other) > 0 }

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool { return ym.Compare(other) < 0 }

func (ym YearMonth) Validate() error {
	if ym.Month < time.January || ym.Month > time.December {
		return fmt.Errorf("%w: %d-%02d", ErrInvalidDate, ym.Year, int(ym.Month))
	}
	return nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MonthBounds returns the month's opening instant (first day, 00:00:00)
// and closing instant (last day, 23:59:59), both in UTC.
func MonthBounds(ym YearMonth) (time.Time, time.Time, error) {
	if err := ym.Validate(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	opening := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
	closing := time.Date(ym.Year, ym.Month, DaysIn(ym), 23, 59, 59, 0, time.UTC)
	return opening, closing, nil
}

// EndOfMonth returns the last calendar day of the month at midnight.
func EndOfMonth(ym YearMonth) (time.Time, error) {
	if err := ym.Validate(); err != nil {
		return time.Time{}, err
	}
	return time.Date(ym.Year, ym.Month, DaysIn(ym), 0, 0, 0, 0, time.UTC), nil
}

// DaysIn returns the number of calendar days in the month.
func DaysIn(ym YearMonth) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NewDate builds a midnight UTC instant from calendar components,
// rejecting dates the calendar does not contain (April 31, February 30).
// Normalization is never applied; an out-of-range day is an error.
func NewDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	if day < 1 || day > DaysIn(YM(year, month)) {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// ParseDate parses a YYYY-MM-DD string with strict calendar validation.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
