// Package calendar provides the date-boundary arithmetic used by the goal
// engine. All functions keep the location of their input and work on
// calendar days, not fixed 24h spans.
package calendar

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a date cannot be parsed or a range is inverted.
var ErrInvalidDate = errors.New("invalid date")

const DateLayout = "2006-01-02"

// NamedRange is a relative window anchored on "today".
type NamedRange string

const (
	RangePast     NamedRange = "past"
	RangeToday    NamedRange = "today"
	RangeTomorrow NamedRange = "tomorrow"
	RangeWeek     NamedRange = "week"
	RangeMonth    NamedRange = "month"
)

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Sunday that opens t's week.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfQuarter returns the first day of the quarter; quarters open in
// January, April, July and October.
func StartOfQuarter(t time.Time) time.Time {
	m := (int(t.Month())-1)/3*3 + 1
	return time.Date(t.Year(), time.Month(m), 1, 0, 0, 0, 0, t.Location())
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last day of t's month at midnight.
func EndOfMonth(t time.Time) time.Time {
	return AddDays(AddMonths(StartOfMonth(t), 1), -1)
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the ceiling of the calendar-day difference to - from.
// The result is negative when to precedes from. Wall-clock components are
// compared, so a DST shift never adds a phantom day.
func DaysBetween(from, to time.Time) int {
	diff := wall(to).Sub(wall(from))
	return int(math.Ceil(diff.Hours() / 24))
}

func wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddMonths adds n calendar months, clamping the day to the last valid day
// of the resulting month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears adds n years with the same clamping as AddMonths (Feb 29 -> Feb 28).
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsWithinNamedRange reports whether date falls in the named range relative
// to now. week and month are inclusive on both ends. Unknown ranges match nothing.
func IsWithinNamedRange(date time.Time, r NamedRange, now time.Time) bool {
	today := StartOfDay(now)
	day := StartOfDay(date.In(now.Location()))

	switch r {
	case RangePast:
		return day.Before(today)
	case RangeToday:
		return day.Equal(today)
	case RangeTomorrow:
		return day.Equal(AddDays(today, 1))
	case RangeWeek:
		return !day.Before(today) && !day.After(AddDays(today, 7))
	case RangeMonth:
		return !day.Before(today) && !day.After(AddMonths(today, 1))
	default:
		return false
	}
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and interprets bare dates in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.In(loc), nil
}

// ValidateRange returns ErrInvalidDate when either bound is zero or end precedes start.
func ValidateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: missing bound", ErrInvalidDate)
	}
	if StartOfDay(end).Before(StartOfDay(start)) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidDate, end.Format(DateLayout), start.Format(DateLayout))
	}
	return nil
}
