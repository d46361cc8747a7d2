// Package recurrence resolves the next occurrence of a recurring goal or todo.
//
// Next is a deterministic function of its inputs: it never reads the clock
// and keeps the time-of-day and location of the anchor.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"goalengine/pkg/calendar"
)

var (
	// ErrInvalidRecurrence is returned for descriptors that cannot produce dates.
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	// ErrSeriesEnded is the normal terminal signal of a finite series.
	ErrSeriesEnded = errors.New("recurrence series ended")
)

// DefaultMaxOccurrences caps previews of series that never end.
const DefaultMaxOccurrences = 365

type Pattern string

const (
	Daily         Pattern = "daily"
	Weekly        Pattern = "weekly"
	WorkWeekly    Pattern = "work-weekly"
	CustomWeekly  Pattern = "custom-weekly"
	Monthly       Pattern = "monthly"
	CustomMonthly Pattern = "custom-monthly"
	Quarterly     Pattern = "quarterly"
	Yearly        Pattern = "yearly"
)

// Valid reports whether p is one of the known patterns.
func (p Pattern) Valid() bool {
	switch p {
	case Daily, Weekly, WorkWeekly, CustomWeekly, Monthly, CustomMonthly, Quarterly, Yearly:
		return true
	}
	return false
}

type EndType string

const (
	EndNever EndType = "never"
	EndCount EndType = "count"
	EndDate  EndType = "date"
)

// End is the termination condition of a series.
type End struct {
	Type  EndType    `json:"type"`
	Count int        `json:"n,omitempty"`
	Date  *time.Time `json:"date,omitempty"`
}

// Config is the structured payload stored next to a record's pattern
// (recurrence_config column).
type Config struct {
	Interval   int   `json:"interval,omitempty"`
	DaysOfWeek []int `json:"daysOfWeek,omitempty"`
	DayOfMonth int   `json:"dayOfMonth,omitempty"`
	End        *End  `json:"end,omitempty"`
}

// Descriptor is the fully resolved recurrence rule.
type Descriptor struct {
	Pattern    Pattern
	Interval   int
	DaysOfWeek []int
	DayOfMonth int
	End        End
}

// NewDescriptor builds a descriptor from a stored pattern and config.
// A missing or non-positive interval defaults to 1, a missing end to never.
func NewDescriptor(p Pattern, cfg *Config) Descriptor {
	d := Descriptor{Pattern: p, Interval: 1, End: End{Type: EndNever}}
	if cfg == nil {
		return d
	}
	if cfg.Interval > 0 {
		d.Interval = cfg.Interval
	}
	d.DaysOfWeek = append([]int(nil), cfg.DaysOfWeek...)
	d.DayOfMonth = cfg.DayOfMonth
	if cfg.End != nil && cfg.End.Type != "" {
		d.End = *cfg.End
	}
	return d
}

// Validate checks the structural invariants of the descriptor.
func (d Descriptor) Validate() error {
	if !d.Pattern.Valid() {
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidRecurrence, d.Pattern)
	}
	if d.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRecurrence, d.Interval)
	}

	switch d.Pattern {
	case CustomWeekly:
		if len(d.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: custom-weekly requires daysOfWeek", ErrInvalidRecurrence)
		}
		for _, wd := range d.DaysOfWeek {
			if wd < 0 || wd > 6 {
				return fmt.Errorf("%w: weekday %d out of range 0-6", ErrInvalidRecurrence, wd)
			}
		}
	case CustomMonthly:
		if d.DayOfMonth < 1 || d.DayOfMonth > 31 {
			return fmt.Errorf("%w: dayOfMonth %d out of range 1-31", ErrInvalidRecurrence, d.DayOfMonth)
		}
	}

	switch d.End.Type {
	case EndNever, "":
	case EndCount:
		if d.End.Count < 0 {
			return fmt.Errorf("%w: negative count %d", ErrInvalidRecurrence, d.End.Count)
		}
	case EndDate:
		if d.End.Date == nil || d.End.Date.IsZero() {
			return fmt.Errorf("%w: end date missing", ErrInvalidRecurrence)
		}
	default:
		return fmt.Errorf("%w: unknown end type %q", ErrInvalidRecurrence, d.End.Type)
	}
	return nil
}

// Next returns the occurrence that follows anchor. occurrenceIndex is the
// position of the occurrence being requested; a count end condition yields
// ErrSeriesEnded once occurrenceIndex >= n, a date end condition once the
// computed date falls after the end date.
func Next(d Descriptor, anchor time.Time, occurrenceIndex int) (time.Time, error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, err
	}
	if d.End.Type == EndCount && occurrenceIndex >= d.End.Count {
		return time.Time{}, ErrSeriesEnded
	}

	next := advance(d, anchor)

	if d.End.Type == EndDate {
		limit := calendar.StartOfDay(d.End.Date.In(next.Location()))
		if calendar.StartOfDay(next).After(limit) {
			return time.Time{}, ErrSeriesEnded
		}
	}
	return next, nil
}

func advance(d Descriptor, anchor time.Time) time.Time {
	n := d.Interval

	switch d.Pattern {
	case Daily:
		return calendar.AddDays(anchor, n)
	case Weekly:
		return calendar.AddDays(anchor, 7*n)
	case WorkWeekly:
		next := anchor
		for i := 0; i < n; i++ {
			next = nextWeekday(next)
		}
		return next
	case CustomWeekly:
		return nextMatchingDay(anchor, d.DaysOfWeek, n)
	case Monthly:
		return calendar.AddMonths(anchor, n)
	case CustomMonthly:
		month := calendar.AddMonths(calendar.StartOfMonth(anchor), n)
		day := d.DayOfMonth
		if last := calendar.DaysIn(month.Year(), month.Month()); day > last {
			day = last
		}
		return time.Date(month.Year(), month.Month(), day,
			anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
	case Quarterly:
		return calendar.AddMonths(anchor, 3*n)
	case Yearly:
		return calendar.AddYears(anchor, n)
	}
	return anchor
}

func nextWeekday(t time.Time) time.Time {
	next := calendar.AddDays(t, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = calendar.AddDays(next, 1)
	}
	return next
}

// nextMatchingDay returns the first day after anchor whose weekday is in
// days. When the match lands in a later week than the anchor, the remaining
// interval-1 weeks are skipped.
func nextMatchingDay(anchor time.Time, days []int, interval int) time.Time {
	set := make(map[time.Weekday]bool, len(days))
	for _, wd := range days {
		set[time.Weekday(wd)] = true
	}

	next := anchor
	for i := 0; i < 7; i++ {
		next = calendar.AddDays(next, 1)
		if set[next.Weekday()] {
			break
		}
	}

	if interval > 1 && !calendar.StartOfWeek(next).Equal(calendar.StartOfWeek(anchor)) {
		next = calendar.AddDays(next, 7*(interval-1))
	}
	return next
}
