package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"goalengine/pkg/calendar"
	"goalengine/pkg/recurrence"
)

var (
	// ErrInvalidGoal is returned when a goal definition violates its invariants.
	ErrInvalidGoal = errors.New("invalid goal")
	// ErrNotFound is returned by stores when a record does not exist for the user.
	ErrNotFound = errors.New("not found")
)

type GoalType string

const (
	GoalAchievement GoalType = "achievement"
	GoalLimiting    GoalType = "limiting"
)

type MetricType string

const (
	MetricTime  MetricType = "time"
	MetricCount MetricType = "count"
)

type PeriodType string

const (
	PeriodWeek    PeriodType = "week"
	PeriodMonth   PeriodType = "month"
	Period3Months PeriodType = "3months"
	Period6Months PeriodType = "6months"
	PeriodYear    PeriodType = "year"
	PeriodCustom  PeriodType = "custom"
)

type Goal struct {
	ID          string `json:"id"`
	UserID      int    `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	GoalType    GoalType   `json:"goal_type"`
	MetricType  MetricType `json:"metric_type"`
	TargetValue float64    `json:"target_value"`
	PeriodType  PeriodType `json:"period_type"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`

	ActivityTitle    string `json:"activity_title,omitempty"`
	ActivityCategory string `json:"activity_category,omitempty"`

	IsActive          bool               `json:"is_active"`
	IsRecurring       bool               `json:"is_recurring"`
	RecurrencePattern recurrence.Pattern `json:"recurrence_pattern,omitempty"`
	RecurrenceConfig  *recurrence.Config `json:"recurrence_config,omitempty"`
	RecurrenceIndex   int                `json:"recurrence_index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalPatch carries the mutable fields of GoalStore.Update; nil means unchanged.
type GoalPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	TargetValue *float64 `json:"target_value,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// Descriptor returns the goal's recurrence rule.
func (g Goal) Descriptor() recurrence.Descriptor {
	return recurrence.NewDescriptor(g.RecurrencePattern, g.RecurrenceConfig)
}

// Validate checks the definition invariants. Derived fields are not inspected.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidGoal)
	}
	switch g.GoalType {
	case GoalAchievement, GoalLimiting:
	default:
		return fmt.Errorf("%w: unknown goal type %q", ErrInvalidGoal, g.GoalType)
	}
	switch g.MetricType {
	case MetricTime, MetricCount:
	default:
		return fmt.Errorf("%w: unknown metric type %q", ErrInvalidGoal, g.MetricType)
	}
	switch g.PeriodType {
	case PeriodWeek, PeriodMonth, Period3Months, Period6Months, PeriodYear, PeriodCustom:
	default:
		return fmt.Errorf("%w: unknown period type %q", ErrInvalidGoal, g.PeriodType)
	}
	if !(g.TargetValue > 0) {
		return fmt.Errorf("%w: target value must be positive, got %v", ErrInvalidGoal, g.TargetValue)
	}
	if err := calendar.ValidateRange(g.StartDate, g.EndDate); err != nil {
		return err
	}
	if g.IsRecurring {
		if err := g.Descriptor().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PeriodEnd derives a goal's end date from its period type: a week spans
// seven days, the longer periods add their length and step back one day so
// the end is the last day of the span. Custom periods have no derived end.
func PeriodEnd(p PeriodType, start time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		return calendar.AddDays(start, 7), true
	case PeriodMonth:
		return calendar.AddDays(calendar.AddMonths(start, 1), -1), true
	case Period3Months:
		return calendar.AddDays(calendar.AddMonths(start, 3), -1), true
	case Period6Months:
		return calendar.AddDays(calendar.AddMonths(start, 6), -1), true
	case PeriodYear:
		return calendar.AddDays(calendar.AddYears(start, 1), -1), true
	}
	return time.Time{}, false
}

// Window returns the half-open instant range a log must start in to count
// toward the goal: the whole of the end date is included.
func (g Goal) Window() (time.Time, time.Time) {
	return calendar.StartOfDay(g.StartDate), calendar.AddDays(calendar.StartOfDay(g.EndDate), 1)
}
