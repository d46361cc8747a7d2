package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	monday := day(2024, 5, 13)
	friday := day(2024, 5, 17)

	tests := []struct {
		name   string
		d      Descriptor
		anchor time.Time
		want   time.Time
	}{
		{"daily", NewDescriptor(Daily, nil), monday, day(2024, 5, 14)},
		{"daily every 3", NewDescriptor(Daily, &Config{Interval: 3}), monday, day(2024, 5, 16)},
		{"weekly", NewDescriptor(Weekly, nil), monday, day(2024, 5, 20)},
		{"biweekly", NewDescriptor(Weekly, &Config{Interval: 2}), monday, day(2024, 5, 27)},
		{"work-weekly from monday", NewDescriptor(WorkWeekly, nil), monday, day(2024, 5, 14)},
		{"work-weekly skips weekend", NewDescriptor(WorkWeekly, nil), friday, day(2024, 5, 20)},
		{"work-weekly from saturday", NewDescriptor(WorkWeekly, nil), day(2024, 5, 18), day(2024, 5, 20)},
		{"work-weekly twice", NewDescriptor(WorkWeekly, &Config{Interval: 2}), friday, day(2024, 5, 21)},
		{"custom-weekly mwf from monday", NewDescriptor(CustomWeekly, &Config{DaysOfWeek: []int{1, 3, 5}}), monday, day(2024, 5, 15)},
		{"custom-weekly wraps week", NewDescriptor(CustomWeekly, &Config{DaysOfWeek: []int{1, 3, 5}}), friday, day(2024, 5, 20)},
		{"custom-weekly same weekday next week", NewDescriptor(CustomWeekly, &Config{DaysOfWeek: []int{1}}), monday, day(2024, 5, 20)},
		{"custom-weekly every other week", NewDescriptor(CustomWeekly, &Config{DaysOfWeek: []int{1}, Interval: 2}), monday, day(2024, 5, 27)},
		{"custom-weekly interval within week", NewDescriptor(CustomWeekly, &Config{DaysOfWeek: []int{1, 3}, Interval: 2}), monday, day(2024, 5, 15)},
		{"monthly clamps leap february", NewDescriptor(Monthly, nil), day(2024, 1, 31), day(2024, 2, 29)},
		{"monthly clamps february", NewDescriptor(Monthly, nil), day(2023, 1, 31), day(2023, 2, 28)},
		{"monthly every 2", NewDescriptor(Monthly, &Config{Interval: 2}), day(2024, 11, 15), day(2025, 1, 15)},
		{"custom-monthly", NewDescriptor(CustomMonthly, &Config{DayOfMonth: 10}), day(2024, 1, 25), day(2024, 2, 10)},
		{"custom-monthly clamps", NewDescriptor(CustomMonthly, &Config{DayOfMonth: 31}), day(2024, 3, 31), day(2024, 4, 30)},
		{"custom-monthly interval", NewDescriptor(CustomMonthly, &Config{DayOfMonth: 1, Interval: 6}), day(2024, 9, 1), day(2025, 3, 1)},
		{"quarterly", NewDescriptor(Quarterly, nil), day(2024, 11, 30), day(2025, 2, 28)},
		{"yearly", NewDescriptor(Yearly, nil), day(2024, 2, 29), day(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.d, tt.anchor, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextKeepsTimeOfDay(t *testing.T) {
	anchor := time.Date(2024, 5, 13, 18, 45, 0, 0, time.UTC)
	got, err := Next(NewDescriptor(Monthly, nil), anchor, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 13, 18, 45, 0, 0, time.UTC), got)
}

func TestNextIsDeterministic(t *testing.T) {
	d := NewDescriptor(CustomWeekly, &Config{DaysOfWeek: []int{1, 3, 5}})
	monday := day(2024, 5, 13)
	for i := 0; i < 10; i++ {
		got, err := Next(d, monday, 0)
		require.NoError(t, err)
		assert.Equal(t, time.Wednesday, got.Weekday())
		assert.Equal(t, day(2024, 5, 15), got)
	}
}

func TestCountEndCondition(t *testing.T) {
	d := NewDescriptor(Daily, &Config{End: &End{Type: EndCount, Count: 3}})
	anchor := day(2024, 1, 1)

	for i := 0; i < 3; i++ {
		next, err := Next(d, anchor, i)
		require.NoError(t, err, "call %d", i+1)
		anchor = next
	}
	assert.Equal(t, day(2024, 1, 4), anchor)

	_, err := Next(d, anchor, 3)
	assert.ErrorIs(t, err, ErrSeriesEnded)
}

func TestDateEndCondition(t *testing.T) {
	until := day(2024, 1, 10)
	d := NewDescriptor(Weekly, &Config{End: &End{Type: EndDate, Date: &until}})

	next, err := Next(d, day(2024, 1, 3), 0)
	require.NoError(t, err)
	assert.Equal(t, until, next, "the end date itself is still part of the series")

	_, err = Next(d, next, 1)
	assert.ErrorIs(t, err, ErrSeriesEnded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
	}{
		{"unknown pattern", NewDescriptor(Pattern("fortnightly"), nil)},
		{"custom-weekly empty", NewDescriptor(CustomWeekly, &Config{})},
		{"custom-weekly out of range", NewDescriptor(CustomWeekly, &Config{DaysOfWeek: []int{7}})},
		{"custom-monthly missing day", NewDescriptor(CustomMonthly, nil)},
		{"custom-monthly day 32", NewDescriptor(CustomMonthly, &Config{DayOfMonth: 32})},
		{"negative interval", Descriptor{Pattern: Daily, Interval: -1}},
		{"end date missing", NewDescriptor(Daily, &Config{End: &End{Type: EndDate}})},
		{"unknown end", NewDescriptor(Daily, &Config{End: &End{Type: "sometimes"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.d.Validate(), ErrInvalidRecurrence)
			_, err := Next(tt.d, day(2024, 1, 1), 0)
			assert.ErrorIs(t, err, ErrInvalidRecurrence)
		})
	}
}

func TestNewDescriptorDefaults(t *testing.T) {
	d := NewDescriptor(Weekly, &Config{Interval: 0})
	assert.Equal(t, 1, d.Interval)
	assert.Equal(t, EndNever, d.End.Type)
}
