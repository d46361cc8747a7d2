// Package rollup aggregates the paced progress of all active goals into
// dashboard windows (today, this week, ...) and their previous-period
// counterparts.
package rollup

import (
	"math"
	"time"

	"goalengine/pkg/calendar"
	"goalengine/pkg/progress"
)

type Window string

const (
	Daily     Window = "daily"
	Weekly    Window = "weekly"
	Monthly   Window = "monthly"
	Quarterly Window = "quarterly"
	Yearly    Window = "yearly"

	Yesterday   Window = "yesterday"
	LastWeek    Window = "last_week"
	LastMonth   Window = "last_month"
	LastQuarter Window = "last_quarter"
	LastYear    Window = "last_year"
)

// WindowProgress is the aggregate progress-vs-target of one window.
type WindowProgress struct {
	Window     Window    `json:"window"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Days       int       `json:"days"`
	Progress   float64   `json:"progress"`
	Target     float64   `json:"target"`
	Percentage int       `json:"percentage"`
	IsOnTrack  bool      `json:"is_on_track"`
	Goals      int       `json:"goals"`
}

type PeriodProgress struct {
	Daily     WindowProgress `json:"daily"`
	Weekly    WindowProgress `json:"weekly"`
	Monthly   WindowProgress `json:"monthly"`
	Quarterly WindowProgress `json:"quarterly"`
	Yearly    WindowProgress `json:"yearly"`
}

type HistoricalProgress struct {
	Yesterday   WindowProgress `json:"yesterday"`
	LastWeek    WindowProgress `json:"last_week"`
	LastMonth   WindowProgress `json:"last_month"`
	LastQuarter WindowProgress `json:"last_quarter"`
	LastYear    WindowProgress `json:"last_year"`
}

// Comparison pairs a current window with the window it is compared against,
// e.g. today's pace next to yesterday's.
type Comparison struct {
	Current  WindowProgress `json:"current"`
	Previous WindowProgress `json:"previous"`
}

type bounds struct {
	start, end time.Time
}

// currentBounds returns the [start, end) range of each current window.
func currentBounds(now time.Time) map[Window]bounds {
	day := calendar.StartOfDay(now)
	week := calendar.StartOfWeek(now)
	month := calendar.StartOfMonth(now)
	quarter := calendar.StartOfQuarter(now)
	year := calendar.StartOfYear(now)
	return map[Window]bounds{
		Daily:     {day, calendar.AddDays(day, 1)},
		Weekly:    {week, calendar.AddDays(week, 7)},
		Monthly:   {month, calendar.AddMonths(month, 1)},
		Quarterly: {quarter, calendar.AddMonths(quarter, 3)},
		Yearly:    {year, calendar.AddYears(year, 1)},
	}
}

// historicalBounds returns the fixed calendar ranges of the previous
// periods. All ranges are half-open; last week is the seven full days ending
// yesterday.
func historicalBounds(now time.Time) map[Window]bounds {
	today := calendar.StartOfDay(now)
	month := calendar.StartOfMonth(now)
	quarter := calendar.StartOfQuarter(now)
	year := calendar.StartOfYear(now)
	return map[Window]bounds{
		Yesterday:   {calendar.AddDays(today, -1), today},
		LastWeek:    {calendar.AddDays(today, -7), today},
		LastMonth:   {calendar.AddMonths(month, -1), month},
		LastQuarter: {calendar.AddMonths(quarter, -3), quarter},
		LastYear:    {calendar.AddYears(year, -1), year},
	}
}

// ComputePeriodProgress aggregates the active goals over the windows that
// contain now. A current window counts the days elapsed since it opened,
// never fewer than one.
func ComputePeriodProgress(goals []progress.GoalProgress, now time.Time) PeriodProgress {
	b := currentBounds(now)
	window := func(w Window) WindowProgress {
		days := calendar.DaysBetween(b[w].start, now)
		if days < 1 {
			days = 1
		}
		return aggregate(w, b[w], days, goals)
	}
	return PeriodProgress{
		Daily:     window(Daily),
		Weekly:    window(Weekly),
		Monthly:   window(Monthly),
		Quarterly: window(Quarterly),
		Yearly:    window(Yearly),
	}
}

// ComputeHistoricalProgress aggregates the active goals over the previous
// calendar periods using their full length.
func ComputeHistoricalProgress(goals []progress.GoalProgress, now time.Time) HistoricalProgress {
	b := historicalBounds(now)
	window := func(w Window) WindowProgress {
		return aggregate(w, b[w], calendar.DaysBetween(b[w].start, b[w].end), goals)
	}
	return HistoricalProgress{
		Yesterday:   window(Yesterday),
		LastWeek:    window(LastWeek),
		LastMonth:   window(LastMonth),
		LastQuarter: window(LastQuarter),
		LastYear:    window(LastYear),
	}
}

// Compare lines up every current window with its previous period.
func Compare(current PeriodProgress, previous HistoricalProgress) []Comparison {
	return []Comparison{
		{current.Daily, previous.Yesterday},
		{current.Weekly, previous.LastWeek},
		{current.Monthly, previous.LastMonth},
		{current.Quarterly, previous.LastQuarter},
		{current.Yearly, previous.LastYear},
	}
}

// aggregate sums each active goal's paced contribution over days. Completed
// and overdue goals are left out, as is any goal whose contribution is not a
// finite number.
func aggregate(w Window, b bounds, days int, goals []progress.GoalProgress) WindowProgress {
	out := WindowProgress{Window: w, Start: b.start, End: b.end, Days: days}

	for _, g := range goals {
		if g.IsCompleted || g.IsOverdue {
			continue
		}
		actual := g.CurrentDailyRate * float64(days)
		expected := g.DailyTarget * float64(days)
		if !isFinite(actual) || !isFinite(expected) {
			continue
		}
		out.Progress += actual
		out.Target += expected
		out.Goals++
	}

	if out.Target > 0 {
		out.Percentage = int(math.Round(out.Progress / out.Target * 100))
	}
	out.IsOnTrack = out.Percentage >= 100
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
