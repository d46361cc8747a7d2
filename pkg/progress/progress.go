// Package progress derives the read-time fields of a goal from its logs.
package progress

import (
	"math"
	"time"

	"goalengine/pkg/calendar"
	"goalengine/pkg/model"
)

// GoalProgress holds every derived field of a goal at one instant. None of
// it is persisted.
type GoalProgress struct {
	GoalID     string           `json:"goal_id"`
	GoalType   model.GoalType   `json:"goal_type"`
	MetricType model.MetricType `json:"metric_type"`
	Target     float64          `json:"target_value"`

	TotalDays     int `json:"total_days"`
	ElapsedDays   int `json:"elapsed_days"`
	DaysRemaining int `json:"days_remaining"`

	CurrentValue     float64 `json:"current_value"`
	DailyTarget      float64 `json:"daily_target"`
	CurrentDailyRate float64 `json:"current_daily_rate"`
	PercentComplete  float64 `json:"percent_complete"`

	// Limiting goals only.
	BudgetConsumed float64 `json:"budget_consumed,omitempty"`
	Allowance      float64 `json:"allowance,omitempty"`
	IsOverPace     bool    `json:"is_over_pace,omitempty"`
	LimitExceeded  bool    `json:"limit_exceeded,omitempty"`

	IsCompleted bool `json:"is_completed"`
	IsOverdue   bool `json:"is_overdue"`

	Remaining float64 `json:"remaining"`
	// ProjectedDays is +Inf when the current rate is zero.
	ProjectedDays           float64    `json:"-"`
	ProjectedCompletionDate *time.Time `json:"projected_completion_date,omitempty"`
}

// OnPace reports whether the goal is expected to finish within its period.
func (p GoalProgress) OnPace() bool {
	if p.GoalType == model.GoalLimiting {
		return !p.IsOverPace && !p.LimitExceeded
	}
	return p.IsCompleted || (!math.IsInf(p.ProjectedDays, 1) && p.ProjectedDays <= float64(p.DaysRemaining))
}

// Compute derives the progress of goal at now. Logs not referencing the goal
// or starting outside its window are ignored, so callers may pass a wider set.
func Compute(goal model.Goal, logs []model.Log, now time.Time) GoalProgress {
	p := GoalProgress{
		GoalID:     goal.ID,
		GoalType:   goal.GoalType,
		MetricType: goal.MetricType,
		Target:     goal.TargetValue,
	}

	p.TotalDays = calendar.DaysBetween(goal.StartDate, goal.EndDate)
	if p.TotalDays < 1 {
		p.TotalDays = 1
	}

	p.CurrentValue = CurrentValue(goal, logs, now)

	p.DaysRemaining = calendar.DaysBetween(now, goal.EndDate)
	if p.DaysRemaining < 0 {
		p.DaysRemaining = 0
	}
	p.ElapsedDays = p.TotalDays - p.DaysRemaining
	if p.ElapsedDays < 0 {
		p.ElapsedDays = 0
	}

	if p.ElapsedDays > 0 {
		p.CurrentDailyRate = finite(p.CurrentValue / float64(p.ElapsedDays))
	}
	p.DailyTarget = finite(goal.TargetValue / float64(p.TotalDays))

	ratio := finite(p.CurrentValue / goal.TargetValue * 100)
	_, periodEnd := goal.Window()
	ended := !now.Before(periodEnd)

	switch goal.GoalType {
	case model.GoalLimiting:
		p.PercentComplete = ratio
		p.BudgetConsumed = ratio
		p.Allowance = finite(goal.TargetValue * float64(p.ElapsedDays) / float64(p.TotalDays))
		p.IsOverPace = p.ElapsedDays > 0 && p.CurrentValue > p.Allowance
		p.LimitExceeded = p.CurrentValue > goal.TargetValue
		p.IsCompleted = ended && p.CurrentValue <= goal.TargetValue
	default:
		p.PercentComplete = math.Min(100, ratio)
		p.IsCompleted = p.CurrentValue >= goal.TargetValue
	}
	p.IsOverdue = ended && !p.IsCompleted

	p.Remaining = math.Max(0, goal.TargetValue-p.CurrentValue)
	p.ProjectedDays = math.Inf(1)
	if p.CurrentDailyRate > 0 {
		p.ProjectedDays = p.Remaining / p.CurrentDailyRate
		p.ProjectedCompletionDate = projectDate(now, p.ProjectedDays)
	}
	return p
}

// maxProjectedDays bounds projections to dates time.Time can represent
// without overflow; slower rates leave the date undefined.
const maxProjectedDays = 1_000_000

// projectDate adds whole calendar days, then the fractional day as a
// duration, so large projections never overflow time.Duration.
func projectDate(now time.Time, days float64) *time.Time {
	if math.IsNaN(days) || days < 0 || days > maxProjectedDays {
		return nil
	}
	whole := math.Floor(days)
	at := calendar.AddDays(now, int(whole)).Add(time.Duration((days - whole) * float64(24*time.Hour)))
	return &at
}

// CurrentValue sums the contribution of the goal's logs: hours for time
// goals (a running log counts up to now), goal counts for count goals.
func CurrentValue(goal model.Goal, logs []model.Log, now time.Time) float64 {
	windowStart, windowEnd := goal.Window()

	var total float64
	for _, l := range logs {
		if !l.BelongsTo(goal.ID) {
			continue
		}
		if l.StartTime.Before(windowStart) || !l.StartTime.Before(windowEnd) {
			continue
		}

		switch goal.MetricType {
		case model.MetricCount:
			total += l.Count()
		default:
			end := now
			if l.EndTime != nil {
				end = *l.EndTime
			}
			if end.After(windowEnd) {
				end = windowEnd
			}
			start := l.StartTime
			if start.Before(windowStart) {
				start = windowStart
			}
			if d := end.Sub(start); d > 0 {
				total += d.Hours()
			}
		}
	}
	return total
}

// ComputeAll derives progress for every goal in order, pulling each goal's
// logs from logsByGoal.
func ComputeAll(goals []model.Goal, logsByGoal map[string][]model.Log, now time.Time) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, Compute(g, logsByGoal[g.ID], now))
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
