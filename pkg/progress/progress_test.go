package progress

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalengine/pkg/model"
)

func ts(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func januaryGoal(goalType model.GoalType, metric model.MetricType, target float64) model.Goal {
	return model.Goal{
		ID:          "g-jan",
		Title:       "January goal",
		GoalType:    goalType,
		MetricType:  metric,
		TargetValue: target,
		PeriodType:  model.PeriodMonth,
		StartDate:   ts(2024, 1, 1, 0),
		EndDate:     ts(2024, 1, 31, 0),
		IsActive:    true,
	}
}

// timeLog returns a finished log of the given hours starting at start.
func timeLog(goalID string, start time.Time, hours float64) model.Log {
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	return model.Log{ID: start.String(), GoalID: ptr(goalID), StartTime: start, EndTime: &end}
}

func countLog(goalID string, at time.Time, n *float64) model.Log {
	return model.Log{ID: at.String(), GoalID: ptr(goalID), StartTime: at, GoalCount: n}
}

func TestComputeAchievementBehindPace(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricTime, 50)
	logs := []model.Log{
		timeLog(g.ID, ts(2024, 1, 2, 9), 8),
		timeLog(g.ID, ts(2024, 1, 8, 9), 7),
		timeLog(g.ID, ts(2024, 1, 12, 9), 5),
	}
	now := ts(2024, 1, 15, 0)

	p := Compute(g, logs, now)

	assert.Equal(t, 30, p.TotalDays)
	assert.Equal(t, 16, p.DaysRemaining)
	assert.Equal(t, 14, p.ElapsedDays)
	assert.InDelta(t, 20, p.CurrentValue, 1e-9)
	assert.InDelta(t, 1.43, p.CurrentDailyRate, 0.005)
	assert.InDelta(t, 50.0/30, p.DailyTarget, 1e-9)
	assert.InDelta(t, 40, p.PercentComplete, 1e-9)
	assert.False(t, p.IsCompleted)
	assert.False(t, p.IsOverdue)
	assert.InDelta(t, 30, p.Remaining, 1e-9)

	require.NotNil(t, p.ProjectedCompletionDate)
	assert.WithinDuration(t, ts(2024, 2, 5, 0), *p.ProjectedCompletionDate, time.Minute)
	assert.True(t, p.ProjectedCompletionDate.After(g.EndDate))
	assert.False(t, p.OnPace())
}

func TestComputeAchievementOverdue(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricTime, 50)
	logs := []model.Log{
		timeLog(g.ID, ts(2024, 1, 5, 8), 20),
		timeLog(g.ID, ts(2024, 1, 20, 8), 15),
	}

	p := Compute(g, logs, ts(2024, 2, 1, 0))

	assert.InDelta(t, 35, p.CurrentValue, 1e-9)
	assert.True(t, p.IsOverdue)
	assert.False(t, p.IsCompleted)
	assert.Equal(t, 0, p.DaysRemaining)
	assert.Equal(t, 30, p.ElapsedDays)
}

func TestComputeAchievementCompleted(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricCount, 3)
	logs := []model.Log{
		countLog(g.ID, ts(2024, 1, 3, 10), nil),
		countLog(g.ID, ts(2024, 1, 4, 10), ptr(4.0)),
	}

	p := Compute(g, logs, ts(2024, 1, 10, 0))

	assert.Equal(t, 5.0, p.CurrentValue)
	assert.Equal(t, 100.0, p.PercentComplete)
	assert.True(t, p.IsCompleted)
	assert.False(t, p.IsOverdue)
	assert.Equal(t, 0.0, p.Remaining)
	require.NotNil(t, p.ProjectedCompletionDate)
	assert.Equal(t, ts(2024, 1, 10, 0), *p.ProjectedCompletionDate)
}

func TestComputeLimitingBreached(t *testing.T) {
	g := januaryGoal(model.GoalLimiting, model.MetricCount, 10)
	var logs []model.Log
	for i := 0; i < 12; i++ {
		logs = append(logs, countLog(g.ID, ts(2024, 1, 1+i*2, 12), nil))
	}

	p := Compute(g, logs, ts(2024, 2, 1, 0))

	assert.Equal(t, 12.0, p.CurrentValue)
	assert.False(t, p.IsCompleted)
	assert.True(t, p.IsOverdue)
	assert.True(t, p.LimitExceeded)
	assert.InDelta(t, 120, p.PercentComplete, 1e-9, "over-budget limiting goals are not clamped")
	assert.Equal(t, p.PercentComplete, p.BudgetConsumed)
}

func TestComputeLimitingHeld(t *testing.T) {
	g := januaryGoal(model.GoalLimiting, model.MetricCount, 10)
	logs := []model.Log{countLog(g.ID, ts(2024, 1, 3, 12), ptr(6.0))}

	during := Compute(g, logs, ts(2024, 1, 16, 0))
	assert.False(t, during.IsCompleted, "limiting goals complete only once the period ends")
	assert.InDelta(t, 5, during.Allowance, 1e-9)
	assert.True(t, during.IsOverPace)
	assert.False(t, during.LimitExceeded)
	assert.False(t, during.OnPace())

	after := Compute(g, logs, ts(2024, 2, 1, 0))
	assert.True(t, after.IsCompleted)
	assert.False(t, after.IsOverdue)
}

func TestComputeZeroElapsed(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricTime, 50)
	now := g.StartDate

	p := Compute(g, nil, now)

	assert.Equal(t, 0, p.ElapsedDays)
	assert.Equal(t, 0.0, p.CurrentDailyRate)
	assert.True(t, math.IsInf(p.ProjectedDays, 1))
	assert.Nil(t, p.ProjectedCompletionDate)
}

func TestComputeSlowRateProjectsForward(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricTime, 50)
	g.PeriodType = model.PeriodYear
	g.EndDate = ts(2024, 12, 31, 0)
	now := ts(2024, 3, 1, 0)

	minute := timeLog(g.ID, ts(2024, 1, 2, 10), 1.0/60)
	p := Compute(g, []model.Log{minute}, now)

	assert.Greater(t, p.ProjectedDays, 150000.0)
	require.NotNil(t, p.ProjectedCompletionDate)
	assert.True(t, p.ProjectedCompletionDate.After(now))
	assert.Greater(t, p.ProjectedCompletionDate.Year(), 2400)

	second := timeLog(g.ID, ts(2024, 1, 2, 10), 1.0/3600)
	p = Compute(g, []model.Log{second}, now)
	assert.Greater(t, p.ProjectedDays, float64(maxProjectedDays))
	assert.Nil(t, p.ProjectedCompletionDate, "projections past the representable range stay undefined")
}

func TestComputeSingleDayPeriod(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricCount, 2)
	g.EndDate = g.StartDate

	p := Compute(g, nil, ts(2024, 1, 1, 6))

	assert.Equal(t, 1, p.TotalDays)
	assert.Equal(t, 2.0, p.DailyTarget)
}

func TestComputeFutureGoal(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricCount, 10)
	p := Compute(g, nil, ts(2023, 12, 20, 0))

	assert.Equal(t, 0, p.ElapsedDays)
	assert.False(t, p.IsOverdue)
}

func TestCurrentValueTimeMetric(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricTime, 50)
	now := ts(2024, 1, 10, 12)

	otherGoal := timeLog("g-other", ts(2024, 1, 5, 8), 4)
	beforeStart := timeLog(g.ID, ts(2023, 12, 31, 22), 4)
	running := model.Log{ID: "running", GoalID: ptr(g.ID), StartTime: ts(2024, 1, 10, 9)}
	lastDay := timeLog(g.ID, ts(2024, 1, 31, 22), 5)
	unlinked := model.Log{ID: "unlinked", StartTime: ts(2024, 1, 6, 8)}

	got := CurrentValue(g, []model.Log{otherGoal, beforeStart, running, lastDay, unlinked}, now)

	// running contributes 3h up to now, lastDay is cut at the end of Jan 31
	assert.InDelta(t, 5, got, 1e-9)
}

func TestComputeIsIdempotent(t *testing.T) {
	g := januaryGoal(model.GoalAchievement, model.MetricTime, 50)
	logs := []model.Log{timeLog(g.ID, ts(2024, 1, 2, 9), 3)}
	now := ts(2024, 1, 9, 0)

	assert.Equal(t, Compute(g, logs, now), Compute(g, logs, now))
}

func TestPercentCompleteIsMonotonic(t *testing.T) {
	now := ts(2024, 1, 20, 0)
	for _, gt := range []model.GoalType{model.GoalAchievement, model.GoalLimiting} {
		g := januaryGoal(gt, model.MetricCount, 10)
		var logs []model.Log
		prev := Compute(g, logs, now).PercentComplete
		for i := 0; i < 15; i++ {
			logs = append(logs, countLog(g.ID, ts(2024, 1, 1+i, 8), nil))
			cur := Compute(g, logs, now).PercentComplete
			assert.GreaterOrEqual(t, cur, prev, "%s after %d logs", gt, i+1)
			prev = cur
		}
	}
}

func TestComputeAll(t *testing.T) {
	a := januaryGoal(model.GoalAchievement, model.MetricCount, 10)
	b := januaryGoal(model.GoalAchievement, model.MetricCount, 4)
	b.ID = "g-b"

	out := ComputeAll([]model.Goal{a, b}, map[string][]model.Log{
		"g-b": {countLog("g-b", ts(2024, 1, 2, 8), ptr(2.0))},
	}, ts(2024, 1, 11, 0))

	require.Len(t, out, 2)
	assert.Equal(t, 0.0, out[0].CurrentValue)
	assert.Equal(t, 2.0, out[1].CurrentValue)
	assert.Equal(t, 50.0, out[1].PercentComplete)
}
