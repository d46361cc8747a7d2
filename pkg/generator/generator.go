// Package generator computes the successor of a recurring goal or todo once
// the current instance's terminal date has passed. It only builds the new
// record; persisting it is left to the caller.
package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goalengine/pkg/calendar"
	"goalengine/pkg/model"
	"goalengine/pkg/recurrence"
)

// requestNamespace scopes the deterministic request ids.
var requestNamespace = uuid.MustParse("8d1f3c52-6a7e-4f0b-9a51-3b2c7e9d4a10")

// GoalRequest asks the goal store to create the next instance of a series.
type GoalRequest struct {
	RequestID    string     `json:"request_id"`
	SourceGoalID string     `json:"source_goal_id"`
	Goal         model.Goal `json:"goal"`
}

// TodoRequest asks the todo store to create the next instance of a series.
type TodoRequest struct {
	RequestID    string     `json:"request_id"`
	SourceTodoID string     `json:"source_todo_id"`
	Todo         model.Todo `json:"todo"`
}

// CustomEndFunc supplies the end date of a custom-period successor.
type CustomEndFunc func(prev model.Goal, nextStart time.Time) time.Time

// KeepLength is the default CustomEndFunc: the successor spans as many
// days as its predecessor.
func KeepLength(prev model.Goal, nextStart time.Time) time.Time {
	return calendar.AddDays(nextStart, calendar.DaysBetween(prev.StartDate, prev.EndDate))
}

type Generator struct {
	customEnd CustomEndFunc
}

func New() *Generator {
	return &Generator{customEnd: KeepLength}
}

// WithCustomEnd overrides how custom-period goals get their end date.
func (g *Generator) WithCustomEnd(fn CustomEndFunc) *Generator {
	if fn != nil {
		g.customEnd = fn
	}
	return g
}

// GoalDue reports whether goal is recurring and its whole end day has
// passed. The end date itself still belongs to the current instance.
func GoalDue(goal model.Goal, now time.Time) bool {
	_, end := goal.Window()
	return goal.IsRecurring && !now.Before(end)
}

// TodoDue reports whether todo is recurring and its deadline is at or before now.
func TodoDue(todo model.Todo, now time.Time) bool {
	return todo.IsRecurring && todo.Deadline != nil && !todo.Deadline.After(now)
}

// NextGoal returns the successor of goal, or nil when the goal is not due or
// its series has ended. The next start is resolved from the goal's end date.
func (g *Generator) NextGoal(goal model.Goal, now time.Time) (*GoalRequest, error) {
	if !GoalDue(goal, now) {
		return nil, nil
	}

	index := goal.RecurrenceIndex + 1
	nextStart, err := recurrence.Next(goal.Descriptor(), goal.EndDate, index)
	if errors.Is(err, recurrence.ErrSeriesEnded) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("goal %s: %w", goal.ID, err)
	}
	nextStart = calendar.StartOfDay(nextStart)

	nextEnd, ok := model.PeriodEnd(goal.PeriodType, nextStart)
	if !ok {
		nextEnd = calendar.StartOfDay(g.customEnd(goal, nextStart))
	}

	next := model.Goal{
		UserID:            goal.UserID,
		Title:             goal.Title,
		Description:       goal.Description,
		GoalType:          goal.GoalType,
		MetricType:        goal.MetricType,
		TargetValue:       goal.TargetValue,
		PeriodType:        goal.PeriodType,
		StartDate:         nextStart,
		EndDate:           nextEnd,
		ActivityTitle:     goal.ActivityTitle,
		ActivityCategory:  goal.ActivityCategory,
		IsActive:          true,
		IsRecurring:       true,
		RecurrencePattern: goal.RecurrencePattern,
		RecurrenceConfig:  copyConfig(goal.RecurrenceConfig),
		RecurrenceIndex:   index,
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("goal %s successor: %w", goal.ID, err)
	}

	return &GoalRequest{
		RequestID:    requestID("goal", goal.ID, nextStart),
		SourceGoalID: goal.ID,
		Goal:         next,
	}, nil
}

// PreviewGoals lists up to limit successors of goal in the order repeated
// sweeps would create them. Each one is derived from its predecessor once
// that predecessor's window has closed.
func (g *Generator) PreviewGoals(goal model.Goal, limit int) ([]model.Goal, error) {
	if limit <= 0 || limit > recurrence.DefaultMaxOccurrences {
		limit = recurrence.DefaultMaxOccurrences
	}
	out := []model.Goal{}
	cur := goal
	for len(out) < limit {
		_, end := cur.Window()
		req, err := g.NextGoal(cur, end)
		if err != nil {
			return nil, err
		}
		if req == nil {
			break
		}
		next := req.Goal
		next.ID = goal.ID
		out = append(out, next)
		cur = next
	}
	return out, nil
}

// NextTodo returns the successor of todo, or nil when it is not due or its
// series has ended. The work date keeps its distance to the deadline.
func (g *Generator) NextTodo(todo model.Todo, now time.Time) (*TodoRequest, error) {
	if !TodoDue(todo, now) {
		return nil, nil
	}

	index := todo.RecurrenceIndex + 1
	nextDeadline, err := recurrence.Next(todo.Descriptor(), *todo.Deadline, index)
	if errors.Is(err, recurrence.ErrSeriesEnded) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("todo %s: %w", todo.ID, err)
	}

	var workDate *time.Time
	if todo.WorkDate != nil {
		offset := calendar.DaysBetween(calendar.StartOfDay(*todo.WorkDate), calendar.StartOfDay(*todo.Deadline))
		wd := calendar.AddDays(nextDeadline, -offset)
		workDate = &wd
	}

	next := model.Todo{
		UserID:            todo.UserID,
		Title:             todo.Title,
		Description:       todo.Description,
		Urgency:           todo.Urgency,
		Importance:        todo.Importance,
		ActivityTitle:     todo.ActivityTitle,
		ContactID:         copyString(todo.ContactID),
		PlaceID:           copyString(todo.PlaceID),
		GoalID:            copyString(todo.GoalID),
		Tags:              todo.Tags,
		WorkDate:          workDate,
		Deadline:          &nextDeadline,
		IsRecurring:       true,
		RecurrencePattern: todo.RecurrencePattern,
		RecurrenceConfig:  copyConfig(todo.RecurrenceConfig),
		RecurrenceIndex:   index,
	}

	return &TodoRequest{
		RequestID:    requestID("todo", todo.ID, nextDeadline),
		SourceTodoID: todo.ID,
		Todo:         next,
	}, nil
}

// requestID is stable for a given source and next date so a repeated sweep
// produces the same request.
func requestID(kind, sourceID string, next time.Time) string {
	key := fmt.Sprintf("%s|%s|%s", kind, sourceID, next.Format(time.RFC3339))
	return uuid.NewSHA1(requestNamespace, []byte(key)).String()
}

func copyConfig(c *recurrence.Config) *recurrence.Config {
	if c == nil {
		return nil
	}
	out := *c
	out.DaysOfWeek = append([]int(nil), c.DaysOfWeek...)
	if c.End != nil {
		end := *c.End
		out.End = &end
	}
	return &out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
