package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goalengine/pkg/calendar"
	"goalengine/pkg/generator"
	"goalengine/pkg/model"
	"goalengine/pkg/recurrence"
)

type GoalService struct {
	goals          GoalStore
	loc            *time.Location
	maxOccurrences int
	gen            *generator.Generator
	logger         *zap.Logger
}

func NewGoalService(goals GoalStore, loc *time.Location, maxOccurrences int, logger *zap.Logger) *GoalService {
	if loc == nil {
		loc = time.UTC
	}
	if maxOccurrences <= 0 || maxOccurrences > recurrence.DefaultMaxOccurrences {
		maxOccurrences = recurrence.DefaultMaxOccurrences
	}
	return &GoalService{
		goals:          goals,
		loc:            loc,
		maxOccurrences: maxOccurrences,
		gen:            generator.New(),
		logger:         logger,
	}
}

// Create validates g and stores it for userID. A missing end date is derived
// from the period type; custom periods must carry one.
func (s *GoalService) Create(ctx context.Context, userID int, g model.Goal) (*model.Goal, error) {
	g.ID = ""
	g.UserID = userID
	g.IsActive = true
	g.RecurrenceIndex = 0
	g.StartDate = calendar.StartOfDay(g.StartDate.In(s.loc))

	if g.EndDate.IsZero() {
		end, ok := model.PeriodEnd(g.PeriodType, g.StartDate)
		if !ok {
			return nil, fmt.Errorf("%w: period %q requires an end date", model.ErrInvalidGoal, g.PeriodType)
		}
		g.EndDate = end
	} else {
		g.EndDate = calendar.StartOfDay(g.EndDate.In(s.loc))
	}

	if !g.IsRecurring {
		g.RecurrencePattern = ""
		g.RecurrenceConfig = nil
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	created, err := s.goals.Create(ctx, g, "", "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("Goal created",
		zap.String("goal_id", created.ID),
		zap.Int("user_id", userID),
		zap.Bool("recurring", created.IsRecurring),
	)
	return created, nil
}

func (s *GoalService) List(ctx context.Context, userID int) ([]model.Goal, error) {
	return s.goals.ListActiveByUser(ctx, userID)
}

// Occurrences previews the start dates of the goal's upcoming instances,
// following the same chain the recurrence sweep produces. Non-recurring
// goals have none.
func (s *GoalService) Occurrences(ctx context.Context, userID int, goalID string, limit int) ([]time.Time, error) {
	g, err := s.goals.Get(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if !g.IsRecurring {
		return []time.Time{}, nil
	}
	if limit <= 0 || limit > s.maxOccurrences {
		limit = s.maxOccurrences
	}
	next, err := s.gen.PreviewGoals(*g, limit)
	if err != nil {
		return nil, err
	}
	starts := make([]time.Time, 0, len(next))
	for _, n := range next {
		starts = append(starts, n.StartDate)
	}
	return starts, nil
}
