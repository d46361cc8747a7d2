package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	contractsmq "goalengine/contracts/mq"
	"goalengine/pkg/generator"
	"goalengine/pkg/logger"
	"goalengine/pkg/metrics"
	"goalengine/pkg/model"
)

const (
	goalSweepHandler = "goal-sweep"
	todoSweepHandler = "todo-sweep"
)

// SweepResult counts what one sweep did.
type SweepResult struct {
	Checked    int `json:"checked"`
	Requested  int `json:"requested"`
	Ended      int `json:"ended"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Orchestrator finds recurring goals and todos whose current instance is
// over and requests their successors on the events exchange.
type Orchestrator struct {
	goals     GoalStore
	todos     TodoStore
	gen       *generator.Generator
	publisher Publisher
	dedup     Deduper
	logger    *zap.Logger
}

func NewOrchestrator(
	goals GoalStore,
	todos TodoStore,
	gen *generator.Generator,
	publisher Publisher,
	dedup Deduper,
	logger *zap.Logger,
) *Orchestrator {
	if gen == nil {
		gen = generator.New()
	}
	return &Orchestrator{
		goals:     goals,
		todos:     todos,
		gen:       gen,
		publisher: publisher,
		dedup:     dedup,
		logger:    logger,
	}
}

// Sweep runs the goal and the todo sweep. Both run even if the first fails.
func (o *Orchestrator) Sweep(ctx context.Context, now time.Time) error {
	_, goalErr := o.SweepGoals(ctx, now)
	_, todoErr := o.SweepTodos(ctx, now)
	return errors.Join(goalErr, todoErr)
}

// SweepGoals requests the successor of every due recurring goal and
// deactivates the goal it replaces.
func (o *Orchestrator) SweepGoals(ctx context.Context, now time.Time) (SweepResult, error) {
	start := time.Now()
	defer func() { metrics.RecordSweepDuration("goal", time.Since(start)) }()

	log := logger.WithTrace(ctx, o.logger)
	log.Info("Sweeping recurring goals", zap.Time("now", now))

	goals, err := o.goals.ListActive(ctx, now)
	if err != nil {
		log.Error("Failed to list active goals", zap.Error(err))
		return SweepResult{}, err
	}

	var res SweepResult
	for _, g := range goals {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !generator.GoalDue(g, now) {
			continue
		}
		res.Checked++

		req, err := o.gen.NextGoal(g, now)
		if err != nil {
			res.Failed++
			metrics.IncrementInstanceGeneration("goal", "failed")
			log.Warn("Failed to compute next goal instance", zap.String("goal_id", g.ID), zap.Error(err))
			continue
		}
		if req == nil {
			res.Ended++
			metrics.IncrementInstanceGeneration("goal", "ended")
			log.Debug("Goal series ended", zap.String("goal_id", g.ID))
			continue
		}

		if !o.dedup.AcquireOnce(ctx, goalSweepHandler, req.RequestID) {
			res.Duplicates++
			metrics.IncrementInstanceGeneration("goal", "duplicate")
			continue
		}

		payload := contractsmq.GoalInstanceRequestedPayload{
			RequestID:    req.RequestID,
			SourceGoalID: req.SourceGoalID,
			Goal:         req.Goal,
		}
		if err := o.publisher.PublishWithContext(ctx, contractsmq.GoalInstanceRequested, payload); err != nil {
			o.dedup.Release(ctx, goalSweepHandler, req.RequestID)
			res.Failed++
			metrics.IncrementInstanceGeneration("goal", "failed")
			log.Error("Failed to publish goal.instance.requested",
				zap.String("goal_id", g.ID),
				zap.Error(err),
			)
			continue
		}

		inactive := false
		if err := o.goals.Update(ctx, g.ID, model.GoalPatch{IsActive: &inactive}); err != nil {
			log.Warn("Failed to deactivate rolled over goal", zap.String("goal_id", g.ID), zap.Error(err))
		}

		res.Requested++
		metrics.IncrementInstanceGeneration("goal", "requested")
		log.Info("Published goal.instance.requested",
			zap.String("goal_id", g.ID),
			zap.String("request_id", req.RequestID),
			zap.String("next_start", req.Goal.StartDate.Format(time.DateOnly)),
		)
	}

	log.Info("Goal sweep completed",
		zap.Int("active_goals", len(goals)),
		zap.Int("due", res.Checked),
		zap.Int("requested", res.Requested),
		zap.Int("ended", res.Ended),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// SweepTodos requests the successor of every recurring todo whose deadline
// has passed.
func (o *Orchestrator) SweepTodos(ctx context.Context, now time.Time) (SweepResult, error) {
	start := time.Now()
	defer func() { metrics.RecordSweepDuration("todo", time.Since(start)) }()

	log := logger.WithTrace(ctx, o.logger)
	log.Info("Sweeping recurring todos", zap.Time("now", now))

	todos, err := o.todos.ListRecurring(ctx)
	if err != nil {
		log.Error("Failed to list recurring todos", zap.Error(err))
		return SweepResult{}, err
	}

	var res SweepResult
	for _, t := range todos {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !generator.TodoDue(t, now) {
			continue
		}
		res.Checked++

		req, err := o.gen.NextTodo(t, now)
		if err != nil {
			res.Failed++
			metrics.IncrementInstanceGeneration("todo", "failed")
			log.Warn("Failed to compute next todo instance", zap.String("todo_id", t.ID), zap.Error(err))
			continue
		}
		if req == nil {
			res.Ended++
			metrics.IncrementInstanceGeneration("todo", "ended")
			continue
		}

		if !o.dedup.AcquireOnce(ctx, todoSweepHandler, req.RequestID) {
			res.Duplicates++
			metrics.IncrementInstanceGeneration("todo", "duplicate")
			continue
		}

		payload := contractsmq.TodoInstanceRequestedPayload{
			RequestID:    req.RequestID,
			SourceTodoID: req.SourceTodoID,
			Todo:         req.Todo,
		}
		if err := o.publisher.PublishWithContext(ctx, contractsmq.TodoInstanceRequested, payload); err != nil {
			o.dedup.Release(ctx, todoSweepHandler, req.RequestID)
			res.Failed++
			metrics.IncrementInstanceGeneration("todo", "failed")
			log.Error("Failed to publish todo.instance.requested",
				zap.String("todo_id", t.ID),
				zap.Error(err),
			)
			continue
		}

		res.Requested++
		metrics.IncrementInstanceGeneration("todo", "requested")
		log.Info("Published todo.instance.requested",
			zap.String("todo_id", t.ID),
			zap.String("request_id", req.RequestID),
		)
	}

	log.Info("Todo sweep completed",
		zap.Int("recurring_todos", len(todos)),
		zap.Int("due", res.Checked),
		zap.Int("requested", res.Requested),
		zap.Int("ended", res.Ended),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
