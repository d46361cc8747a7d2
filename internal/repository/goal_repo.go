package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"goalengine/pkg/model"
)

const goalColumns = `
        id, user_id, title, description, goal_type, metric_type, target_value,
        period_type, start_date, end_date, activity_title, activity_category,
        is_active, is_recurring, COALESCE(recurrence_pattern, ''), recurrence_config,
        recurrence_index, created_at, updated_at`

type GoalRepository struct {
	db     *pgxpool.Pool
	loc    *time.Location
	logger *zap.Logger
}

// NewGoalRepository creates the goal store. Dates are returned as midnight in loc.
func NewGoalRepository(db *pgxpool.Pool, loc *time.Location, logger *zap.Logger) *GoalRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &GoalRepository{db: db, loc: loc, logger: logger}
}

// ListActive returns every active goal that has started by now, across users.
func (r *GoalRepository) ListActive(ctx context.Context, now time.Time) ([]model.Goal, error) {
	start := time.Now()
	defer observe("list_active", "goals", start)

	query := `SELECT ` + goalColumns + `
        FROM goals
        WHERE is_active = TRUE AND start_date <= $1
        ORDER BY end_date, id
    `
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		r.logger.Error("Failed to list active goals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	goals, err := r.collect(rows)
	if err != nil {
		r.logger.Error("Failed to scan goals", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("Listed active goals", zap.Int("count", len(goals)))
	return goals, nil
}

// ListActiveByUser returns the user's active goals ordered by end date.
func (r *GoalRepository) ListActiveByUser(ctx context.Context, userID int) ([]model.Goal, error) {
	start := time.Now()
	defer observe("list_active_by_user", "goals", start)

	query := `SELECT ` + goalColumns + `
        FROM goals
        WHERE user_id = $1 AND is_active = TRUE
        ORDER BY end_date, id
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list goals", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	goals, err := r.collect(rows)
	if err != nil {
		r.logger.Error("Failed to scan goals", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}
	return goals, nil
}

// Get returns model.ErrNotFound when the goal does not exist or belongs to
// another user.
func (r *GoalRepository) Get(ctx context.Context, userID int, id string) (*model.Goal, error) {
	start := time.Now()
	defer observe("get", "goals", start)

	query := `SELECT ` + goalColumns + `
        FROM goals
        WHERE id = $1 AND user_id = $2
    `
	g, err := r.scan(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("goal %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get goal", zap.String("goal_id", id), zap.Error(err))
		return nil, err
	}
	return g, nil
}

// Create inserts g. A non-empty requestID makes the insert idempotent: a
// repeated request returns the goal stored by the first one.
func (r *GoalRepository) Create(ctx context.Context, g model.Goal, requestID, sourceID string) (*model.Goal, error) {
	start := time.Now()
	defer observe("create", "goals", start)

	r.logger.Debug("Inserting goal",
		zap.Int("user_id", g.UserID),
		zap.String("title", g.Title),
		zap.String("request_id", requestID),
	)

	query := `
        INSERT INTO goals (
            user_id, title, description, goal_type, metric_type, target_value,
            period_type, start_date, end_date, activity_title, activity_category,
            is_active, is_recurring, recurrence_pattern, recurrence_config,
            recurrence_index, request_id, source_goal_id
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        ON CONFLICT (request_id) DO NOTHING
        RETURNING ` + goalColumns

	created, err := r.scan(r.db.QueryRow(ctx, query,
		g.UserID,
		g.Title,
		g.Description,
		g.GoalType,
		g.MetricType,
		g.TargetValue,
		g.PeriodType,
		g.StartDate,
		g.EndDate,
		g.ActivityTitle,
		g.ActivityCategory,
		g.IsActive,
		g.IsRecurring,
		nullString(string(g.RecurrencePattern)),
		g.RecurrenceConfig,
		g.RecurrenceIndex,
		nullString(requestID),
		nullString(sourceID),
	))
	if errors.Is(err, pgx.ErrNoRows) && requestID != "" {
		r.logger.Info("Goal already created for request", zap.String("request_id", requestID))
		return r.byRequest(ctx, requestID)
	}
	if err != nil {
		r.logger.Error("Failed to insert goal", zap.Int("user_id", g.UserID), zap.Error(err))
		return nil, err
	}

	r.logger.Info("Goal inserted successfully",
		zap.String("goal_id", created.ID),
		zap.Int("user_id", created.UserID),
	)
	return created, nil
}

// Update applies the non-nil fields of patch.
func (r *GoalRepository) Update(ctx context.Context, id string, patch model.GoalPatch) error {
	start := time.Now()
	defer observe("update", "goals", start)

	query := `
        UPDATE goals
        SET title        = COALESCE($2, title),
            description  = COALESCE($3, description),
            target_value = COALESCE($4, target_value),
            is_active    = COALESCE($5, is_active),
            updated_at   = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, patch.Title, patch.Description, patch.TargetValue, patch.IsActive)
	if err != nil {
		r.logger.Error("Failed to update goal", zap.String("goal_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("goal %s: %w", id, model.ErrNotFound)
	}
	r.logger.Debug("Goal updated", zap.String("goal_id", id))
	return nil
}

func (r *GoalRepository) byRequest(ctx context.Context, requestID string) (*model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE request_id = $1`
	return r.scan(r.db.QueryRow(ctx, query, requestID))
}

func (r *GoalRepository) collect(rows pgx.Rows) ([]model.Goal, error) {
	goals := []model.Goal{}
	for rows.Next() {
		g, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (r *GoalRepository) scan(row pgx.Row) (*model.Goal, error) {
	var g model.Goal
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Title,
		&g.Description,
		&g.GoalType,
		&g.MetricType,
		&g.TargetValue,
		&g.PeriodType,
		&g.StartDate,
		&g.EndDate,
		&g.ActivityTitle,
		&g.ActivityCategory,
		&g.IsActive,
		&g.IsRecurring,
		&g.RecurrencePattern,
		&g.RecurrenceConfig,
		&g.RecurrenceIndex,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.StartDate = inLocation(g.StartDate, r.loc)
	g.EndDate = inLocation(g.EndDate, r.loc)
	return &g, nil
}
