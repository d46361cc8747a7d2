package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"goalengine/pkg/model"
)

const todoColumns = `
        t.id, t.user_id, t.title, t.description, t.urgency, t.importance,
        t.activity_title, t.contact_id, t.place_id, t.goal_id, t.tags,
        t.work_date, t.deadline, t.done, t.is_recurring,
        COALESCE(t.recurrence_pattern, ''), t.recurrence_config, t.recurrence_index, t.created_at`

type TodoRepository struct {
	db     *pgxpool.Pool
	loc    *time.Location
	logger *zap.Logger
}

func NewTodoRepository(db *pgxpool.Pool, loc *time.Location, logger *zap.Logger) *TodoRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &TodoRepository{db: db, loc: loc, logger: logger}
}

// ListRecurring returns the latest instance of every recurring todo series,
// i.e. recurring todos that no other todo names as its source.
func (r *TodoRepository) ListRecurring(ctx context.Context) ([]model.Todo, error) {
	start := time.Now()
	defer observe("list_recurring", "todos", start)

	query := `SELECT ` + todoColumns + `
        FROM todos t
        WHERE t.is_recurring = TRUE
          AND t.deadline IS NOT NULL
          AND NOT EXISTS (SELECT 1 FROM todos s WHERE s.source_todo_id = t.id)
        ORDER BY t.deadline, t.id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list recurring todos", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			r.logger.Error("Failed to scan todo row", zap.Error(err))
			return nil, err
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug("Listed recurring todos", zap.Int("count", len(todos)))
	return todos, nil
}

// Create inserts t, idempotent on a non-empty requestID.
func (r *TodoRepository) Create(ctx context.Context, t model.Todo, requestID, sourceID string) (*model.Todo, error) {
	start := time.Now()
	defer observe("create", "todos", start)

	query := `
        INSERT INTO todos AS t (
            user_id, title, description, urgency, importance, activity_title,
            contact_id, place_id, goal_id, tags, work_date, deadline, done,
            is_recurring, recurrence_pattern, recurrence_config, recurrence_index,
            request_id, source_todo_id
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
        ON CONFLICT (request_id) DO NOTHING
        RETURNING ` + todoColumns

	created, err := r.scan(r.db.QueryRow(ctx, query,
		t.UserID,
		t.Title,
		t.Description,
		t.Urgency,
		t.Importance,
		t.ActivityTitle,
		t.ContactID,
		t.PlaceID,
		t.GoalID,
		t.Tags,
		t.WorkDate,
		t.Deadline,
		t.Done,
		t.IsRecurring,
		nullString(string(t.RecurrencePattern)),
		t.RecurrenceConfig,
		t.RecurrenceIndex,
		nullString(requestID),
		nullString(sourceID),
	))
	if errors.Is(err, pgx.ErrNoRows) && requestID != "" {
		r.logger.Info("Todo already created for request", zap.String("request_id", requestID))
		return r.scan(r.db.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos t WHERE t.request_id = $1`, requestID))
	}
	if err != nil {
		r.logger.Error("Failed to insert todo", zap.Int("user_id", t.UserID), zap.Error(err))
		return nil, err
	}

	r.logger.Info("Todo inserted successfully",
		zap.String("todo_id", created.ID),
		zap.Int("user_id", created.UserID),
	)
	return created, nil
}

func (r *TodoRepository) scan(row pgx.Row) (*model.Todo, error) {
	var t model.Todo
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Urgency,
		&t.Importance,
		&t.ActivityTitle,
		&t.ContactID,
		&t.PlaceID,
		&t.GoalID,
		&t.Tags,
		&t.WorkDate,
		&t.Deadline,
		&t.Done,
		&t.IsRecurring,
		&t.RecurrencePattern,
		&t.RecurrenceConfig,
		&t.RecurrenceIndex,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.WorkDate = inLocationPtr(t.WorkDate, r.loc)
	if t.Deadline != nil {
		d := t.Deadline.In(r.loc)
		t.Deadline = &d
	}
	return &t, nil
}
