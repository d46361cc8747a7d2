package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"goalengine/pkg/model"
)

type LogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLogRepository(db *pgxpool.Pool, logger *zap.Logger) *LogRepository {
	return &LogRepository{db: db, logger: logger}
}

// ListForGoal returns the goal's logs whose start time lies in [from, to).
func (r *LogRepository) ListForGoal(ctx context.Context, goalID string, from, to time.Time) ([]model.Log, error) {
	start := time.Now()
	defer observe("list_for_goal", "logs", start)

	query := `
        SELECT id, user_id, activity_title, start_time, end_time, goal_id, goal_count, tags
        FROM logs
        WHERE goal_id = $1 AND start_time >= $2 AND start_time < $3
        ORDER BY start_time
    `
	rows, err := r.db.Query(ctx, query, goalID, from, to)
	if err != nil {
		r.logger.Error("Failed to query logs", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	logs := []model.Log{}
	for rows.Next() {
		var l model.Log
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.ActivityTitle,
			&l.StartTime,
			&l.EndTime,
			&l.GoalID,
			&l.GoalCount,
			&l.Tags,
		); err != nil {
			r.logger.Error("Failed to scan log row", zap.String("goal_id", goalID), zap.Error(err))
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Debug("Logs listed",
		zap.String("goal_id", goalID),
		zap.Int("count", len(logs)),
	)
	return logs, nil
}
