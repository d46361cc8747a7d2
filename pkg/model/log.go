package model

import "time"

// Log is a recorded activity occurrence. EndTime is nil while the activity runs.
type Log struct {
	ID            string     `json:"id"`
	UserID        int        `json:"user_id"`
	ActivityTitle string     `json:"activity_title"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	GoalID        *string    `json:"goal_id,omitempty"`
	GoalCount     *float64   `json:"goal_count,omitempty"`
	Tags          string     `json:"tags,omitempty"`
}

// BelongsTo reports whether the log references goalID.
func (l Log) BelongsTo(goalID string) bool {
	return l.GoalID != nil && *l.GoalID == goalID
}

// Count is the explicit count contribution, 1 when unset.
func (l Log) Count() float64 {
	if l.GoalCount == nil {
		return 1
	}
	return *l.GoalCount
}
