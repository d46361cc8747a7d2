package mq

import "goalengine/pkg/model"

// Routing keys on the events exchange.
const (
	GoalInstanceRequested = "goal.instance.requested"
	TodoInstanceRequested = "todo.instance.requested"
	GoalInstanceCreated   = "goal.instance.created"
	TodoInstanceCreated   = "todo.instance.created"
)

// GoalInstanceRequestedPayload asks the goal store to persist the successor
// of a recurring goal. RequestID is deterministic per source and start date.
type GoalInstanceRequestedPayload struct {
	RequestID    string     `json:"request_id"`
	SourceGoalID string     `json:"source_goal_id"`
	Goal         model.Goal `json:"goal"`
}

type TodoInstanceRequestedPayload struct {
	RequestID    string     `json:"request_id"`
	SourceTodoID string     `json:"source_todo_id"`
	Todo         model.Todo `json:"todo"`
}

// InstanceCreatedPayload is published once a successor has been stored.
type InstanceCreatedPayload struct {
	RequestID string `json:"request_id"`
	SourceID  string `json:"source_id"`
	NewID     string `json:"new_id"`
	UserID    int    `json:"user_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
}
