package service

import (
	"context"
	"time"

	"goalengine/pkg/model"
)

// GoalStore is implemented by repository.GoalRepository.
type GoalStore interface {
	ListActive(ctx context.Context, now time.Time) ([]model.Goal, error)
	ListActiveByUser(ctx context.Context, userID int) ([]model.Goal, error)
	Get(ctx context.Context, userID int, id string) (*model.Goal, error)
	Create(ctx context.Context, g model.Goal, requestID, sourceID string) (*model.Goal, error)
	Update(ctx context.Context, id string, patch model.GoalPatch) error
}

type LogStore interface {
	ListForGoal(ctx context.Context, goalID string, from, to time.Time) ([]model.Log, error)
}

type TodoStore interface {
	ListRecurring(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, t model.Todo, requestID, sourceID string) (*model.Todo, error)
}

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// Deduper is satisfied by *util.Deduper.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, key string) bool
	Release(ctx context.Context, handler, key string)
}
