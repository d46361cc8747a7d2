package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"goalengine/pkg/model"
)

type mockGoalStore struct{ mock.Mock }

func (m *mockGoalStore) ListActive(ctx context.Context, now time.Time) ([]model.Goal, error) {
	args := m.Called(ctx, now)
	goals, _ := args.Get(0).([]model.Goal)
	return goals, args.Error(1)
}

func (m *mockGoalStore) ListActiveByUser(ctx context.Context, userID int) ([]model.Goal, error) {
	args := m.Called(ctx, userID)
	goals, _ := args.Get(0).([]model.Goal)
	return goals, args.Error(1)
}

func (m *mockGoalStore) Get(ctx context.Context, userID int, id string) (*model.Goal, error) {
	args := m.Called(ctx, userID, id)
	g, _ := args.Get(0).(*model.Goal)
	return g, args.Error(1)
}

func (m *mockGoalStore) Create(ctx context.Context, g model.Goal, requestID, sourceID string) (*model.Goal, error) {
	args := m.Called(ctx, g, requestID, sourceID)
	created, _ := args.Get(0).(*model.Goal)
	return created, args.Error(1)
}

func (m *mockGoalStore) Update(ctx context.Context, id string, patch model.GoalPatch) error {
	return m.Called(ctx, id, patch).Error(0)
}

type mockLogStore struct{ mock.Mock }

func (m *mockLogStore) ListForGoal(ctx context.Context, goalID string, from, to time.Time) ([]model.Log, error) {
	args := m.Called(ctx, goalID, from, to)
	logs, _ := args.Get(0).([]model.Log)
	return logs, args.Error(1)
}

type mockTodoStore struct{ mock.Mock }

func (m *mockTodoStore) ListRecurring(ctx context.Context) ([]model.Todo, error) {
	args := m.Called(ctx)
	todos, _ := args.Get(0).([]model.Todo)
	return todos, args.Error(1)
}

func (m *mockTodoStore) Create(ctx context.Context, t model.Todo, requestID, sourceID string) (*model.Todo, error) {
	args := m.Called(ctx, t, requestID, sourceID)
	created, _ := args.Get(0).(*model.Todo)
	return created, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

type mockDeduper struct{ mock.Mock }

func (m *mockDeduper) AcquireOnce(ctx context.Context, handler, key string) bool {
	return m.Called(ctx, handler, key).Bool(0)
}

func (m *mockDeduper) Release(ctx context.Context, handler, key string) {
	m.Called(ctx, handler, key)
}
