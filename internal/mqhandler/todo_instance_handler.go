package mqhandler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	contractsmq "goalengine/contracts/mq"
	"goalengine/internal/service"
	"goalengine/pkg/logger"
)

type TodoInstanceHandler struct {
	todos     service.TodoStore
	publisher service.Publisher
	logger    *zap.Logger
}

func NewTodoInstanceHandler(todos service.TodoStore, publisher service.Publisher, logger *zap.Logger) *TodoInstanceHandler {
	return &TodoInstanceHandler{
		todos:     todos,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *TodoInstanceHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p contractsmq.TodoInstanceRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal TodoInstanceRequestedPayload", zap.Error(err))
		return nil
	}

	log = log.With(
		zap.String("request_id", p.RequestID),
		zap.String("source_todo_id", p.SourceTodoID),
	)
	if p.RequestID == "" || p.Todo.Deadline == nil {
		log.Error("Dropping malformed todo instance request")
		return nil
	}

	created, err := h.todos.Create(ctx, p.Todo, p.RequestID, p.SourceTodoID)
	if err != nil {
		return classify(log, "create todo instance", err)
	}

	log.Info("Todo instance created",
		zap.String("todo_id", created.ID),
		zap.Time("deadline", *p.Todo.Deadline),
	)

	if h.publisher != nil {
		event := contractsmq.InstanceCreatedPayload{
			RequestID: p.RequestID,
			SourceID:  p.SourceTodoID,
			NewID:     created.ID,
			UserID:    created.UserID,
			StartDate: p.Todo.Deadline.Format(time.DateOnly),
		}
		if err := h.publisher.PublishWithContext(ctx, contractsmq.TodoInstanceCreated, event); err != nil {
			log.Warn("Failed to publish todo.instance.created", zap.Error(err))
		}
	}
	return nil
}
