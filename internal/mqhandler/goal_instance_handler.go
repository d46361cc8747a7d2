package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	contractsmq "goalengine/contracts/mq"
	"goalengine/internal/service"
	"goalengine/pkg/logger"
	"goalengine/pkg/util"
)

// GoalInstanceHandler persists goals requested by the recurrence sweep.
type GoalInstanceHandler struct {
	goals     service.GoalStore
	publisher service.Publisher
	logger    *zap.Logger
}

// NewGoalInstanceHandler creates the handler. publisher may be nil, in which
// case no goal.instance.created event is emitted.
func NewGoalInstanceHandler(goals service.GoalStore, publisher service.Publisher, logger *zap.Logger) *GoalInstanceHandler {
	return &GoalInstanceHandler{
		goals:     goals,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *GoalInstanceHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p contractsmq.GoalInstanceRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal GoalInstanceRequestedPayload", zap.Error(err))
		return nil
	}

	log = log.With(
		zap.String("request_id", p.RequestID),
		zap.String("source_goal_id", p.SourceGoalID),
	)
	log.Info("Handling goal.instance.requested event",
		zap.Int("user_id", p.Goal.UserID),
		zap.String("start_date", p.Goal.StartDate.Format(time.DateOnly)),
	)

	if p.RequestID == "" {
		log.Error("Dropping goal instance request without request_id")
		return nil
	}
	if err := p.Goal.Validate(); err != nil {
		log.Error("Dropping invalid goal instance", zap.Error(err))
		return nil
	}

	// 幂等性由 request_id 唯一约束保证
	created, err := h.goals.Create(ctx, p.Goal, p.RequestID, p.SourceGoalID)
	if err != nil {
		return classify(log, "create goal instance", err)
	}

	log.Info("Goal instance created", zap.String("goal_id", created.ID))

	if h.publisher != nil {
		event := contractsmq.InstanceCreatedPayload{
			RequestID: p.RequestID,
			SourceID:  p.SourceGoalID,
			NewID:     created.ID,
			UserID:    created.UserID,
			StartDate: created.StartDate.Format(time.DateOnly),
		}
		if err := h.publisher.PublishWithContext(ctx, contractsmq.GoalInstanceCreated, event); err != nil {
			log.Warn("Failed to publish goal.instance.created", zap.Error(err))
		}
	}
	return nil
}

// classify returns err for retryable failures so the message is requeued,
// and nil (ack) for failures a retry cannot fix.
func classify(log *zap.Logger, op string, err error) error {
	retryable, kind := util.IsRetryableError(err)
	if !retryable {
		log.Error("Non-retryable error, acking message",
			zap.String("op", op),
			zap.String("error_type", kind),
			zap.Error(err),
		)
		return nil
	}
	log.Warn("Retryable error, requeueing message",
		zap.String("op", op),
		zap.String("error_type", kind),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w", op, err)
}
