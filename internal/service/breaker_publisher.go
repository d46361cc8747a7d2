package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"goalengine/pkg/circuitbreaker"
	"goalengine/pkg/logger"
)

// BreakerPublisher stops calling the broker after repeated publish failures
// so the remainder of a sweep fails fast instead of timing out per record.
type BreakerPublisher struct {
	next    Publisher
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
}

func NewBreakerPublisher(next Publisher, breaker *circuitbreaker.Breaker, logger *zap.Logger) *BreakerPublisher {
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.DefaultConfig())
	}
	return &BreakerPublisher{next: next, breaker: breaker, logger: logger}
}

func (p *BreakerPublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	err := p.breaker.Execute(func() error {
		return p.next.PublishWithContext(ctx, routingKey, payload)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		logger.WithTrace(ctx, p.logger).Warn("Publish skipped, circuit open",
			zap.String("routing_key", routingKey),
		)
	}
	return err
}
