package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/core/domain"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) Publish(_ context.Context, event domain.DomainEvent) error {
	payload, err := eventPayload(event)
	if err != nil {
		return err
	}

	p.logger.Info("stub event published",
		zap.String("event_type", string(event.EventType())),
		zap.String("account_id", event.AggregateID().String()),
		zap.Time("occurred_on", event.OccurredOn().UTC()),
		zap.Any("payload", payload),
	)
	return nil
}

func (p *StubPublisher) PublishBatch(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
