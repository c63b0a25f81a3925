package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/core/domain"
)

// envelope is the wire format shared by every published event.
type envelope struct {
	EventType  string         `json:"event_type"`
	AccountID  string         `json:"account_id"`
	OccurredOn time.Time      `json:"occurred_on"`
	TraceID    string         `json:"trace_id,omitempty"`
	Payload    map[string]any `json:"payload"`
}

// EventPublisher serializes domain events into Kafka topics named
// <prefix>.<event type>.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

func NewEventPublisher(producer *Producer, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, logger: logger}
}

// Publish sends a single event. Delivery is asynchronous; broker errors
// surface through the producer error drain.
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	payload, err := eventPayload(event)
	if err != nil {
		return err
	}

	env := envelope{
		EventType:  string(event.EventType()),
		AccountID:  event.AggregateID().String(),
		OccurredOn: event.OccurredOn().UTC(),
		Payload:    payload,
	}
	if span := trace.SpanContextFromContext(ctx); span.HasTraceID() {
		env.TraceID = span.TraceID().String()
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(string(event.EventType())),
		Key:   sarama.StringEncoder(event.AggregateID().String()),
		Value: sarama.ByteEncoder(body),
	}

	select {
	case p.producer.Input() <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.Debug("event enqueued",
		zap.String("event_type", string(event.EventType())),
		zap.String("account_id", env.AccountID),
	)
	return nil
}

// PublishBatch sends events in order, stopping at the first failure.
func (p *EventPublisher) PublishBatch(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func eventPayload(event domain.DomainEvent) (map[string]any, error) {
	switch e := event.(type) {
	case domain.AccountRegisteredEvent:
		return map[string]any{
			"email":         e.Email,
			"login":         e.Login,
			"registered_at": e.RegisteredAt.UTC(),
		}, nil
	case domain.AccountDeletedEvent:
		return map[string]any{
			"deleted_at": e.DeletedAt.UTC(),
		}, nil
	case domain.AccountStatusChangedEvent:
		return map[string]any{
			"old_status": string(e.OldStatus),
			"new_status": string(e.NewStatus),
		}, nil
	case domain.EmailUpdatedEvent:
		return map[string]any{
			"old_email": e.OldEmail,
			"new_email": e.NewEmail,
		}, nil
	case domain.LoginUpdatedEvent:
		return map[string]any{
			"old_login": e.OldLogin,
			"new_login": e.NewLogin,
		}, nil
	case domain.PasswordUpdatedEvent:
		return map[string]any{}, nil
	case domain.OAuthBoundEvent:
		return map[string]any{
			"provider": e.ProviderName,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type %T", event)
	}
}
