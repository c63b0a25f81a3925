package port

import (
	"context"

	"github.com/klabs/account-service/internal/core/domain"
)

// EventPublisher delivers domain events to the message bus with at-least-once
// semantics. The core neither retries nor dedupes.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
	PublishBatch(ctx context.Context, events []domain.DomainEvent) error
}
