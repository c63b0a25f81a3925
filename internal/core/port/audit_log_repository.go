package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
)

// AuditLogRepository appends and queries audit facts.
type AuditLogRepository interface {
	Save(ctx context.Context, log domain.AuditLog) error
	ListByAccount(ctx context.Context, accountUUID uuid.UUID, limit int) ([]domain.AuditLog, error)
}
