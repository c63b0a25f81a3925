package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
)

// DeletedAccountRepository persists account tombstones during the restore
// grace period.
type DeletedAccountRepository interface {
	Save(ctx context.Context, tombstone domain.DeletedAccount) error
	FindByOriginalUUID(ctx context.Context, id uuid.UUID) (*domain.DeletedAccount, error)
	Delete(ctx context.Context, tombstone domain.DeletedAccount) error
	FindAccountsToPurge(ctx context.Context, purgeBefore time.Time) ([]domain.DeletedAccount, error)
	ExistsByOriginalEmail(ctx context.Context, email string) (bool, error)
	ExistsByOriginalLogin(ctx context.Context, login string) (bool, error)
}
