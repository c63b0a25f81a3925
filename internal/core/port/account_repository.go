package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
)

// AccountRepository exposes durable persistence for the account aggregate.
// Missing rows surface as repository.ErrNotFound.
type AccountRepository interface {
	Save(ctx context.Context, account *domain.Account) error
	FindByUUID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	FindByEmail(ctx context.Context, email domain.Email) (*domain.Account, error)
	FindByLogin(ctx context.Context, login domain.Login) (*domain.Account, error)
	FindByOAuthProvider(ctx context.Context, providerName, providerUserID string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email domain.Email) (bool, error)
	ExistsByLogin(ctx context.Context, login domain.Login) (bool, error)
	Delete(ctx context.Context, account *domain.Account) error
	FindAccountsToDelete(ctx context.Context, deleteBefore time.Time) ([]*domain.Account, error)
}
