package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/repository"
)

// ValidationService answers token validity and identifier availability
// questions for other services.
type ValidationService struct {
	accounts        port.AccountRepository
	deletedAccounts port.DeletedAccountRepository
	cache           port.Cache
	tokens          port.TokenIssuer
}

// NewValidationService constructs the validation service.
func NewValidationService(
	accounts port.AccountRepository,
	deletedAccounts port.DeletedAccountRepository,
	cache port.Cache,
	tokens port.TokenIssuer,
) *ValidationService {
	return &ValidationService{
		accounts:        accounts,
		deletedAccounts: deletedAccounts,
		cache:           cache,
		tokens:          tokens,
	}
}

// ValidateToken checks the token's signature and natural expiry, then the
// revocation cache, then the owning account's lifecycle state. A structurally
// valid but revoked token fails with ErrTokenExpired: the cache is the source
// of truth for pre-expiry invalidation.
func (s *ValidationService) ValidateToken(ctx context.Context, tokenStr string) (AccountDTO, error) {
	token, err := s.tokens.ParseAndValidateToken(tokenStr)
	if err != nil {
		return AccountDTO{}, err
	}

	valid, err := s.cache.IsTokenValid(ctx, token.ID)
	if err != nil {
		return AccountDTO{}, fmt.Errorf("check token validity: %w", err)
	}
	if !valid {
		return AccountDTO{}, port.ErrTokenExpired
	}

	account, err := s.accounts.FindByUUID(ctx, token.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AccountDTO{}, ErrAccountNotFound
		}
		return AccountDTO{}, fmt.Errorf("lookup account: %w", err)
	}

	if !account.Status.CanBeDeleted() {
		return AccountDTO{}, ErrAccountDeleted
	}
	if account.Status == domain.AccountStatusSuspended {
		return AccountDTO{}, ErrAccountSuspended
	}

	return NewAccountDTO(account), nil
}

// CheckEmailAvailability reports whether the email can be registered.
// Malformed input reads as unavailable rather than erroring.
func (s *ValidationService) CheckEmailAvailability(ctx context.Context, emailStr string) (bool, error) {
	email, err := domain.NewEmail(emailStr)
	if err != nil {
		return false, nil
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check email existence: %w", err)
	}
	if exists {
		return false, nil
	}

	deleted, err := s.deletedAccounts.ExistsByOriginalEmail(ctx, email.String())
	if err != nil {
		return false, fmt.Errorf("check deleted emails: %w", err)
	}

	return !deleted, nil
}

// CheckLoginAvailability reports whether the login can be registered.
func (s *ValidationService) CheckLoginAvailability(ctx context.Context, loginStr string) (bool, error) {
	login, err := domain.NewLogin(loginStr)
	if err != nil {
		return false, nil
	}

	exists, err := s.accounts.ExistsByLogin(ctx, login)
	if err != nil {
		return false, fmt.Errorf("check login existence: %w", err)
	}
	if exists {
		return false, nil
	}

	deleted, err := s.deletedAccounts.ExistsByOriginalLogin(ctx, login.String())
	if err != nil {
		return false, fmt.Errorf("check deleted logins: %w", err)
	}

	return !deleted, nil
}
