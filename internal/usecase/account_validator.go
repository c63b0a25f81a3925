package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
)

// AccountValidator centralizes cross-aggregate policy checks: registration
// and update uniqueness (including the tombstone namespace) and login gating.
type AccountValidator struct {
	accounts        port.AccountRepository
	deletedAccounts port.DeletedAccountRepository
}

// NewAccountValidator constructs the validation service.
func NewAccountValidator(accounts port.AccountRepository, deletedAccounts port.DeletedAccountRepository) *AccountValidator {
	return &AccountValidator{accounts: accounts, deletedAccounts: deletedAccounts}
}

// ValidateRegistration rejects emails and logins held by live accounts or by
// tombstones still inside the restore grace period.
func (v *AccountValidator) ValidateRegistration(ctx context.Context, email domain.Email, login domain.Login) error {
	taken, err := v.emailTaken(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailAlreadyExists
	}

	taken, err = v.loginTaken(ctx, login)
	if err != nil {
		return err
	}
	if taken {
		return ErrLoginAlreadyExists
	}

	return nil
}

// ValidateLoginUpdate rejects logins already held elsewhere. The account's
// own current login is allowed through.
func (v *AccountValidator) ValidateLoginUpdate(ctx context.Context, accountUUID uuid.UUID, newLogin domain.Login) error {
	existing, err := v.accounts.FindByLogin(ctx, newLogin)
	if err == nil && existing.UUID != accountUUID {
		return ErrLoginAlreadyExists
	}

	taken, err := v.deletedAccounts.ExistsByOriginalLogin(ctx, newLogin.String())
	if err != nil {
		return fmt.Errorf("check deleted logins: %w", err)
	}
	if taken {
		return ErrLoginAlreadyExists
	}

	return nil
}

// ValidateEmailUpdate rejects emails already held elsewhere.
func (v *AccountValidator) ValidateEmailUpdate(ctx context.Context, accountUUID uuid.UUID, newEmail domain.Email) error {
	existing, err := v.accounts.FindByEmail(ctx, newEmail)
	if err == nil && existing.UUID != accountUUID {
		return ErrEmailAlreadyExists
	}

	taken, err := v.deletedAccounts.ExistsByOriginalEmail(ctx, newEmail.String())
	if err != nil {
		return fmt.Errorf("check deleted emails: %w", err)
	}
	if taken {
		return ErrEmailAlreadyExists
	}

	return nil
}

// ValidateCanLogIn gates login on the lifecycle state: not deleted, not
// suspended, email verified.
func (v *AccountValidator) ValidateCanLogIn(account *domain.Account) error {
	switch {
	case account.Status == domain.AccountStatusDeleted:
		return ErrAccountDeleted
	case account.Status == domain.AccountStatusSuspended:
		return ErrAccountSuspended
	case !account.EmailVerified:
		return ErrEmailNotVerified
	}
	return nil
}

// ValidatePasswordLogIn checks the plaintext against the stored credential.
func (v *AccountValidator) ValidatePasswordLogIn(account *domain.Account, plainPassword string, hasher domain.PasswordHasher) error {
	if !account.HasPassword() {
		return domain.ErrPasswordNotSet
	}

	ok, err := hasher.Verify(plainPassword, account.Password.Hash())
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	return nil
}

func (v *AccountValidator) emailTaken(ctx context.Context, email domain.Email) (bool, error) {
	exists, err := v.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check email existence: %w", err)
	}
	if exists {
		return true, nil
	}

	exists, err = v.deletedAccounts.ExistsByOriginalEmail(ctx, email.String())
	if err != nil {
		return false, fmt.Errorf("check deleted emails: %w", err)
	}
	return exists, nil
}

func (v *AccountValidator) loginTaken(ctx context.Context, login domain.Login) (bool, error) {
	exists, err := v.accounts.ExistsByLogin(ctx, login)
	if err != nil {
		return false, fmt.Errorf("check login existence: %w", err)
	}
	if exists {
		return true, nil
	}

	exists, err = v.deletedAccounts.ExistsByOriginalLogin(ctx, login.String())
	if err != nil {
		return false, fmt.Errorf("check deleted logins: %w", err)
	}
	return exists, nil
}
