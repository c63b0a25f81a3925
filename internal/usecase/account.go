package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/infra/logger"
	"github.com/klabs/account-service/internal/repository"
)

// AccountService covers account self-management: identity updates, password
// changes, lifecycle transitions, deletion, and the tombstone purge sweep.
type AccountService struct {
	accounts        port.AccountRepository
	deletedAccounts port.DeletedAccountRepository
	auditLogs       port.AuditLogRepository
	cache           port.Cache
	email           port.EmailSender
	events          port.EventPublisher
	validator       *AccountValidator
	hasher          domain.PasswordHasher
	log             *zap.Logger
}

// NewAccountService constructs the account management service.
func NewAccountService(
	accounts port.AccountRepository,
	deletedAccounts port.DeletedAccountRepository,
	auditLogs port.AuditLogRepository,
	cache port.Cache,
	email port.EmailSender,
	events port.EventPublisher,
	validator *AccountValidator,
	hasher domain.PasswordHasher,
	log *zap.Logger,
) *AccountService {
	return &AccountService{
		accounts:        accounts,
		deletedAccounts: deletedAccounts,
		auditLogs:       auditLogs,
		cache:           cache,
		email:           email,
		events:          events,
		validator:       validator,
		hasher:          hasher,
		log:             log,
	}
}

// UpdateEmail replaces the account email after a uniqueness check. The
// verified flag resets; a change notification goes to the old address.
func (s *AccountService) UpdateEmail(ctx context.Context, accountUUID uuid.UUID, newEmailStr, ipAddress, userAgent string) (AccountDTO, error) {
	newEmail, err := domain.NewEmail(newEmailStr)
	if err != nil {
		return AccountDTO{}, err
	}

	account, err := s.loadAccount(ctx, accountUUID)
	if err != nil {
		return AccountDTO{}, err
	}

	oldEmail := account.Email.String()
	if oldEmail == newEmail.String() {
		return NewAccountDTO(account), nil
	}

	if err := s.validator.ValidateEmailUpdate(ctx, accountUUID, newEmail); err != nil {
		return AccountDTO{}, err
	}

	account.UpdateEmail(newEmail)
	if err := s.accounts.Save(ctx, account); err != nil {
		return AccountDTO{}, fmt.Errorf("persist account: %w", err)
	}

	if err := s.events.Publish(ctx, domain.NewEmailUpdatedEvent(account.UUID, oldEmail, newEmail.String())); err != nil {
		s.log.Warn("publish email updated event failed", zap.Error(err))
	}

	if audit, err := domain.EmailUpdatedAudit(account.UUID, oldEmail, newEmail.String(), ipAddress, userAgent); err == nil {
		s.appendAudit(ctx, audit)
	}

	if err := s.email.SendEmailChangeNotification(ctx, oldEmail, newEmail.String()); err != nil {
		s.log.Warn("send email change notification failed",
			zap.String("old_email", logger.MaskEmail(oldEmail)),
			zap.Error(err),
		)
	}

	return NewAccountDTO(account), nil
}

// UpdateLogin replaces the account login after a uniqueness check.
func (s *AccountService) UpdateLogin(ctx context.Context, accountUUID uuid.UUID, newLoginStr, ipAddress, userAgent string) (AccountDTO, error) {
	newLogin, err := domain.NewLogin(newLoginStr)
	if err != nil {
		return AccountDTO{}, err
	}

	account, err := s.loadAccount(ctx, accountUUID)
	if err != nil {
		return AccountDTO{}, err
	}

	oldLogin := account.Login.String()
	if oldLogin == newLogin.String() {
		return NewAccountDTO(account), nil
	}

	if err := s.validator.ValidateLoginUpdate(ctx, accountUUID, newLogin); err != nil {
		return AccountDTO{}, err
	}

	account.UpdateLogin(newLogin)
	if err := s.accounts.Save(ctx, account); err != nil {
		return AccountDTO{}, fmt.Errorf("persist account: %w", err)
	}

	if err := s.events.Publish(ctx, domain.NewLoginUpdatedEvent(account.UUID, oldLogin, newLogin.String())); err != nil {
		s.log.Warn("publish login updated event failed", zap.Error(err))
	}

	if audit, err := domain.LoginUpdatedAudit(account.UUID, oldLogin, newLogin.String(), ipAddress, userAgent); err == nil {
		s.appendAudit(ctx, audit)
	}

	return NewAccountDTO(account), nil
}

// ChangePassword verifies the old password against the stored credential and
// replaces it with a policy-checked new one.
func (s *AccountService) ChangePassword(ctx context.Context, accountUUID uuid.UUID, oldPlain, newPlain, ipAddress, userAgent string) error {
	account, err := s.loadAccount(ctx, accountUUID)
	if err != nil {
		return err
	}

	newPassword, err := domain.PasswordFromPlainText(newPlain, s.hasher)
	if err != nil {
		return err
	}

	if err := account.ChangePassword(oldPlain, newPassword, s.hasher); err != nil {
		return err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}

	if err := s.events.Publish(ctx, domain.NewPasswordUpdatedEvent(account.UUID)); err != nil {
		s.log.Warn("publish password updated event failed", zap.Error(err))
	}

	if audit, err := domain.PasswordChangedAudit(account.UUID, ipAddress, userAgent); err == nil {
		s.appendAudit(ctx, audit)
	}

	return nil
}

// Suspend moves the account to suspended and publishes the status change.
func (s *AccountService) Suspend(ctx context.Context, accountUUID uuid.UUID) error {
	return s.transition(ctx, accountUUID, (*domain.Account).Suspend)
}

// Activate moves a suspended account back to active.
func (s *AccountService) Activate(ctx context.Context, accountUUID uuid.UUID) error {
	return s.transition(ctx, accountUUID, (*domain.Account).Activate)
}

// DeleteAccount marks the account deleted, writes its tombstone, and
// publishes AccountDeleted. The account row stays (status deleted) until the
// purge sweep removes it; the tombstone reserves the login/email namespace.
func (s *AccountService) DeleteAccount(ctx context.Context, accountUUID uuid.UUID, ipAddress, userAgent string) error {
	account, err := s.loadAccount(ctx, accountUUID)
	if err != nil {
		return err
	}
	if !account.Status.CanBeDeleted() {
		return ErrAccountDeleted
	}

	tombstone, err := domain.NewDeletedAccount(account)
	if err != nil {
		return err
	}

	account.MarkAsDeleted()
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}
	if err := s.deletedAccounts.Save(ctx, tombstone); err != nil {
		return fmt.Errorf("persist tombstone: %w", err)
	}

	if err := s.events.Publish(ctx, domain.NewAccountDeletedEvent(account.UUID, tombstone.DeletedAt)); err != nil {
		s.log.Warn("publish account deleted event failed", zap.Error(err))
	}

	if audit, err := domain.NewAuditLog(account.UUID, domain.AuditActionAccountDeleted, ipAddress, userAgent, nil); err == nil {
		s.appendAudit(ctx, audit)
	}

	return nil
}

// ListSessions returns the raw session records cached for the account.
func (s *AccountService) ListSessions(ctx context.Context, accountUUID uuid.UUID) ([]string, error) {
	sessions, err := s.cache.GetActiveSessions(ctx, accountUUID.String())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// PurgeExpiredTombstones removes tombstones whose purge timestamp has
// arrived, together with their deleted account rows. Meant to be driven by an
// external scheduler.
func (s *AccountService) PurgeExpiredTombstones(ctx context.Context) (int, error) {
	tombstones, err := s.deletedAccounts.FindAccountsToPurge(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("find tombstones to purge: %w", err)
	}

	purged := 0
	for _, tombstone := range tombstones {
		if !tombstone.ShouldBePurged() {
			continue
		}

		account, err := s.accounts.FindByUUID(ctx, tombstone.OriginalUUID)
		if err == nil {
			if err := s.accounts.Delete(ctx, account); err != nil {
				s.log.Warn("delete account row failed", zap.String("account_uuid", tombstone.OriginalUUID.String()), zap.Error(err))
				continue
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("lookup account for purge failed", zap.String("account_uuid", tombstone.OriginalUUID.String()), zap.Error(err))
			continue
		}

		if err := s.deletedAccounts.Delete(ctx, tombstone); err != nil {
			s.log.Warn("delete tombstone failed", zap.String("account_uuid", tombstone.OriginalUUID.String()), zap.Error(err))
			continue
		}
		purged++
	}

	return purged, nil
}

func (s *AccountService) transition(ctx context.Context, accountUUID uuid.UUID, mutate func(*domain.Account)) error {
	account, err := s.loadAccount(ctx, accountUUID)
	if err != nil {
		return err
	}

	oldStatus := account.Status
	mutate(account)
	if account.Status == oldStatus {
		return nil
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}

	if err := s.events.Publish(ctx, domain.NewAccountStatusChangedEvent(account.UUID, oldStatus, account.Status)); err != nil {
		s.log.Warn("publish status changed event failed", zap.Error(err))
	}

	return nil
}

func (s *AccountService) loadAccount(ctx context.Context, accountUUID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.FindByUUID(ctx, accountUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

func (s *AccountService) appendAudit(ctx context.Context, audit domain.AuditLog) {
	if err := s.auditLogs.Save(ctx, audit); err != nil {
		s.log.Warn("append audit log failed", zap.String("action", audit.Action), zap.Error(err))
	}
}
