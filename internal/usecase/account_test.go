package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/repository"
)

type accountFixture struct {
	service  *AccountService
	accounts *mockAccountRepository
	deleted  *mockDeletedAccountRepository
	audits   *mockAuditLogRepository
	cache    *mockCache
	email    *mockEmailSender
	events   *mockEventPublisher
}

func newAccountFixture() *accountFixture {
	accounts := &mockAccountRepository{}
	deleted := &mockDeletedAccountRepository{}
	audits := &mockAuditLogRepository{}
	cache := newMockCache()
	email := &mockEmailSender{}
	events := &mockEventPublisher{}
	validator := NewAccountValidator(accounts, deleted)

	return &accountFixture{
		service:  NewAccountService(accounts, deleted, audits, cache, email, events, validator, testHasher(), zap.NewNop()),
		accounts: accounts,
		deleted:  deleted,
		audits:   audits,
		cache:    cache,
		email:    email,
		events:   events,
	}
}

func TestUpdateEmailPersistsAndNotifiesOldAddress(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account
	f.accounts.findByEmailErr = repository.ErrNotFound

	dto, err := f.service.UpdateEmail(context.Background(), account.UUID, "fresh@example.com", "203.0.113.7", "cli/1.0")
	if err != nil {
		t.Fatalf("UpdateEmail returned error: %v", err)
	}

	if f.accounts.saveCalls != 1 {
		t.Fatalf("expected 1 save, got %d", f.accounts.saveCalls)
	}
	saved := f.accounts.savedAccounts[0]
	if saved.Email.String() != "fresh@example.com" {
		t.Fatalf("saved email is %q", saved.Email.String())
	}
	if saved.EmailVerified {
		t.Fatal("a changed email must drop the verified flag")
	}
	if dto.Email != "fresh@example.com" || dto.EmailVerified {
		t.Fatalf("unexpected projection: %+v", dto)
	}

	if f.events.lastEventType() != domain.EventEmailUpdated {
		t.Fatalf("expected EmailUpdated event, got %q", f.events.lastEventType())
	}
	if f.audits.lastAction() != domain.AuditActionEmailUpdated {
		t.Fatalf("expected EMAIL_UPDATED audit, got %q", f.audits.lastAction())
	}

	if f.email.changeNotificationCalls != 1 {
		t.Fatalf("expected 1 change notification, got %d", f.email.changeNotificationCalls)
	}
	if f.email.lastOldEmail != "tester@example.com" || f.email.lastNewEmail != "fresh@example.com" {
		t.Fatalf("notification pair was %q -> %q", f.email.lastOldEmail, f.email.lastNewEmail)
	}
}

func TestUpdateEmailSameAddressIsNoOp(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account

	dto, err := f.service.UpdateEmail(context.Background(), account.UUID, "Tester@Example.com", "", "")
	if err != nil {
		t.Fatalf("UpdateEmail returned error: %v", err)
	}

	if f.accounts.saveCalls != 0 {
		t.Fatal("an unchanged email must not be persisted")
	}
	if len(f.events.published) != 0 || f.email.changeNotificationCalls != 0 {
		t.Fatal("an unchanged email must publish and notify nothing")
	}
	if !dto.EmailVerified {
		t.Fatal("the verified flag must be retained")
	}
}

func TestUpdateEmailRejectsTaken(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	other := verifiedAccount(t)
	f.accounts.findByUUIDResult = account
	f.accounts.findByEmailResult = other

	_, err := f.service.UpdateEmail(context.Background(), account.UUID, "fresh@example.com", "", "")
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected %v, got %v", ErrEmailAlreadyExists, err)
	}
	if f.accounts.saveCalls != 0 {
		t.Fatal("a conflicting email must not be persisted")
	}
}

func TestUpdateLoginPersists(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account
	f.accounts.findByLoginErr = repository.ErrNotFound

	dto, err := f.service.UpdateLogin(context.Background(), account.UUID, "renamed", "203.0.113.7", "cli/1.0")
	if err != nil {
		t.Fatalf("UpdateLogin returned error: %v", err)
	}

	if dto.Login != "renamed" {
		t.Fatalf("unexpected login %q", dto.Login)
	}
	if f.accounts.saveCalls != 1 || f.accounts.savedAccounts[0].Login.String() != "renamed" {
		t.Fatal("the new login must be persisted")
	}
	if f.events.lastEventType() != domain.EventLoginUpdated {
		t.Fatalf("expected LoginUpdated event, got %q", f.events.lastEventType())
	}
	if f.audits.lastAction() != domain.AuditActionLoginUpdated {
		t.Fatalf("expected LOGIN_UPDATED audit, got %q", f.audits.lastAction())
	}
}

func TestUpdateLoginRejectsTombstoneNamespace(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account
	f.accounts.findByLoginErr = repository.ErrNotFound
	f.deleted.existsByLoginResult = true

	_, err := f.service.UpdateLogin(context.Background(), account.UUID, "ghost", "", "")
	if !errors.Is(err, ErrLoginAlreadyExists) {
		t.Fatalf("expected %v, got %v", ErrLoginAlreadyExists, err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account

	const newPassword = "N3w!Password#77"
	if err := f.service.ChangePassword(context.Background(), account.UUID, currentPassword, newPassword, "203.0.113.7", "cli/1.0"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if f.accounts.saveCalls != 1 {
		t.Fatalf("expected 1 save, got %d", f.accounts.saveCalls)
	}
	ok, err := testHasher().Verify(newPassword, f.accounts.savedAccounts[0].Password.Hash())
	if err != nil || !ok {
		t.Fatalf("saved credential does not verify the new password: ok=%v err=%v", ok, err)
	}

	if f.events.lastEventType() != domain.EventPasswordUpdated {
		t.Fatalf("expected PasswordUpdated event, got %q", f.events.lastEventType())
	}
	if f.audits.lastAction() != domain.AuditActionPasswordChanged {
		t.Fatalf("expected PASSWORD_CHANGED audit, got %q", f.audits.lastAction())
	}
}

func TestChangePasswordRejectsWrongOld(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account

	err := f.service.ChangePassword(context.Background(), account.UUID, "NotTheOldOne9", "N3w!Password#77", "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected %v, got %v", domain.ErrInvalidCredentials, err)
	}
	if f.accounts.saveCalls != 0 {
		t.Fatal("a rejected change must not be persisted")
	}
}

func TestChangePasswordEnforcesPolicy(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account

	err := f.service.ChangePassword(context.Background(), account.UUID, currentPassword, "Sh0rt", "", "")
	if !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Fatalf("expected %v, got %v", domain.ErrPasswordTooShort, err)
	}
}

func TestSuspendPublishesStatusChange(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account

	if err := f.service.Suspend(context.Background(), account.UUID); err != nil {
		t.Fatalf("Suspend returned error: %v", err)
	}

	if f.accounts.saveCalls != 1 || f.accounts.savedAccounts[0].Status != domain.AccountStatusSuspended {
		t.Fatal("the suspended status must be persisted")
	}
	if f.events.lastEventType() != domain.EventAccountStatusChanged {
		t.Fatalf("expected AccountStatusChanged event, got %q", f.events.lastEventType())
	}
}

func TestSuspendTwiceIsNoOp(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	account.Suspend()
	f.accounts.findByUUIDResult = account

	if err := f.service.Suspend(context.Background(), account.UUID); err != nil {
		t.Fatalf("Suspend returned error: %v", err)
	}
	if f.accounts.saveCalls != 0 || len(f.events.published) != 0 {
		t.Fatal("an unchanged status must persist and publish nothing")
	}
}

func TestActivateRestoresSuspendedAccount(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	account.Suspend()
	f.accounts.findByUUIDResult = account

	if err := f.service.Activate(context.Background(), account.UUID); err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if f.accounts.saveCalls != 1 || f.accounts.savedAccounts[0].Status != domain.AccountStatusActive {
		t.Fatal("the active status must be persisted")
	}
}

func TestDeleteAccountWritesTombstone(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.accounts.findByUUIDResult = account

	if err := f.service.DeleteAccount(context.Background(), account.UUID, "203.0.113.7", "cli/1.0"); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}

	if f.accounts.saveCalls != 1 || f.accounts.savedAccounts[0].Status != domain.AccountStatusDeleted {
		t.Fatal("the deleted status must be persisted")
	}

	if f.deleted.saveCalls != 1 {
		t.Fatalf("expected 1 tombstone, got %d", f.deleted.saveCalls)
	}
	tombstone := f.deleted.savedTombstone
	if tombstone.OriginalUUID != account.UUID {
		t.Fatalf("tombstone for %q, account is %q", tombstone.OriginalUUID, account.UUID)
	}
	if tombstone.OriginalLogin != "tester" || tombstone.OriginalEmail != "tester@example.com" {
		t.Fatal("the tombstone must reserve the identity namespace")
	}
	if !tombstone.PurgeAt.Equal(tombstone.DeletedAt.Add(domain.DeletedAccountRetention)) {
		t.Fatalf("purge must follow deletion by the retention window, got %v", tombstone.PurgeAt.Sub(tombstone.DeletedAt))
	}
	if !strings.Contains(tombstone.AccountDataJSON, "tester@example.com") {
		t.Fatal("the tombstone must snapshot the account state")
	}

	if f.events.lastEventType() != domain.EventAccountDeleted {
		t.Fatalf("expected AccountDeleted event, got %q", f.events.lastEventType())
	}
	if f.audits.lastAction() != domain.AuditActionAccountDeleted {
		t.Fatalf("expected ACCOUNT_DELETED audit, got %q", f.audits.lastAction())
	}
}

func TestDeleteAccountIsTerminal(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	account.MarkAsDeleted()
	f.accounts.findByUUIDResult = account

	err := f.service.DeleteAccount(context.Background(), account.UUID, "", "")
	if !errors.Is(err, ErrAccountDeleted) {
		t.Fatalf("expected %v, got %v", ErrAccountDeleted, err)
	}
	if f.deleted.saveCalls != 0 {
		t.Fatal("no tombstone may be written twice")
	}
}

func TestListSessions(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	f.cache.activeSessionsResult = []string{`{"sessionId":"s-1"}`, `{"sessionId":"s-2"}`}

	sessions, err := f.service.ListSessions(context.Background(), account.UUID)
	if err != nil {
		t.Fatalf("ListSessions returned error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestPurgeExpiredTombstones(t *testing.T) {
	f := newAccountFixture()
	account := verifiedAccount(t)
	account.MarkAsDeleted()
	f.accounts.findByUUIDResult = account

	expired := domain.DeletedAccount{
		OriginalUUID:  account.UUID,
		OriginalLogin: "tester",
		OriginalEmail: "tester@example.com",
		DeletedAt:     time.Now().Add(-domain.DeletedAccountRetention - time.Hour),
		PurgeAt:       time.Now().Add(-time.Hour),
	}
	f.deleted.findToPurgeResult = []domain.DeletedAccount{expired}

	purged, err := f.service.PurgeExpiredTombstones(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpiredTombstones returned error: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged tombstone, got %d", purged)
	}

	if f.accounts.deleteCalls != 1 || f.accounts.deletedUUIDs[0] != account.UUID {
		t.Fatal("the deleted account row must be removed")
	}
	if f.deleted.deleteCalls != 1 || f.deleted.deletedUUIDs[0] != account.UUID {
		t.Fatal("the tombstone must be removed")
	}
}

func TestPurgeExpiredTombstonesSkipsMissingRows(t *testing.T) {
	f := newAccountFixture()
	f.accounts.findByUUIDErr = repository.ErrNotFound

	expired := domain.DeletedAccount{
		OriginalUUID: verifiedAccount(t).UUID,
		DeletedAt:    time.Now().Add(-domain.DeletedAccountRetention - time.Hour),
		PurgeAt:      time.Now().Add(-time.Hour),
	}
	f.deleted.findToPurgeResult = []domain.DeletedAccount{expired}

	purged, err := f.service.PurgeExpiredTombstones(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpiredTombstones returned error: %v", err)
	}
	if purged != 1 {
		t.Fatalf("a tombstone without an account row still purges, got %d", purged)
	}
	if f.accounts.deleteCalls != 0 {
		t.Fatal("no account delete may be attempted for a missing row")
	}
	if f.deleted.deleteCalls != 1 {
		t.Fatal("the tombstone must still be removed")
	}
}

func TestAccountOperationsUnknownAccount(t *testing.T) {
	f := newAccountFixture()
	f.accounts.findByUUIDErr = repository.ErrNotFound
	id := verifiedAccount(t).UUID

	if _, err := f.service.UpdateEmail(context.Background(), id, "fresh@example.com", "", ""); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("UpdateEmail: expected %v, got %v", ErrAccountNotFound, err)
	}
	if err := f.service.ChangePassword(context.Background(), id, currentPassword, "N3w!Password#77", "", ""); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("ChangePassword: expected %v, got %v", ErrAccountNotFound, err)
	}
	if err := f.service.DeleteAccount(context.Background(), id, "", ""); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("DeleteAccount: expected %v, got %v", ErrAccountNotFound, err)
	}
}
