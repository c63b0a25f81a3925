package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/repository"
)

func newAccountMock(t *testing.T) (pgxmock.PgxPoolIface, *AccountRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewAccountRepository(mock)
}

func accountRow(id uuid.UUID, registeredAt time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"uuid", "login", "email", "password_hash", "status",
		"registered_at", "last_login_at", "email_verified",
	}).AddRow(id, "tester", "tester@example.com", "$argon2id$stub", "active", registeredAt, nil, true)
}

func emptyProviderRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "provider_name", "provider_user_id", "linked_at"})
}

func TestAccountRepositoryFindByUUID(t *testing.T) {
	mock, repo := newAccountMock(t)

	id := uuid.New()
	registeredAt := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`SELECT uuid, login, email, password_hash, status, registered_at, last_login_at, email_verified FROM accounts WHERE uuid = \$1`).
		WithArgs(id.String()).
		WillReturnRows(accountRow(id, registeredAt))
	mock.ExpectQuery(`SELECT id, provider_name, provider_user_id, linked_at FROM oauth_providers WHERE account_uuid = \$1 ORDER BY linked_at`).
		WithArgs(id.String()).
		WillReturnRows(emptyProviderRows())

	account, err := repo.FindByUUID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByUUID returned error: %v", err)
	}

	if account.UUID != id {
		t.Fatalf("hydrated UUID %q, want %q", account.UUID, id)
	}
	if account.Login.String() != "tester" || account.Email.String() != "tester@example.com" {
		t.Fatalf("hydrated identity %q / %q", account.Login.String(), account.Email.String())
	}
	if account.Status != domain.AccountStatusActive || !account.EmailVerified {
		t.Fatalf("hydrated state %v / %v", account.Status, account.EmailVerified)
	}
	if !account.HasPassword() {
		t.Fatal("the password hash must be hydrated")
	}
	if account.LastLoginAt != nil {
		t.Fatal("a NULL last_login_at must hydrate as nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepositoryFindByUUIDNotFound(t *testing.T) {
	mock, repo := newAccountMock(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE uuid = \$1`).
		WithArgs(id.String()).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByUUID(context.Background(), id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected %v, got %v", repository.ErrNotFound, err)
	}
}

func TestAccountRepositoryFindByOAuthProvider(t *testing.T) {
	mock, repo := newAccountMock(t)

	id := uuid.New()
	registeredAt := time.Now().Add(-time.Hour)
	linkedAt := time.Now().Add(-30 * time.Minute)

	mock.ExpectQuery(`SELECT account_uuid FROM oauth_providers`).
		WillReturnRows(pgxmock.NewRows([]string{"account_uuid"}).AddRow(id))
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE uuid = \$1`).
		WithArgs(id.String()).
		WillReturnRows(accountRow(id, registeredAt))
	mock.ExpectQuery(`SELECT id, provider_name, provider_user_id, linked_at FROM oauth_providers`).
		WithArgs(id.String()).
		WillReturnRows(emptyProviderRows().AddRow(int64(7), "github", "gh-123", linkedAt))

	account, err := repo.FindByOAuthProvider(context.Background(), "github", "gh-123")
	if err != nil {
		t.Fatalf("FindByOAuthProvider returned error: %v", err)
	}
	if len(account.OAuthProviders) != 1 || account.OAuthProviders[0].ProviderName != "github" {
		t.Fatalf("hydrated providers: %+v", account.OAuthProviders)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepositoryExistsByEmail(t *testing.T) {
	mock, repo := newAccountMock(t)

	email, err := domain.NewEmail("tester@example.com")
	if err != nil {
		t.Fatalf("new email: %v", err)
	}

	mock.ExpectQuery(`SELECT 1 FROM accounts WHERE email = \$1 LIMIT 1`).
		WithArgs("tester@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("ExistsByEmail returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected the email to exist")
	}

	mock.ExpectQuery(`SELECT 1 FROM accounts WHERE email = \$1 LIMIT 1`).
		WithArgs("tester@example.com").
		WillReturnError(pgx.ErrNoRows)

	exists, err = repo.ExistsByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("ExistsByEmail returned error: %v", err)
	}
	if exists {
		t.Fatal("no rows must read as absent")
	}
}

func TestAccountRepositorySaveUpsertsAndRewritesProviders(t *testing.T) {
	mock, repo := newAccountMock(t)

	login, _ := domain.NewLogin("oauthling")
	email, _ := domain.NewEmail("oauthling@example.com")
	provider, err := domain.NewOAuthProvider("github", "gh-123")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	account, err := domain.NewOAuthAccount(login, email, provider)
	if err != nil {
		t.Fatalf("new oauth account: %v", err)
	}

	mock.ExpectExec(`INSERT INTO accounts .+ ON CONFLICT \(uuid\) DO UPDATE`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM oauth_providers WHERE account_uuid = \$1`).
		WithArgs(account.UUID.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO oauth_providers \(account_uuid,provider_name,provider_user_id,linked_at\)`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Save(context.Background(), account); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepositoryDelete(t *testing.T) {
	mock, repo := newAccountMock(t)

	account := &domain.Account{UUID: uuid.New()}
	mock.ExpectExec(`DELETE FROM accounts WHERE uuid = \$1`).
		WithArgs(account.UUID.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Delete(context.Background(), account); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
