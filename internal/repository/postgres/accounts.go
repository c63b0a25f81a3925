package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/repository"
)

var accountColumns = []string{
	"uuid",
	"login",
	"email",
	"password_hash",
	"status",
	"registered_at",
	"last_login_at",
	"email_verified",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: statementBuilder(),
	}
}

// Save upserts the account row and rewrites its provider bindings.
func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	var passwordValue any
	if account.HasPassword() {
		passwordValue = account.Password.Hash()
	}

	stmt, args, err := r.builder.Insert("accounts").
		Columns(accountColumns...).
		Values(
			account.UUID,
			account.Login.String(),
			account.Email.String(),
			passwordValue,
			string(account.Status),
			account.RegisteredAt,
			account.LastLoginAt,
			account.EmailVerified,
		).
		Suffix(`ON CONFLICT (uuid) DO UPDATE SET
			login = EXCLUDED.login,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			status = EXCLUDED.status,
			last_login_at = EXCLUDED.last_login_at,
			email_verified = EXCLUDED.email_verified`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	return r.saveProviders(ctx, account)
}

func (r *AccountRepository) saveProviders(ctx context.Context, account *domain.Account) error {
	delStmt, delArgs, err := r.builder.Delete("oauth_providers").
		Where(squirrel.Eq{"account_uuid": account.UUID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete providers sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, delStmt, delArgs...); err != nil {
		return fmt.Errorf("delete providers: %w", err)
	}

	for _, provider := range account.OAuthProviders {
		insStmt, insArgs, err := r.builder.Insert("oauth_providers").
			Columns("account_uuid", "provider_name", "provider_user_id", "linked_at").
			Values(account.UUID, provider.ProviderName, provider.ProviderUserID, provider.LinkedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert provider sql: %w", err)
		}
		if _, err := r.exec.Exec(ctx, insStmt, insArgs...); err != nil {
			return fmt.Errorf("insert provider %s: %w", provider.ProviderName, err)
		}
	}

	return nil
}

// FindByUUID retrieves an account by identifier.
func (r *AccountRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.findOne(ctx, squirrel.Eq{"uuid": id})
}

// FindByEmail retrieves an account by email address.
func (r *AccountRepository) FindByEmail(ctx context.Context, email domain.Email) (*domain.Account, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email.String()})
}

// FindByLogin retrieves an account by login name.
func (r *AccountRepository) FindByLogin(ctx context.Context, login domain.Login) (*domain.Account, error) {
	return r.findOne(ctx, squirrel.Eq{"login": login.String()})
}

// FindByOAuthProvider retrieves the account bound to an external identity.
func (r *AccountRepository) FindByOAuthProvider(ctx context.Context, providerName, providerUserID string) (*domain.Account, error) {
	stmt, args, err := r.builder.Select("account_uuid").
		From("oauth_providers").
		Where(squirrel.Eq{"provider_name": providerName, "provider_user_id": providerUserID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select provider sql: %w", err)
	}

	var accountUUID uuid.UUID
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&accountUUID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan provider binding: %w", err)
	}

	return r.FindByUUID(ctx, accountUUID)
}

// ExistsByEmail reports whether any account row carries the email.
func (r *AccountRepository) ExistsByEmail(ctx context.Context, email domain.Email) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"email": email.String()})
}

// ExistsByLogin reports whether any account row carries the login.
func (r *AccountRepository) ExistsByLogin(ctx context.Context, login domain.Login) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"login": login.String()})
}

// Delete removes the account row; provider bindings cascade.
func (r *AccountRepository) Delete(ctx context.Context, account *domain.Account) error {
	stmt, args, err := r.builder.Delete("accounts").
		Where(squirrel.Eq{"uuid": account.UUID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// FindAccountsToDelete lists deleted accounts whose rows predate deleteBefore.
func (r *AccountRepository) FindAccountsToDelete(ctx context.Context, deleteBefore time.Time) ([]*domain.Account, error) {
	stmt, args, err := r.builder.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"status": string(domain.AccountStatusDeleted)}).
		Where(squirrel.Lt{"registered_at": deleteBefore}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select deletable accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query deletable accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deletable accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) findOne(ctx context.Context, where squirrel.Eq) (*domain.Account, error) {
	stmt, args, err := r.builder.Select(accountColumns...).
		From("accounts").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadProviders(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) loadProviders(ctx context.Context, account *domain.Account) error {
	stmt, args, err := r.builder.Select("id", "provider_name", "provider_user_id", "linked_at").
		From("oauth_providers").
		Where(squirrel.Eq{"account_uuid": account.UUID}).
		OrderBy("linked_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build select providers sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("query providers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var provider domain.OAuthProvider
		if err := rows.Scan(&provider.ID, &provider.ProviderName, &provider.ProviderUserID, &provider.LinkedAt); err != nil {
			return fmt.Errorf("scan provider: %w", err)
		}
		account.OAuthProviders = append(account.OAuthProviders, provider)
	}
	return rows.Err()
}

func (r *AccountRepository) exists(ctx context.Context, where squirrel.Eq) (bool, error) {
	stmt, args, err := r.builder.Select("1").
		From("accounts").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan exists: %w", err)
	}
	return true, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account      domain.Account
		loginRaw     string
		emailRaw     string
		passwordHash sql.NullString
		statusRaw    string
		lastLoginAt  *time.Time
	)

	if err := row.Scan(
		&account.UUID,
		&loginRaw,
		&emailRaw,
		&passwordHash,
		&statusRaw,
		&account.RegisteredAt,
		&lastLoginAt,
		&account.EmailVerified,
	); err != nil {
		return nil, err
	}

	login, err := domain.NewLogin(loginRaw)
	if err != nil {
		return nil, fmt.Errorf("hydrate login: %w", err)
	}
	email, err := domain.NewEmail(emailRaw)
	if err != nil {
		return nil, fmt.Errorf("hydrate email: %w", err)
	}
	status, err := domain.ParseAccountStatus(statusRaw)
	if err != nil {
		return nil, fmt.Errorf("hydrate status: %w", err)
	}

	account.Login = login
	account.Email = email
	account.Status = status
	account.LastLoginAt = lastLoginAt

	if passwordHash.Valid && passwordHash.String != "" {
		password, err := domain.PasswordFromHash(passwordHash.String)
		if err != nil {
			return nil, fmt.Errorf("hydrate password: %w", err)
		}
		account.Password = password
	}

	return &account, nil
}
