package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/repository"
)

var deletedAccountColumns = []string{
	"id",
	"original_uuid",
	"original_login",
	"original_email",
	"account_data",
	"deleted_at",
	"purge_at",
}

// DeletedAccountRepository implements port.DeletedAccountRepository using
// PostgreSQL.
type DeletedAccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewDeletedAccountRepository(exec pgExecutor) *DeletedAccountRepository {
	return &DeletedAccountRepository{
		exec:    exec,
		builder: statementBuilder(),
	}
}

// Save inserts a tombstone row.
func (r *DeletedAccountRepository) Save(ctx context.Context, tombstone domain.DeletedAccount) error {
	stmt, args, err := r.builder.Insert("deleted_accounts").
		Columns("original_uuid", "original_login", "original_email", "account_data", "deleted_at", "purge_at").
		Values(
			tombstone.OriginalUUID,
			tombstone.OriginalLogin,
			tombstone.OriginalEmail,
			tombstone.AccountDataJSON,
			tombstone.DeletedAt,
			tombstone.PurgeAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert tombstone sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert tombstone: %w", err)
	}
	return nil
}

// FindByOriginalUUID retrieves the tombstone for an account identifier.
func (r *DeletedAccountRepository) FindByOriginalUUID(ctx context.Context, id uuid.UUID) (*domain.DeletedAccount, error) {
	stmt, args, err := r.builder.Select(deletedAccountColumns...).
		From("deleted_accounts").
		Where(squirrel.Eq{"original_uuid": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tombstone sql: %w", err)
	}

	tombstone, err := scanDeletedAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return tombstone, nil
}

// Delete removes a tombstone row after purge.
func (r *DeletedAccountRepository) Delete(ctx context.Context, tombstone domain.DeletedAccount) error {
	stmt, args, err := r.builder.Delete("deleted_accounts").
		Where(squirrel.Eq{"original_uuid": tombstone.OriginalUUID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete tombstone sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete tombstone: %w", err)
	}
	return nil
}

// FindAccountsToPurge lists tombstones whose purge time has arrived.
func (r *DeletedAccountRepository) FindAccountsToPurge(ctx context.Context, purgeBefore time.Time) ([]domain.DeletedAccount, error) {
	stmt, args, err := r.builder.Select(deletedAccountColumns...).
		From("deleted_accounts").
		Where(squirrel.LtOrEq{"purge_at": purgeBefore}).
		OrderBy("purge_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select purgeable tombstones sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query purgeable tombstones: %w", err)
	}
	defer rows.Close()

	var tombstones []domain.DeletedAccount
	for rows.Next() {
		tombstone, err := scanDeletedAccount(rows)
		if err != nil {
			return nil, err
		}
		tombstones = append(tombstones, *tombstone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purgeable tombstones: %w", err)
	}

	return tombstones, nil
}

// ExistsByOriginalEmail reports whether a tombstone still reserves the email.
func (r *DeletedAccountRepository) ExistsByOriginalEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"original_email": email})
}

// ExistsByOriginalLogin reports whether a tombstone still reserves the login.
func (r *DeletedAccountRepository) ExistsByOriginalLogin(ctx context.Context, login string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"original_login": login})
}

func (r *DeletedAccountRepository) exists(ctx context.Context, where squirrel.Eq) (bool, error) {
	stmt, args, err := r.builder.Select("1").
		From("deleted_accounts").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build tombstone exists sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan tombstone exists: %w", err)
	}
	return true, nil
}

func scanDeletedAccount(row pgx.Row) (*domain.DeletedAccount, error) {
	var tombstone domain.DeletedAccount
	if err := row.Scan(
		&tombstone.ID,
		&tombstone.OriginalUUID,
		&tombstone.OriginalLogin,
		&tombstone.OriginalEmail,
		&tombstone.AccountDataJSON,
		&tombstone.DeletedAt,
		&tombstone.PurgeAt,
	); err != nil {
		return nil, err
	}
	return &tombstone, nil
}
