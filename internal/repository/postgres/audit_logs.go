package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
)

// AuditLogRepository implements port.AuditLogRepository using PostgreSQL.
type AuditLogRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewAuditLogRepository(exec pgExecutor) *AuditLogRepository {
	return &AuditLogRepository{
		exec:    exec,
		builder: statementBuilder(),
	}
}

// Save appends an audit fact.
func (r *AuditLogRepository) Save(ctx context.Context, log domain.AuditLog) error {
	var detailsValue any
	if log.DetailsJSON != "" {
		detailsValue = log.DetailsJSON
	}

	stmt, args, err := r.builder.Insert("audit_logs").
		Columns("account_uuid", "action", "ip_address", "user_agent", "details", "created_at").
		Values(log.AccountUUID, log.Action, log.IPAddress, log.UserAgent, detailsValue, log.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit log sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByAccount returns the most recent audit facts for an account.
func (r *AuditLogRepository) ListByAccount(ctx context.Context, accountUUID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}

	stmt, args, err := r.builder.
		Select("id", "account_uuid", "action", "ip_address", "user_agent", "details", "created_at").
		From("audit_logs").
		Where(squirrel.Eq{"account_uuid": accountUUID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select audit logs sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var (
			log     domain.AuditLog
			details sql.NullString
		)
		if err := rows.Scan(
			&log.ID,
			&log.AccountUUID,
			&log.Action,
			&log.IPAddress,
			&log.UserAgent,
			&details,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		log.DetailsJSON = details.String
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}

	return logs, nil
}
