package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the use cases.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionOAuthLogin      = "OAUTH_LOGIN"
	AuditActionEmailUpdated    = "EMAIL_UPDATED"
	AuditActionLoginUpdated    = "LOGIN_UPDATED"
	AuditActionPasswordChanged = "PASSWORD_CHANGED"
	AuditActionAccountDeleted  = "ACCOUNT_DELETED"
)

// AuditLog is an append-only fact about an account action. Never mutated
// after creation.
type AuditLog struct {
	ID          int64
	AccountUUID uuid.UUID
	Action      string
	IPAddress   string
	UserAgent   string
	DetailsJSON string
	CreatedAt   time.Time
}

// NewAuditLog constructs an audit fact, serializing the detail map to JSON.
func NewAuditLog(accountUUID uuid.UUID, action, ipAddress, userAgent string, details map[string]any) (AuditLog, error) {
	if accountUUID == uuid.Nil {
		return AuditLog{}, errors.New("audit log: account uuid is required")
	}
	if action == "" {
		return AuditLog{}, errors.New("audit log: action is required")
	}

	detailsJSON := ""
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return AuditLog{}, fmt.Errorf("audit log: marshal details: %w", err)
		}
		detailsJSON = string(raw)
	}

	return AuditLog{
		AccountUUID: accountUUID,
		Action:      action,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		DetailsJSON: detailsJSON,
		CreatedAt:   time.Now(),
	}, nil
}

// LoginAudit records a successful password login.
func LoginAudit(accountUUID uuid.UUID, ip, userAgent string) (AuditLog, error) {
	return NewAuditLog(accountUUID, AuditActionLogin, ip, userAgent, nil)
}

// LogoutAudit records a logout.
func LogoutAudit(accountUUID uuid.UUID, ip, userAgent string) (AuditLog, error) {
	return NewAuditLog(accountUUID, AuditActionLogout, ip, userAgent, nil)
}

// OAuthLoginAudit records a login through a bound provider.
func OAuthLoginAudit(accountUUID uuid.UUID, provider, ip, userAgent string) (AuditLog, error) {
	return NewAuditLog(accountUUID, AuditActionOAuthLogin, ip, userAgent, map[string]any{"provider": provider})
}

// EmailUpdatedAudit records an email change with old and new values.
func EmailUpdatedAudit(accountUUID uuid.UUID, oldEmail, newEmail, ip, userAgent string) (AuditLog, error) {
	return NewAuditLog(accountUUID, AuditActionEmailUpdated, ip, userAgent, map[string]any{
		"oldEmail": oldEmail,
		"newEmail": newEmail,
	})
}

// LoginUpdatedAudit records a login-name change with old and new values.
func LoginUpdatedAudit(accountUUID uuid.UUID, oldLogin, newLogin, ip, userAgent string) (AuditLog, error) {
	return NewAuditLog(accountUUID, AuditActionLoginUpdated, ip, userAgent, map[string]any{
		"oldLogin": oldLogin,
		"newLogin": newLogin,
	})
}

// PasswordChangedAudit records a password change.
func PasswordChangedAudit(accountUUID uuid.UUID, ip, userAgent string) (AuditLog, error) {
	return NewAuditLog(accountUUID, AuditActionPasswordChanged, ip, userAgent, nil)
}
