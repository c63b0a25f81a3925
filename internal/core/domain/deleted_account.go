package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeletedAccountRetention is the grace period before a tombstone may be purged.
const DeletedAccountRetention = 60 * 24 * time.Hour

// DeletedAccount is the tombstone retained for a purged account during the
// restore grace period. It carries a JSON snapshot of the account state at
// deletion time.
type DeletedAccount struct {
	ID              int64
	OriginalUUID    uuid.UUID
	OriginalLogin   string
	OriginalEmail   string
	AccountDataJSON string
	DeletedAt       time.Time
	PurgeAt         time.Time
}

type accountSnapshot struct {
	UUID          string     `json:"uuid"`
	Login         string     `json:"login"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"passwordHash,omitempty"`
	Status        string     `json:"status"`
	RegisteredAt  time.Time  `json:"registeredAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
}

// NewDeletedAccount builds a tombstone from the account, stamping deletion
// time now and purge time 60 days later.
func NewDeletedAccount(account *Account) (DeletedAccount, error) {
	snapshot := accountSnapshot{
		UUID:          account.UUID.String(),
		Login:         account.Login.String(),
		Email:         account.Email.String(),
		PasswordHash:  account.Password.Hash(),
		Status:        string(account.Status),
		RegisteredAt:  account.RegisteredAt,
		LastLoginAt:   account.LastLoginAt,
		EmailVerified: account.EmailVerified,
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return DeletedAccount{}, fmt.Errorf("deleted account: marshal snapshot: %w", err)
	}

	deletedAt := time.Now()
	return DeletedAccount{
		OriginalUUID:    account.UUID,
		OriginalLogin:   account.Login.String(),
		OriginalEmail:   account.Email.String(),
		AccountDataJSON: string(raw),
		DeletedAt:       deletedAt,
		PurgeAt:         deletedAt.Add(DeletedAccountRetention),
	}, nil
}

// CanBeRestored reports whether the current time is strictly before the purge
// timestamp. Exact complement of ShouldBePurged.
func (d DeletedAccount) CanBeRestored() bool {
	return time.Now().Before(d.PurgeAt)
}

// ShouldBePurged reports whether the purge timestamp has arrived. A time equal
// to the purge timestamp counts as purgeable.
func (d DeletedAccount) ShouldBePurged() bool {
	return !time.Now().Before(d.PurgeAt)
}
