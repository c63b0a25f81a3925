package port

import (
	"context"
	"time"
)

// SessionRecord links a session identifier to the account and client context
// that opened it.
type SessionRecord struct {
	SessionID   string
	AccountUUID string
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

// Cache is the volatile TTL store backing staged registrations, token
// validity, and session tracking. Keys follow {domain}:{purpose}:{id}.
// Per-key operations are atomic; nothing composes transactionally with the
// durable store.
type Cache interface {
	SaveVerificationCode(ctx context.Context, key, code string, ttl time.Duration) error
	GetVerificationCode(ctx context.Context, key string) (string, error)
	DeleteVerificationCode(ctx context.Context, key string) error

	// GetTTL returns the remaining (not the original) TTL for the key.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	SaveValue(ctx context.Context, key, value string, ttl time.Duration) error
	GetValue(ctx context.Context, key string) (string, error)
	DeleteValue(ctx context.Context, key string) error

	// SaveToken marks a token ID valid for its natural lifetime; RevokeToken
	// overwrites it with a revocation entry expiring no later than the token
	// itself would have. These are the only pre-expiry invalidation mechanism.
	SaveToken(ctx context.Context, tokenID, accountUUID string, ttl time.Duration) error
	IsTokenValid(ctx context.Context, tokenID string) (bool, error)
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error

	SaveSession(ctx context.Context, record SessionRecord, ttl time.Duration) error
	GetActiveSessions(ctx context.Context, accountUUID string) ([]string, error)
	DeleteSession(ctx context.Context, sessionID, accountUUID string) error
}
