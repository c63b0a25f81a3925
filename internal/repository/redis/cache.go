package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/repository"
)

const (
	tokenPrefix   = "token"
	sessionPrefix = "session"

	revokedMarker = "revoked"
)

// Cache implements port.Cache on a Redis client. Verification codes and
// staged values are stored under caller-supplied keys; token validity and
// session records use the token: and session: namespaces.
type Cache struct {
	client *red.Client
}

// NewCache wires a Redis client into the TTL cache.
func NewCache(client *red.Client) *Cache {
	return &Cache{client: client}
}

// SaveVerificationCode stores a staged verification code under key.
func (c *Cache) SaveVerificationCode(ctx context.Context, key, code string, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	if err := c.client.Set(ctx, key, code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set verification code: %w", err)
	}
	return nil
}

// GetVerificationCode retrieves a staged verification code. Missing or
// expired keys surface as repository.ErrNotFound.
func (c *Cache) GetVerificationCode(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get verification code: %w", err)
	}
	return value, nil
}

// DeleteVerificationCode removes a staged verification code. Idempotent.
func (c *Cache) DeleteVerificationCode(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete verification code: %w", err)
	}
	return nil
}

// GetTTL returns the remaining lifetime of key. Missing keys surface as
// repository.ErrNotFound.
func (c *Cache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl < 0 {
		// -2 key does not exist, -1 key has no expiry
		return 0, repository.ErrNotFound
	}
	return ttl, nil
}

// SaveValue stores an arbitrary staged value under key.
func (c *Cache) SaveValue(ctx context.Context, key, value string, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set value: %w", err)
	}
	return nil
}

// GetValue retrieves a staged value. Missing keys surface as
// repository.ErrNotFound.
func (c *Cache) GetValue(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get value: %w", err)
	}
	return value, nil
}

// DeleteValue removes a staged value. Idempotent.
func (c *Cache) DeleteValue(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete value: %w", err)
	}
	return nil
}

// SaveToken marks tokenID valid for ttl, binding it to the account.
func (c *Cache) SaveToken(ctx context.Context, tokenID, accountUUID string, ttl time.Duration) error {
	if strings.TrimSpace(tokenID) == "" {
		return errors.New("token id is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := fmt.Sprintf("%s:%s", tokenPrefix, tokenID)
	if err := c.client.Set(ctx, key, accountUUID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// IsTokenValid reports whether tokenID has a live validity entry that has
// not been overwritten by a revocation.
func (c *Cache) IsTokenValid(ctx context.Context, tokenID string) (bool, error) {
	key := fmt.Sprintf("%s:%s", tokenPrefix, tokenID)
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get token: %w", err)
	}
	return value != revokedMarker, nil
}

// RevokeToken overwrites the validity entry with a revocation marker that
// expires when the token itself would have.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if strings.TrimSpace(tokenID) == "" {
		return errors.New("token id is required")
	}
	if ttl <= 0 {
		// Token already past expiry, nothing to revoke.
		return nil
	}

	key := fmt.Sprintf("%s:%s", tokenPrefix, tokenID)
	if err := c.client.Set(ctx, key, revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revocation: %w", err)
	}
	return nil
}

// SaveSession stores the session record as JSON keyed by account and
// session identifiers.
func (c *Cache) SaveSession(ctx context.Context, record port.SessionRecord, ttl time.Duration) error {
	if record.SessionID == "" || record.AccountUUID == "" {
		return errors.New("session and account ids are required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	key := sessionKey(record.AccountUUID, record.SessionID)
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// GetActiveSessions returns the stored session records for an account as
// raw JSON strings.
func (c *Cache) GetActiveSessions(ctx context.Context, accountUUID string) ([]string, error) {
	pattern := sessionKey(accountUUID, "*")

	var sessions []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		value, err := c.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, red.Nil) {
				continue
			}
			return nil, fmt.Errorf("redis get session: %w", err)
		}
		sessions = append(sessions, value)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan sessions: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes a single session record. Idempotent.
func (c *Cache) DeleteSession(ctx context.Context, sessionID, accountUUID string) error {
	if err := c.client.Del(ctx, sessionKey(accountUUID, sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func sessionKey(accountUUID, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", sessionPrefix, accountUUID, sessionID)
}
