package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Token couples a signed token string with its identifier, subject, and expiry.
// The value is opaque to the domain; parsing and signature checks belong to the
// token issuer collaborator.
type Token struct {
	ID        string
	Value     string
	Subject   uuid.UUID
	ExpiresAt time.Time
}

// NewToken validates the token parts.
func NewToken(id, value string, subject uuid.UUID, expiresAt time.Time) (Token, error) {
	switch {
	case id == "":
		return Token{}, errors.New("token id cannot be blank")
	case value == "":
		return Token{}, errors.New("token value cannot be blank")
	case subject == uuid.Nil:
		return Token{}, errors.New("token subject is required")
	case expiresAt.IsZero():
		return Token{}, errors.New("token expiry is required")
	}

	return Token{ID: id, Value: value, Subject: subject, ExpiresAt: expiresAt}, nil
}

// IsExpired reports whether the token has elapsed its validity window.
func (t Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// RemainingTTL returns the duration until natural expiry, zero when already elapsed.
func (t Token) RemainingTTL() time.Duration {
	remaining := time.Until(t.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
