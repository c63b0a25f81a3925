package port

import (
	"errors"

	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
)

var (
	// ErrTokenExpired indicates the token elapsed its validity window.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken indicates the token is malformed or its signature check failed.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenIssuer signs and verifies access/refresh tokens. Access tokens live
// 15 minutes, refresh tokens 14 days. Parse failures surface as
// ErrTokenExpired or ErrInvalidToken.
type TokenIssuer interface {
	GenerateAccessToken(subject uuid.UUID) (domain.Token, error)
	GenerateRefreshToken(subject uuid.UUID) (domain.Token, error)
	ParseAndValidateToken(raw string) (domain.Token, error)
	ExtractAccountUUID(raw string) (uuid.UUID, error)
}
