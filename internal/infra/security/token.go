package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
)

// JWTIssuer signs and validates HS256 tokens. Every token carries a jti
// used as the cache key for the validity and revocation lists.
type JWTIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type accountClaims struct {
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a short lived token for API access.
func (j *JWTIssuer) GenerateAccessToken(subject uuid.UUID) (domain.Token, error) {
	return j.generate(subject, j.accessTTL, "access")
}

// GenerateRefreshToken issues a long lived token used to obtain new
// access tokens.
func (j *JWTIssuer) GenerateRefreshToken(subject uuid.UUID) (domain.Token, error) {
	return j.generate(subject, j.refreshTTL, "refresh")
}

func (j *JWTIssuer) generate(accountUUID uuid.UUID, ttl time.Duration, use string) (domain.Token, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	tokenID := uuid.NewString()

	claims := accountClaims{
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   accountUUID.String(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign %s token: %w", use, err)
	}

	return domain.NewToken(tokenID, signed, accountUUID, expiresAt)
}

// ParseAndValidateToken verifies the signature and expiry of raw and
// returns the token descriptor.
func (j *JWTIssuer) ParseAndValidateToken(raw string) (domain.Token, error) {
	claims, err := j.parseClaims(raw)
	if err != nil {
		return domain.Token{}, err
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Token{}, port.ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return domain.Token{}, port.ErrInvalidToken
	}

	return domain.NewToken(claims.ID, raw, subject, claims.ExpiresAt.Time)
}

// ExtractAccountUUID returns the subject of raw without requiring the
// token to still be within its validity window.
func (j *JWTIssuer) ExtractAccountUUID(raw string) (uuid.UUID, error) {
	claims, err := j.parseClaims(raw)
	if err != nil && !errors.Is(err, port.ErrTokenExpired) {
		return uuid.Nil, err
	}

	subject, perr := uuid.Parse(claims.Subject)
	if perr != nil {
		return uuid.Nil, port.ErrInvalidToken
	}
	return subject, nil
}

func (j *JWTIssuer) parseClaims(raw string) (*accountClaims, error) {
	claims := &accountClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims, port.ErrTokenExpired
		}
		return nil, port.ErrInvalidToken
	}
	return claims, nil
}
