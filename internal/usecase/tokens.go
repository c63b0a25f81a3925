package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 14 * 24 * time.Hour
)

// issueTokenPair generates an access/refresh pair for the account and records
// both as valid cache entries keyed by token ID with matching TTLs.
func issueTokenPair(ctx context.Context, issuer port.TokenIssuer, cache port.Cache, account *domain.Account) (TokenDTO, error) {
	accessToken, err := issuer.GenerateAccessToken(account.UUID)
	if err != nil {
		return TokenDTO{}, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := issuer.GenerateRefreshToken(account.UUID)
	if err != nil {
		return TokenDTO{}, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := cache.SaveToken(ctx, accessToken.ID, account.UUID.String(), accessTokenTTL); err != nil {
		return TokenDTO{}, fmt.Errorf("cache access token: %w", err)
	}
	if err := cache.SaveToken(ctx, refreshToken.ID, account.UUID.String(), refreshTokenTTL); err != nil {
		return TokenDTO{}, fmt.Errorf("cache refresh token: %w", err)
	}

	return TokenDTO{
		AccessToken:  accessToken.Value,
		RefreshToken: refreshToken.Value,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTokenTTL.Seconds()),
		IssuedAt:     time.Now(),
		Account:      NewAccountDTO(account),
	}, nil
}
