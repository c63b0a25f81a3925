package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/infra/logger"
	"github.com/klabs/account-service/internal/repository"
)

// AuthService coordinates the login/logout/refresh protocols over the durable
// store and the revocation cache.
type AuthService struct {
	accounts  port.AccountRepository
	auditLogs port.AuditLogRepository
	cache     port.Cache
	tokens    port.TokenIssuer
	events    port.EventPublisher
	validator *AccountValidator
	hasher    domain.PasswordHasher
	log       *zap.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(
	accounts port.AccountRepository,
	auditLogs port.AuditLogRepository,
	cache port.Cache,
	tokens port.TokenIssuer,
	events port.EventPublisher,
	validator *AccountValidator,
	hasher domain.PasswordHasher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		auditLogs: auditLogs,
		cache:     cache,
		tokens:    tokens,
		events:    events,
		validator: validator,
		hasher:    hasher,
		log:       log,
	}
}

// LogIn authenticates by email or login (routed on the presence of '@'),
// issues a token pair, records a session and a LOGIN audit fact, and stamps
// the last-login timestamp on the account.
func (s *AuthService) LogIn(ctx context.Context, identifier, password, ipAddress, userAgent string) (TokenDTO, error) {
	account, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return TokenDTO{}, err
	}

	if err := s.validator.ValidatePasswordLogIn(account, password, s.hasher); err != nil {
		return TokenDTO{}, err
	}
	if err := s.validator.ValidateCanLogIn(account); err != nil {
		return TokenDTO{}, err
	}

	tokenDTO, err := issueTokenPair(ctx, s.tokens, s.cache, account)
	if err != nil {
		return TokenDTO{}, err
	}

	if err := s.openSession(ctx, account, ipAddress, userAgent); err != nil {
		return TokenDTO{}, err
	}

	s.appendAudit(ctx, domain.LoginAudit, account.UUID, ipAddress, userAgent)

	account.RecordLogIn()
	if err := s.accounts.Save(ctx, account); err != nil {
		return TokenDTO{}, fmt.Errorf("persist account: %w", err)
	}

	return tokenDTO, nil
}

// LogInWithOAuth authenticates through a bound provider, creating a fresh
// OAuth account (active, verified, no password) on first sight of the
// provider identity.
func (s *AuthService) LogInWithOAuth(ctx context.Context, providerName, providerUserID, emailStr, loginStr, ipAddress, userAgent string) (TokenDTO, error) {
	account, err := s.accounts.FindByOAuthProvider(ctx, providerName, providerUserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return TokenDTO{}, fmt.Errorf("lookup oauth account: %w", err)
		}

		account, err = s.registerOAuthAccount(ctx, providerName, providerUserID, emailStr, loginStr)
		if err != nil {
			return TokenDTO{}, err
		}
	}

	if err := s.validator.ValidateCanLogIn(account); err != nil {
		return TokenDTO{}, err
	}

	tokenDTO, err := issueTokenPair(ctx, s.tokens, s.cache, account)
	if err != nil {
		return TokenDTO{}, err
	}

	if err := s.openSession(ctx, account, ipAddress, userAgent); err != nil {
		return TokenDTO{}, err
	}

	audit, err := domain.OAuthLoginAudit(account.UUID, providerName, ipAddress, userAgent)
	if err == nil {
		if saveErr := s.auditLogs.Save(ctx, audit); saveErr != nil {
			s.log.Warn("append audit log failed", zap.String("action", audit.Action), zap.Error(saveErr))
		}
	}

	account.RecordLogIn()
	if err := s.accounts.Save(ctx, account); err != nil {
		return TokenDTO{}, fmt.Errorf("persist account: %w", err)
	}

	return tokenDTO, nil
}

// LogOut revokes both tokens with TTLs no longer than their remaining natural
// lifetimes, drops the session keyed by the refresh token ID, and appends a
// LOGOUT audit fact.
func (s *AuthService) LogOut(ctx context.Context, accessTokenStr, refreshTokenStr, ipAddress, userAgent string) error {
	accessToken, err := s.tokens.ParseAndValidateToken(accessTokenStr)
	if err != nil {
		return err
	}
	refreshToken, err := s.tokens.ParseAndValidateToken(refreshTokenStr)
	if err != nil {
		return err
	}

	if err := s.cache.RevokeToken(ctx, accessToken.ID, accessToken.RemainingTTL()); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if err := s.cache.RevokeToken(ctx, refreshToken.ID, refreshToken.RemainingTTL()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if err := s.cache.DeleteSession(ctx, refreshToken.ID, accessToken.Subject.String()); err != nil {
		s.log.Warn("delete session failed", zap.String("session_id", refreshToken.ID), zap.Error(err))
	}

	s.appendAudit(ctx, domain.LogoutAudit, accessToken.Subject, ipAddress, userAgent)

	s.log.Info("logout",
		zap.String("account_uuid", accessToken.Subject.String()),
		zap.String("ip", logger.MaskIP(ipAddress)),
	)

	return nil
}

// RefreshToken validates the refresh token (signature, natural expiry, and
// revocation cache), re-checks the account can still log in, and issues a new
// access token. The refresh token is echoed back unchanged.
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenStr string) (TokenDTO, error) {
	refreshToken, err := s.tokens.ParseAndValidateToken(refreshTokenStr)
	if err != nil {
		return TokenDTO{}, err
	}
	if refreshToken.IsExpired() {
		return TokenDTO{}, port.ErrTokenExpired
	}

	valid, err := s.cache.IsTokenValid(ctx, refreshToken.ID)
	if err != nil {
		return TokenDTO{}, fmt.Errorf("check token validity: %w", err)
	}
	if !valid {
		return TokenDTO{}, port.ErrTokenExpired
	}

	account, err := s.accounts.FindByUUID(ctx, refreshToken.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenDTO{}, ErrAccountNotFound
		}
		return TokenDTO{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := s.validator.ValidateCanLogIn(account); err != nil {
		return TokenDTO{}, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(account.UUID)
	if err != nil {
		return TokenDTO{}, fmt.Errorf("generate access token: %w", err)
	}
	if err := s.cache.SaveToken(ctx, accessToken.ID, account.UUID.String(), accessTokenTTL); err != nil {
		return TokenDTO{}, fmt.Errorf("cache access token: %w", err)
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

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	if strings.Contains(identifier, "@") {
		email, err := domain.NewEmail(identifier)
		if err != nil {
			return nil, err
		}

		account, err := s.accounts.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("lookup account by email: %w", err)
		}
		return account, nil
	}

	login, err := domain.NewLogin(identifier)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account by login: %w", err)
	}
	return account, nil
}

func (s *AuthService) registerOAuthAccount(ctx context.Context, providerName, providerUserID, emailStr, loginStr string) (*domain.Account, error) {
	email, err := domain.NewEmail(emailStr)
	if err != nil {
		return nil, err
	}
	login, err := domain.NewLogin(loginStr)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateRegistration(ctx, email, login); err != nil {
		return nil, err
	}

	provider, err := domain.NewOAuthProvider(providerName, providerUserID)
	if err != nil {
		return nil, err
	}

	account, err := domain.NewOAuthAccount(login, email, provider)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("persist oauth account: %w", err)
	}

	events := []domain.DomainEvent{
		domain.NewAccountRegisteredEvent(account),
		domain.NewOAuthBoundEvent(account.UUID, providerName),
	}
	if err := s.events.PublishBatch(ctx, events); err != nil {
		s.log.Warn("publish oauth registration events failed",
			zap.String("account_uuid", account.UUID.String()),
			zap.Error(err),
		)
	}

	return account, nil
}

func (s *AuthService) openSession(ctx context.Context, account *domain.Account, ipAddress, userAgent string) error {
	record := port.SessionRecord{
		SessionID:   uuid.NewString(),
		AccountUUID: account.UUID.String(),
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
	}

	if err := s.cache.SaveSession(ctx, record, refreshTokenTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *AuthService) appendAudit(ctx context.Context, factory func(uuid.UUID, string, string) (domain.AuditLog, error), accountUUID uuid.UUID, ip, userAgent string) {
	audit, err := factory(accountUUID, ip, userAgent)
	if err != nil {
		s.log.Warn("build audit log failed", zap.Error(err))
		return
	}
	if err := s.auditLogs.Save(ctx, audit); err != nil {
		s.log.Warn("append audit log failed", zap.String("action", audit.Action), zap.Error(err))
	}
}
