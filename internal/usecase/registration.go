package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	zxcvbn "github.com/nbutton23/zxcvbn-go"
	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/infra/logger"
	"github.com/klabs/account-service/internal/repository"
)

const (
	registrationVerificationPrefix = "registration:verification:"
	registrationDataPrefix         = "registration:data:"

	weakPasswordScoreThreshold = 2
)

// RegistrationService runs the two-phase, cache-staged registration protocol.
// Phase 1 stages unconfirmed data in the TTL cache; phase 2 commits it
// durably. Nothing durable exists until verification succeeds.
type RegistrationService struct {
	accounts  port.AccountRepository
	cache     port.Cache
	email     port.EmailSender
	events    port.EventPublisher
	tokens    port.TokenIssuer
	validator *AccountValidator
	hasher    domain.PasswordHasher
	log       *zap.Logger
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(
	accounts port.AccountRepository,
	cache port.Cache,
	email port.EmailSender,
	events port.EventPublisher,
	tokens port.TokenIssuer,
	validator *AccountValidator,
	hasher domain.PasswordHasher,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		accounts:  accounts,
		cache:     cache,
		email:     email,
		events:    events,
		tokens:    tokens,
		validator: validator,
		hasher:    hasher,
		log:       log,
	}
}

type stagedRegistration struct {
	Email        string `json:"email"`
	Login        string `json:"login"`
	PasswordHash string `json:"passwordHash"`
}

// Initiate validates the signup data, hashes the password, and stages
// everything in the cache under a fresh registration ID. The verification
// code is mailed to the address; both cache entries share the code's TTL.
func (s *RegistrationService) Initiate(ctx context.Context, emailStr, loginStr, plainPassword string) (RegistrationDTO, error) {
	email, err := domain.NewEmail(emailStr)
	if err != nil {
		return RegistrationDTO{}, err
	}
	login, err := domain.NewLogin(loginStr)
	if err != nil {
		return RegistrationDTO{}, err
	}

	if err := s.validator.ValidateRegistration(ctx, email, login); err != nil {
		return RegistrationDTO{}, err
	}

	if err := domain.ValidatePasswordPolicy(plainPassword); err != nil {
		return RegistrationDTO{}, err
	}
	s.warnOnWeakPassword(plainPassword, login.String(), email.String())

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return RegistrationDTO{}, fmt.Errorf("hash password: %w", err)
	}

	registrationID := uuid.NewString()

	code, err := domain.GenerateVerificationCode()
	if err != nil {
		return RegistrationDTO{}, err
	}

	if err := s.cache.SaveVerificationCode(ctx, registrationVerificationPrefix+registrationID, code.Code(), domain.VerificationCodeTTL); err != nil {
		return RegistrationDTO{}, fmt.Errorf("stage verification code: %w", err)
	}

	staged, err := json.Marshal(stagedRegistration{
		Email:        email.String(),
		Login:        login.String(),
		PasswordHash: hash,
	})
	if err != nil {
		return RegistrationDTO{}, fmt.Errorf("marshal registration data: %w", err)
	}

	if err := s.cache.SaveValue(ctx, registrationDataPrefix+registrationID, string(staged), domain.VerificationCodeTTL); err != nil {
		return RegistrationDTO{}, fmt.Errorf("stage registration data: %w", err)
	}

	if err := s.email.SendVerificationCode(ctx, email.String(), code.Code()); err != nil {
		// Fire-and-forget: a lost mail is recoverable by cancel+retry, the
		// staged entries expire on their own.
		s.log.Warn("send verification code failed",
			zap.String("email", logger.MaskEmail(email.String())),
			zap.Error(err),
		)
	}

	s.log.Info("registration initiated",
		zap.String("registration_id", registrationID),
		zap.String("email", logger.MaskEmail(email.String())),
	)

	return RegistrationDTO{
		RegistrationID: registrationID,
		Email:          email.String(),
		Login:          login.String(),
		ExpiresAt:      code.ExpiresAt(),
	}, nil
}

// Verify checks the supplied code against the staged one, then commits the
// account durably, clears the staged entries, publishes AccountRegistered,
// and issues a token pair. The durable write happens before cache cleanup so
// a crash in between leaves retry-safe state rather than losing the signup.
func (s *RegistrationService) Verify(ctx context.Context, registrationID, inputCode string) (TokenDTO, error) {
	code, err := s.retrieveStagedCode(ctx, registrationID)
	if err != nil {
		return TokenDTO{}, err
	}

	if code.IsExpired() {
		return TokenDTO{}, ErrVerificationCodeExpired
	}
	if !code.Matches(inputCode) {
		return TokenDTO{}, domain.ErrInvalidVerificationCode
	}

	account, err := s.buildStagedAccount(ctx, registrationID)
	if err != nil {
		return TokenDTO{}, err
	}

	if err := s.accounts.Save(ctx, account); err != nil {
		return TokenDTO{}, fmt.Errorf("persist account: %w", err)
	}

	s.cleanRegistrationCache(ctx, registrationID)

	if err := s.events.Publish(ctx, domain.NewAccountRegisteredEvent(account)); err != nil {
		s.log.Warn("publish account registered event failed",
			zap.String("account_uuid", account.UUID.String()),
			zap.Error(err),
		)
	}

	return issueTokenPair(ctx, s.tokens, s.cache, account)
}

// Cancel removes both staged cache entries. Idempotent; always succeeds.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID string) {
	if registrationID == "" {
		return
	}
	s.cleanRegistrationCache(ctx, registrationID)
}

func (s *RegistrationService) retrieveStagedCode(ctx context.Context, registrationID string) (domain.VerificationCode, error) {
	key := registrationVerificationPrefix + registrationID

	saved, err := s.cache.GetVerificationCode(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.VerificationCode{}, ErrVerificationCodeExpired
		}
		return domain.VerificationCode{}, fmt.Errorf("load verification code: %w", err)
	}

	ttl, err := s.cache.GetTTL(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.VerificationCode{}, ErrVerificationCodeExpired
		}
		return domain.VerificationCode{}, fmt.Errorf("load verification code ttl: %w", err)
	}

	return domain.VerificationCodeOf(saved, time.Now().Add(ttl))
}

func (s *RegistrationService) buildStagedAccount(ctx context.Context, registrationID string) (*domain.Account, error) {
	raw, err := s.cache.GetValue(ctx, registrationDataPrefix+registrationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRegistrationDataMissing
		}
		return nil, fmt.Errorf("load registration data: %w", err)
	}

	var staged stagedRegistration
	if err := json.Unmarshal([]byte(raw), &staged); err != nil {
		return nil, fmt.Errorf("unmarshal registration data: %w", err)
	}

	email, err := domain.NewEmail(staged.Email)
	if err != nil {
		return nil, err
	}
	login, err := domain.NewLogin(staged.Login)
	if err != nil {
		return nil, err
	}
	password, err := domain.PasswordFromHash(staged.PasswordHash)
	if err != nil {
		return nil, err
	}

	account, err := domain.NewAccount(login, email, password)
	if err != nil {
		return nil, err
	}
	account.VerifyEmail()

	return account, nil
}

func (s *RegistrationService) cleanRegistrationCache(ctx context.Context, registrationID string) {
	if err := s.cache.DeleteVerificationCode(ctx, registrationVerificationPrefix+registrationID); err != nil {
		s.log.Warn("delete staged verification code failed", zap.String("registration_id", registrationID), zap.Error(err))
	}
	if err := s.cache.DeleteValue(ctx, registrationDataPrefix+registrationID); err != nil {
		s.log.Warn("delete staged registration data failed", zap.String("registration_id", registrationID), zap.Error(err))
	}
}

func (s *RegistrationService) warnOnWeakPassword(plain, login, email string) {
	result := zxcvbn.PasswordStrength(plain, []string{login, email})
	if result.Score < weakPasswordScoreThreshold {
		s.log.Warn("weak password accepted at registration",
			zap.Int("zxcvbn_score", result.Score),
			zap.String("login", login),
		)
	}
}
