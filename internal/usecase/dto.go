package usecase

import (
	"time"

	"github.com/klabs/account-service/internal/core/domain"
)

// AccountDTO is the outward projection of an account, without credentials.
type AccountDTO struct {
	UUID          string     `json:"uuid"`
	Login         string     `json:"login"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"emailVerified"`
	RegisteredAt  time.Time  `json:"registeredAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// NewAccountDTO projects the aggregate onto its DTO.
func NewAccountDTO(account *domain.Account) AccountDTO {
	return AccountDTO{
		UUID:          account.UUID.String(),
		Login:         account.Login.String(),
		Email:         account.Email.String(),
		Status:        string(account.Status),
		EmailVerified: account.EmailVerified,
		RegisteredAt:  account.RegisteredAt,
		LastLoginAt:   account.LastLoginAt,
	}
}

// RegistrationDTO is returned by InitiateRegistration. No durable account
// exists yet when the caller receives it.
type RegistrationDTO struct {
	RegistrationID string    `json:"registrationId"`
	Email          string    `json:"email"`
	Login          string    `json:"login"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// TokenDTO carries an issued token pair with the account projection.
type TokenDTO struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	TokenType    string     `json:"tokenType"`
	ExpiresIn    int        `json:"expiresIn"`
	IssuedAt     time.Time  `json:"issuedAt"`
	Account      AccountDTO `json:"account"`
}
