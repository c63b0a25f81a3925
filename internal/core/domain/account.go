package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountStatus enumerates the account lifecycle states.
type AccountStatus string

const (
	AccountStatusPendingVerification AccountStatus = "pending_verification"
	AccountStatusActive              AccountStatus = "active"
	AccountStatusSuspended           AccountStatus = "suspended"
	AccountStatusDeleted             AccountStatus = "deleted"
)

// CanBeDeleted reports whether the status permits a transition to deleted.
// Deleted is terminal.
func (s AccountStatus) CanBeDeleted() bool {
	return s != AccountStatusDeleted
}

// IsActive reports whether the status is active.
func (s AccountStatus) IsActive() bool {
	return s == AccountStatusActive
}

// ParseAccountStatus maps a stored string onto a known status.
func ParseAccountStatus(raw string) (AccountStatus, error) {
	switch AccountStatus(raw) {
	case AccountStatusPendingVerification, AccountStatusActive, AccountStatusSuspended, AccountStatusDeleted:
		return AccountStatus(raw), nil
	}
	return "", fmt.Errorf("unknown account status %q", raw)
}

// OAuthProvider is an external identity bound to an account. Provider names
// are unique per account, compared case-insensitively.
type OAuthProvider struct {
	ID             int64
	ProviderName   string
	ProviderUserID string
	LinkedAt       time.Time
}

// NewOAuthProvider validates and constructs a provider binding.
func NewOAuthProvider(providerName, providerUserID string) (OAuthProvider, error) {
	if providerName == "" || strings.TrimSpace(providerUserID) == "" {
		return OAuthProvider{}, errors.New("invalid oauth provider data")
	}

	return OAuthProvider{
		ProviderName:   providerName,
		ProviderUserID: providerUserID,
		LinkedAt:       time.Now(),
	}, nil
}

// IsSameProvider compares provider names case-insensitively.
func (p OAuthProvider) IsSameProvider(providerName string) bool {
	return strings.EqualFold(p.ProviderName, providerName)
}

// IsSameUser compares provider-side user identifiers.
func (p OAuthProvider) IsSameUser(providerUserID string) bool {
	return p.ProviderUserID == providerUserID
}

// Account is the identity aggregate root. The UUID and registration timestamp
// never change after creation; all other state mutates only through the
// aggregate's own methods.
type Account struct {
	UUID           uuid.UUID
	Login          Login
	Email          Email
	Password       Password
	Status         AccountStatus
	RegisteredAt   time.Time
	LastLoginAt    *time.Time
	EmailVerified  bool
	OAuthProviders []OAuthProvider
}

// NewAccount creates a pending, unverified account with a fresh UUID.
func NewAccount(login Login, email Email, password Password) (*Account, error) {
	if login.IsZero() {
		return nil, ErrInvalidLogin
	}
	if email.IsZero() {
		return nil, ErrInvalidEmail
	}

	return &Account{
		UUID:         uuid.New(),
		Login:        login,
		Email:        email,
		Password:     password,
		Status:       AccountStatusPendingVerification,
		RegisteredAt: time.Now(),
	}, nil
}

// NewOAuthAccount creates an account through the OAuth path: no password,
// email treated as verified, status active, one provider bound.
func NewOAuthAccount(login Login, email Email, provider OAuthProvider) (*Account, error) {
	account, err := NewAccount(login, email, Password{})
	if err != nil {
		return nil, err
	}

	account.VerifyEmail()
	if err := account.AddOAuthProvider(provider); err != nil {
		return nil, err
	}

	return account, nil
}

// VerifyEmail marks the email verified and promotes a pending account to
// active. Idempotent; never re-activates a suspended account.
func (a *Account) VerifyEmail() {
	if !a.EmailVerified {
		a.EmailVerified = true
	}
	if a.Status == AccountStatusPendingVerification {
		a.Status = AccountStatusActive
	}
}

// UpdateLogin replaces the login when the new value differs from the current one.
func (a *Account) UpdateLogin(login Login) {
	if login.IsZero() {
		return
	}
	if a.Login != login {
		a.Login = login
	}
}

// UpdateEmail replaces the email and resets the verified flag. Assigning the
// current address is a no-op that preserves verification status.
func (a *Account) UpdateEmail(email Email) {
	if email.IsZero() {
		return
	}
	if a.Email != email {
		a.Email = email
		a.EmailVerified = false
	}
}

// ChangePassword verifies the old plaintext against the stored credential and
// replaces it with the new one.
func (a *Account) ChangePassword(oldPlain string, newPassword Password, hasher PasswordHasher) error {
	if !a.HasPassword() {
		return ErrPasswordNotSet
	}

	ok, err := hasher.Verify(oldPlain, a.Password.Hash())
	if err != nil {
		return fmt.Errorf("verify old password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	a.Password = newPassword
	return nil
}

// RecordLogIn stamps the last-login timestamp.
func (a *Account) RecordLogIn() {
	now := time.Now()
	a.LastLoginAt = &now
}

// Suspend moves any non-deleted account to suspended.
func (a *Account) Suspend() {
	if a.Status.CanBeDeleted() {
		a.Status = AccountStatusSuspended
	}
}

// Activate moves a suspended account back to active; no-op otherwise.
func (a *Account) Activate() {
	if a.Status == AccountStatusSuspended {
		a.Status = AccountStatusActive
	}
}

// MarkAsDeleted moves any non-deleted account to the terminal deleted state.
func (a *Account) MarkAsDeleted() {
	if a.Status.CanBeDeleted() {
		a.Status = AccountStatusDeleted
	}
}

// HasPassword reports whether a password credential is set.
func (a *Account) HasPassword() bool {
	return !a.Password.IsZero()
}

// CanLogIn reports whether the account is active with a verified email.
func (a *Account) CanLogIn() bool {
	return a.Status.IsActive() && a.EmailVerified
}

// AddOAuthProvider binds a provider, rejecting duplicates by name.
func (a *Account) AddOAuthProvider(provider OAuthProvider) error {
	if a.hasProviderType(provider) {
		return fmt.Errorf("%w: %s", ErrOAuthProviderAlreadyBound, provider.ProviderName)
	}
	a.OAuthProviders = append(a.OAuthProviders, provider)
	return nil
}

func (a *Account) hasProviderType(provider OAuthProvider) bool {
	for _, p := range a.OAuthProviders {
		if p.IsSameProvider(provider.ProviderName) {
			return true
		}
	}
	return false
}
