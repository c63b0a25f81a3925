package domain

import "errors"

var (
	// ErrInvalidEmail indicates the supplied email does not satisfy the format rules.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrInvalidLogin indicates the supplied login does not satisfy the format rules.
	ErrInvalidLogin = errors.New("invalid login format")
	// ErrInvalidVerificationCode indicates the code is malformed or does not match.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	// ErrPasswordNotSet indicates the account has no password credential (OAuth-only account).
	ErrPasswordNotSet = errors.New("password not set")
	// ErrInvalidCredentials indicates the supplied password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOAuthProviderAlreadyBound indicates a provider with the same name is already linked.
	ErrOAuthProviderAlreadyBound = errors.New("oauth provider already bound")
)
