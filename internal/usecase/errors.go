package usecase

import "errors"

var (
	// ErrAccountNotFound indicates no account matches the identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailAlreadyExists indicates the email is taken by a live or deleted account.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrLoginAlreadyExists indicates the login is taken by a live or deleted account.
	ErrLoginAlreadyExists = errors.New("login already exists")
	// ErrVerificationCodeExpired indicates the staged code is absent or elapsed.
	ErrVerificationCodeExpired = errors.New("verification code expired")
	// ErrRegistrationDataMissing indicates the staged registration blob is absent.
	ErrRegistrationDataMissing = errors.New("registration data not found")
	// ErrAccountSuspended indicates the account is suspended.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountDeleted indicates the account has been deleted.
	ErrAccountDeleted = errors.New("account deleted")
	// ErrEmailNotVerified indicates login is gated on email verification.
	ErrEmailNotVerified = errors.New("email not verified")
)
