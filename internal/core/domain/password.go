package domain

import (
	"errors"
	"fmt"
	"unicode"
)

const minPasswordLength = 8

var (
	// ErrPasswordTooShort indicates the plaintext is shorter than the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	// ErrPasswordNoUppercase indicates the plaintext lacks an uppercase letter.
	ErrPasswordNoUppercase = errors.New("password must contain at least one uppercase letter")
	// ErrPasswordNoLowercase indicates the plaintext lacks a lowercase letter.
	ErrPasswordNoLowercase = errors.New("password must contain at least one lowercase letter")
	// ErrPasswordNoDigit indicates the plaintext lacks a digit.
	ErrPasswordNoDigit = errors.New("password must contain at least one digit")
	// ErrPasswordBlank indicates an empty plaintext or hash.
	ErrPasswordBlank = errors.New("password cannot be blank")
)

// PasswordHasher abstracts the one-way hash used for password credentials.
// Verify must use a constant-time comparison.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// Password holds a hashed password credential. Plaintext is never retained.
type Password struct {
	hash string
}

// PasswordFromHash wraps an already-hashed credential.
func PasswordFromHash(hash string) (Password, error) {
	if hash == "" {
		return Password{}, fmt.Errorf("hashed value: %w", ErrPasswordBlank)
	}
	return Password{hash: hash}, nil
}

// PasswordFromPlainText checks the plaintext against the password policy and
// hashes it. Policy rules are evaluated before the hasher is invoked.
func PasswordFromPlainText(plain string, hasher PasswordHasher) (Password, error) {
	if err := ValidatePasswordPolicy(plain); err != nil {
		return Password{}, err
	}

	hash, err := hasher.Hash(plain)
	if err != nil {
		return Password{}, fmt.Errorf("hash password: %w", err)
	}

	return PasswordFromHash(hash)
}

// ValidatePasswordPolicy enforces the plaintext rules: minimum length,
// at least one uppercase letter, one lowercase letter, and one digit.
func ValidatePasswordPolicy(plain string) error {
	if plain == "" {
		return ErrPasswordBlank
	}
	if len([]rune(plain)) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUppercase
	case !hasLower:
		return ErrPasswordNoLowercase
	case !hasDigit:
		return ErrPasswordNoDigit
	}

	return nil
}

// Hash returns the encoded hash.
func (p Password) Hash() string {
	return p.hash
}

// IsZero reports whether the credential is absent.
func (p Password) IsZero() bool {
	return p.hash == ""
}
