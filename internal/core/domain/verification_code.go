package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// VerificationCodeTTL is the validity window for registration codes.
const VerificationCodeTTL = 10 * time.Minute

var verificationCodePattern = regexp.MustCompile(`^\d{6}$`)

// VerificationCode is a 6-digit, zero-padded code with an expiry.
type VerificationCode struct {
	code      string
	expiresAt time.Time
}

// GenerateVerificationCode produces a random 6-digit code valid for VerificationCodeTTL.
func GenerateVerificationCode() (VerificationCode, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return VerificationCode{}, fmt.Errorf("generate verification code: %w", err)
	}

	return VerificationCode{
		code:      fmt.Sprintf("%06d", n.Int64()),
		expiresAt: time.Now().Add(VerificationCodeTTL),
	}, nil
}

// VerificationCodeOf reconstructs a code from its stored string and expiry.
// The code must be exactly 6 ASCII digits.
func VerificationCodeOf(code string, expiresAt time.Time) (VerificationCode, error) {
	if !verificationCodePattern.MatchString(code) {
		return VerificationCode{}, fmt.Errorf("%w: expected 6 digits", ErrInvalidVerificationCode)
	}
	return VerificationCode{code: code, expiresAt: expiresAt}, nil
}

// Code returns the 6-digit string.
func (c VerificationCode) Code() string {
	return c.code
}

// ExpiresAt returns the expiry instant.
func (c VerificationCode) ExpiresAt() time.Time {
	return c.expiresAt
}

// IsExpired reports whether the code has elapsed its validity window.
func (c VerificationCode) IsExpired() bool {
	return time.Now().After(c.expiresAt)
}

// Matches reports exact string equality with the supplied code.
func (c VerificationCode) Matches(code string) bool {
	return c.code == code
}
