package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const maxEmailLength = 255

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9]+@[A-Za-z0-9.-]+\.[A-Za-z]+$`)

// Email is a validated, normalized email address.
// Two Email values differing only by case or surrounding whitespace compare equal.
type Email struct {
	value string
}

// NewEmail validates and normalizes the raw address (trimmed, lowercased).
func NewEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Email{}, fmt.Errorf("%w: empty value", ErrInvalidEmail)
	}
	if len(raw) > maxEmailLength {
		return Email{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidEmail, maxEmailLength)
	}
	if !emailPattern.MatchString(trimmed) {
		return Email{}, fmt.Errorf("%w: %q", ErrInvalidEmail, trimmed)
	}

	return Email{value: strings.ToLower(trimmed)}, nil
}

// String returns the normalized address.
func (e Email) String() string {
	return e.value
}

// IsZero reports whether the value is the uninitialized Email.
func (e Email) IsZero() bool {
	return e.value == ""
}
