package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var loginPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Login is a validated account login name.
type Login struct {
	value string
}

// NewLogin validates and trims the raw login.
func NewLogin(raw string) (Login, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Login{}, fmt.Errorf("%w: empty value", ErrInvalidLogin)
	}
	if !loginPattern.MatchString(trimmed) {
		return Login{}, fmt.Errorf("%w: %q", ErrInvalidLogin, trimmed)
	}

	return Login{value: trimmed}, nil
}

// String returns the trimmed login.
func (l Login) String() string {
	return l.value
}

// IsZero reports whether the value is the uninitialized Login.
func (l Login) IsZero() bool {
	return l.value == ""
}
