package domain

import (
	"errors"
	"testing"
)

type stubHasher struct {
	hashResult string
	hashErr    error
	verifyOK   bool
	verifyErr  error

	lastPlain   string
	lastEncoded string
}

func (s *stubHasher) Hash(plain string) (string, error) {
	s.lastPlain = plain
	if s.hashErr != nil {
		return "", s.hashErr
	}
	if s.hashResult != "" {
		return s.hashResult, nil
	}
	return "hashed:" + plain, nil
}

func (s *stubHasher) Verify(plain, encoded string) (bool, error) {
	s.lastPlain = plain
	s.lastEncoded = encoded
	return s.verifyOK, s.verifyErr
}

func TestValidatePasswordPolicy(t *testing.T) {
	cases := []struct {
		name     string
		plain    string
		expected error
	}{
		{"blank", "", ErrPasswordBlank},
		{"too short", "Ab1", ErrPasswordTooShort},
		{"no uppercase", "password123", ErrPasswordNoUppercase},
		{"no lowercase", "PASSWORD123", ErrPasswordNoLowercase},
		{"no digit", "PasswordOnly", ErrPasswordNoDigit},
		{"valid", "Password123", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tc.plain)
			if tc.expected == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestPasswordFromPlainTextChecksPolicyBeforeHashing(t *testing.T) {
	hasher := &stubHasher{}

	if _, err := PasswordFromPlainText("short", hasher); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if hasher.lastPlain != "" {
		t.Fatal("hasher must not be invoked for a rejected password")
	}

	password, err := PasswordFromPlainText("Password123", hasher)
	if err != nil {
		t.Fatalf("PasswordFromPlainText returned error: %v", err)
	}
	if password.Hash() != "hashed:Password123" {
		t.Fatalf("unexpected hash %q", password.Hash())
	}
}

func TestPasswordFromHash(t *testing.T) {
	if _, err := PasswordFromHash(""); !errors.Is(err, ErrPasswordBlank) {
		t.Fatalf("expected ErrPasswordBlank, got %v", err)
	}

	password, err := PasswordFromHash("$argon2id$...")
	if err != nil {
		t.Fatalf("PasswordFromHash returned error: %v", err)
	}
	if password.IsZero() {
		t.Fatal("password with a hash should not be zero")
	}
}
