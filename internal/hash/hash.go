// Package hash provides one-way hashing and verification for passwords and
// opaque tokens. bcrypt is adaptive and salted; comparison is constant-time.
package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptySecret is returned when an empty secret reaches the hasher;
// validation should have rejected it upstream.
var ErrEmptySecret = errors.New("secret must not be empty")

// Secret hashes a raw secret with bcrypt at the default cost (10 rounds).
// The raw value is never logged or stored.
func Secret(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptySecret
	}
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether raw matches the stored bcrypt hash.
func Verify(raw, hashed string) bool {
	if raw == "" || hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}
