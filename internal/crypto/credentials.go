// Package crypto implements the credential delegates used by the identity store.
// The marketplace treats a stored credential as opaque bytes; only the delegate
// knows how to produce and compare them.
package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Credentials seals passwords for storage and matches them on login.
type Credentials interface {
	Seal(password string) ([]byte, error)
	Match(password string, stored []byte) bool
}

// Plain stores the password verbatim and compares by equality.
type Plain struct{}

// Seal implements Credentials.
func (Plain) Seal(password string) ([]byte, error) { return []byte(password), nil }

// Match implements Credentials.
func (Plain) Match(password string, stored []byte) bool {
	return bytes.Equal([]byte(password), stored)
}

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

// Argon2 stores salt||argon2id(password, salt).
type Argon2 struct{}

// Seal implements Credentials.
func (Argon2) Seal(password string) ([]byte, error) {
	salt, err := RandBytes(saltLen)
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	return append(salt, hashPassword([]byte(password), salt)...), nil
}

// Match implements Credentials.
func (Argon2) Match(password string, stored []byte) bool {
	if len(stored) != saltLen+int(argonKeyLen) {
		return false
	}
	salt, want := stored[:saltLen], stored[saltLen:]
	got := hashPassword([]byte(password), salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// ByName returns the delegate configured by name: "plain" or "argon2".
func ByName(name string) (Credentials, error) {
	switch name {
	case "", "plain":
		return Plain{}, nil
	case "argon2":
		return Argon2{}, nil
	}
	return nil, fmt.Errorf("unknown credentials scheme %q", name)
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

func hashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}
