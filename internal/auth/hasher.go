package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing these invalidates stored hashes, so they are
// fixed constants rather than configuration.
const (
	saltLength = 16
	iterations = 1000
	keyLength  = 64
)

// Hasher errors
var (
	ErrMalformedHash = errors.New("malformed password hash")
)

// PasswordHasher derives and verifies salted PBKDF2-SHA512 digests encoded
// as "salt:digest" in hex. A fresh random salt is drawn per Hash call, so
// hashing the same plaintext twice never yields the same output.
type PasswordHasher struct{}

// NewPasswordHasher creates a new PasswordHasher instance.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash derives a salted digest for the plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	digest := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha512.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(digest), nil
}

// Verify recomputes the digest for password with the salt stored in encoded
// and compares in constant time. It returns false for a mismatch and an
// error only when encoded is not a valid "salt:digest" pair.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	saltHex, digestHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return false, ErrMalformedHash
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, ErrMalformedHash
	}
	stored, err := hex.DecodeString(digestHex)
	if err != nil {
		return false, ErrMalformedHash
	}
	if len(stored) != keyLength {
		return false, ErrMalformedHash
	}

	computed := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha512.New)
	return subtle.ConstantTimeCompare(computed, stored) == 1, nil
}
