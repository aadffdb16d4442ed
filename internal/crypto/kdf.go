package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size of derived AES-256 keys in bytes.
	KeySize = 32

	// SaltSize is the size of key-derivation salts in bytes.
	SaltSize = 16

	// DefaultIterations is the PBKDF2-HMAC-SHA256 work factor. Tuned so one
	// derivation takes on the order of 100ms on commodity hardware, to slow
	// offline brute-force against captured blobs.
	DefaultIterations = 100_000
)

// DeriveKey derives a 32-byte key from a password and salt using
// PBKDF2-HMAC-SHA256. It is a pure function of its inputs: a wrong password
// yields a key that simply fails the subsequent authenticated decryption,
// derivation itself never fails.
func DeriveKey(password, salt []byte, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
}

// GenerateSalt generates a cryptographically secure random 16-byte salt.
// A fresh salt is generated for every blob; salts are never reused.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateToken generates a random hex-encoded token of n bytes of entropy.
// Used for a fresh root credential during secure initialization.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return fmt.Sprintf("%x", buf), nil
}
