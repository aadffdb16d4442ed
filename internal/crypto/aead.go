package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// NonceSize is the size of GCM nonces in bytes.
	NonceSize = 12

	// TagSize is the size of GCM authentication tags in bytes. The tag is
	// appended to the ciphertext by Seal.
	TagSize = 16
)

var (
	// ErrInvalidKeySize is returned when a key has an incorrect size.
	ErrInvalidKeySize = errors.New("key must be 32 bytes")

	// ErrInvalidCiphertext is returned when ciphertext is shorter than a tag.
	ErrInvalidCiphertext = errors.New("ciphertext too short")

	// ErrDecryptFailed is returned when authenticated decryption fails. This
	// covers both a wrong key and tampered ciphertext or metadata; the two
	// cases are indistinguishable by construction.
	ErrDecryptFailed = errors.New("authenticated decryption failed")
)

// Encrypt encrypts plaintext using AES-256-GCM with a fresh random nonce.
// The additional data is bound into the authentication tag without being
// encrypted; any later change to it makes decryption fail. The nonce is
// returned separately so callers can store it alongside the ciphertext.
func Encrypt(key, plaintext, additional []byte) (nonce, ciphertext []byte, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = aead.Seal(nil, nonce, plaintext, additional)
	return nonce, ciphertext, nil
}

// Decrypt decrypts AES-256-GCM ciphertext produced by Encrypt. The additional
// data must match what was passed to Encrypt byte for byte, otherwise
// ErrDecryptFailed is returned.
func Decrypt(key, nonce, ciphertext, additional []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, ErrDecryptFailed
	}
	if len(ciphertext) < TagSize {
		return nil, ErrInvalidCiphertext
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
