package keystore

import (
	"encoding/hex"

	"github.com/1trippycat/vaultrunner/internal/crypto"
)

// PromptFunc obtains a password from the operator. Implementations must not
// echo input or write it to any log.
type PromptFunc func(prompt string) ([]byte, error)

// Session caches the operator's password and derived keys in memory for the
// lifetime of one command invocation, so the operator is not re-prompted for
// every privileged operation within a run.
//
// A Session is an explicit object passed by reference to every operation
// needing a key, never a process-wide singleton. It holds material in memory
// only: nothing is persisted, and nothing passes through environment
// variables or process arguments. Clear wipes it; process exit discards it
// unconditionally, so there is no cross-invocation session.
type Session struct {
	passphrase []byte
	keys       map[string][]byte // hex(salt) -> derived key
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{keys: make(map[string][]byte)}
}

// Passphrase returns the operator's password, invoking promptFn only on the
// first call.
func (s *Session) Passphrase(prompt string, promptFn PromptFunc) ([]byte, error) {
	if s.passphrase != nil {
		return s.passphrase, nil
	}
	pw, err := promptFn(prompt)
	if err != nil {
		return nil, err
	}
	s.passphrase = pw
	return pw, nil
}

// Key returns the key derived from the session passphrase for the given salt
// and work factor, deriving it at most once per salt. Distinct blobs carry
// distinct salts, so keys are memoized per salt.
func (s *Session) Key(salt []byte, iterations int, prompt string, promptFn PromptFunc) ([]byte, error) {
	id := hex.EncodeToString(salt)
	if key, ok := s.keys[id]; ok {
		return key, nil
	}

	pw, err := s.Passphrase(prompt, promptFn)
	if err != nil {
		return nil, err
	}

	key := crypto.DeriveKey(pw, salt, iterations)
	s.keys[id] = key
	return key, nil
}

// forget drops the cached key for a salt. Called after a failed decryption
// so a later retry re-prompts instead of reusing a key derived from a wrong
// password.
func (s *Session) forget(salt []byte) {
	delete(s.keys, hex.EncodeToString(salt))
	s.zeroPassphrase()
}

// Clear wipes all cached material. Deferred by commands that created the
// session; the cache never outlives the invocation either way.
func (s *Session) Clear() {
	for id, key := range s.keys {
		for i := range key {
			key[i] = 0
		}
		delete(s.keys, id)
	}
	s.zeroPassphrase()
}

func (s *Session) zeroPassphrase() {
	for i := range s.passphrase {
		s.passphrase[i] = 0
	}
	s.passphrase = nil
}
