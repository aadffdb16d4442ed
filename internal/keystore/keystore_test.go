package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
)

// initStore is a helper that initializes a fresh key store in a temp dir.
func initStore(t *testing.T, password, credential string) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), ".vault"))
	if _, err := store.Initialize([]byte(password), []byte(credential), false); err != nil {
		t.Fatalf("Failed to initialize key store: %v", err)
	}
	return store
}

func TestInitializeUnlock_Roundtrip(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	if !store.Exists() {
		t.Fatalf("Expected key store to exist after Initialize")
	}

	credential, err := store.Unlock([]byte("correct-horse"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(credential) != "root-token-123" {
		t.Errorf("Expected root-token-123, got: %q", credential)
	}
}

func TestInitialize_OwnerOnlyPermissions(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Expected key file to exist, got: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected permissions 0600, got: %o", perm)
	}
}

func TestInitialize_AlreadyInitialized(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	_, err := store.Initialize([]byte("other"), []byte("other-token"), false)
	if !errors.Is(err, vrerrors.ErrAlreadyInitialized) {
		t.Fatalf("Expected ErrAlreadyInitialized, got: %v", err)
	}

	// The original credential must be untouched.
	credential, err := store.Unlock([]byte("correct-horse"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(credential) != "root-token-123" {
		t.Errorf("Expected original credential to survive, got: %q", credential)
	}
}

func TestInitialize_ForceReplaces(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	if _, err := store.Initialize([]byte("new-pass"), []byte("new-token"), true); err != nil {
		t.Fatalf("Expected no error with force, got: %v", err)
	}

	credential, err := store.Unlock([]byte("new-pass"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(credential) != "new-token" {
		t.Errorf("Expected new-token, got: %q", credential)
	}
}

func TestUnlock_WrongPassword(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	_, err := store.Unlock([]byte("wrong-horse"))
	if !errors.Is(err, vrerrors.ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword, got: %v", err)
	}
}

func TestUnlock_NoKeyStore(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), ".vault"))

	_, err := store.Unlock([]byte("anything"))
	if !errors.Is(err, vrerrors.ErrKeyStoreNotFound) {
		t.Errorf("Expected ErrKeyStoreNotFound, got: %v", err)
	}
}

func TestUnlock_CorruptKeyStore(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), ".vault"))
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0700); err != nil {
		t.Fatalf("Failed to create keys dir: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte("not a blob"), 0600); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	_, err := store.Unlock([]byte("correct-horse"))
	if !errors.Is(err, vrerrors.ErrCorruptKeyStore) {
		t.Errorf("Expected ErrCorruptKeyStore, got: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	if err := store.ChangePassword([]byte("correct-horse"), []byte("battery-staple")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, err := store.Unlock([]byte("correct-horse")); !errors.Is(err, vrerrors.ErrInvalidPassword) {
		t.Errorf("Expected old password to stop working, got: %v", err)
	}

	credential, err := store.Unlock([]byte("battery-staple"))
	if err != nil {
		t.Fatalf("Expected new password to work, got: %v", err)
	}
	if string(credential) != "root-token-123" {
		t.Errorf("Expected credential to survive rotation, got: %q", credential)
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	before, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("Failed to read key file: %v", err)
	}

	err = store.ChangePassword([]byte("wrong-horse"), []byte("battery-staple"))
	if !errors.Is(err, vrerrors.ErrInvalidPassword) {
		t.Fatalf("Expected ErrInvalidPassword, got: %v", err)
	}

	after, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("Failed to read key file: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("Expected key file to be untouched after failed rotation")
	}
}

func TestChangePassword_NoTempFileLeftBehind(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	if err := store.ChangePassword([]byte("correct-horse"), []byte("battery-staple")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("Failed to read keys dir: %v", err)
	}
	for _, e := range entries {
		name := e.Name()
		if name != keyFileName && name != lockFileName {
			t.Errorf("Unexpected leftover file in keys dir: %s", name)
		}
	}
}

func TestExport_VerbatimCopy(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	dst := filepath.Join(t.TempDir(), "escrow", "vault_key.enc")
	if err := store.Export(dst); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	original, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("Failed to read key file: %v", err)
	}
	exported, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("Failed to read exported file: %v", err)
	}
	if !bytes.Equal(original, exported) {
		t.Errorf("Expected export to be byte-identical to the key file")
	}

	// The export must still be encrypted.
	if strings.Contains(string(exported), "root-token-123") {
		t.Errorf("Exported file contains the plaintext credential")
	}
}

func TestExport_NoKeyStore(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), ".vault"))

	err := store.Export(filepath.Join(t.TempDir(), "out.enc"))
	if !errors.Is(err, vrerrors.ErrKeyStoreNotFound) {
		t.Errorf("Expected ErrKeyStoreNotFound, got: %v", err)
	}
}

func TestSession_PromptsOnce(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	prompts := 0
	promptFn := func(prompt string) ([]byte, error) {
		prompts++
		return []byte("correct-horse"), nil
	}

	sess := NewSession()
	defer sess.Clear()

	for i := 0; i < 3; i++ {
		credential, err := store.UnlockWithSession(sess, promptFn)
		if err != nil {
			t.Fatalf("Expected no error on unlock %d, got: %v", i, err)
		}
		if string(credential) != "root-token-123" {
			t.Errorf("Expected root-token-123, got: %q", credential)
		}
	}

	if prompts != 1 {
		t.Errorf("Expected exactly 1 prompt for 3 unlocks, got: %d", prompts)
	}
}

func TestSession_ForgetsAfterWrongPassword(t *testing.T) {
	store := initStore(t, "correct-horse", "root-token-123")

	passwords := []string{"wrong-horse", "correct-horse"}
	prompts := 0
	promptFn := func(prompt string) ([]byte, error) {
		pw := passwords[prompts]
		prompts++
		return []byte(pw), nil
	}

	sess := NewSession()
	defer sess.Clear()

	if _, err := store.UnlockWithSession(sess, promptFn); !errors.Is(err, vrerrors.ErrInvalidPassword) {
		t.Fatalf("Expected ErrInvalidPassword, got: %v", err)
	}

	// A retry must re-prompt instead of reusing the bad cached key.
	credential, err := store.UnlockWithSession(sess, promptFn)
	if err != nil {
		t.Fatalf("Expected retry to succeed, got: %v", err)
	}
	if string(credential) != "root-token-123" {
		t.Errorf("Expected root-token-123, got: %q", credential)
	}
	if prompts != 2 {
		t.Errorf("Expected 2 prompts, got: %d", prompts)
	}
}

func TestSession_ClearZeroes(t *testing.T) {
	sess := NewSession()
	pw, err := sess.Passphrase("pw: ", func(string) ([]byte, error) {
		return []byte("correct-horse"), nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	sess.Clear()

	for i, b := range pw {
		if b != 0 {
			t.Fatalf("Expected passphrase byte %d to be zeroed", i)
		}
	}
	if len(sess.keys) != 0 {
		t.Errorf("Expected key cache to be empty after Clear")
	}
}
