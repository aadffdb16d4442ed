package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/1trippycat/vaultrunner/internal/audit"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/keystore"
)

func TestSecureInit_GeneratesToken(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	result, err := SecureInit(context.Background(), store, SecureInitOptions{
		Password: []byte("correct-horse"),
		VaultDir: vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.TokenGenerated {
		t.Errorf("Expected a generated token")
	}
	if len(result.Token) != 64 {
		t.Errorf("Expected a 64-character hex token, got: %d characters", len(result.Token))
	}

	// The stored credential must round-trip through the key store.
	credential, err := store.Unlock([]byte("correct-horse"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(credential) != result.Token {
		t.Errorf("Expected stored credential to match the returned token")
	}
}

func TestSecureInit_SuppliedToken(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	result, err := SecureInit(context.Background(), store, SecureInitOptions{
		Password: []byte("correct-horse"),
		Token:    "root-token-123",
		VaultDir: vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.TokenGenerated {
		t.Errorf("Expected the supplied token to be used as-is")
	}
	if result.Token != "root-token-123" {
		t.Errorf("Expected root-token-123, got: %q", result.Token)
	}
}

func TestSecureInit_AlreadyInitialized(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	opts := SecureInitOptions{Password: []byte("correct-horse"), VaultDir: vaultDir}
	if _, err := SecureInit(context.Background(), store, opts); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err := SecureInit(context.Background(), store, opts)
	if !errors.Is(err, vrerrors.ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got: %v", err)
	}
}

func TestSecureInit_WithTLS(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	result, err := SecureInit(context.Background(), store, SecureInitOptions{
		Password:    []byte("correct-horse"),
		GenerateTLS: true,
		VaultDir:    vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.CertPath == "" || result.KeyPath == "" {
		t.Fatalf("Expected TLS paths to be set, got: %+v", result)
	}
	for _, path := range []string{result.CertPath, result.KeyPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s to exist, got: %v", path, err)
		}
	}
}

func TestSecureInit_WritesAuditEntry(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	if _, err := SecureInit(context.Background(), store, SecureInitOptions{
		Password: []byte("correct-horse"),
		VaultDir: vaultDir,
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entries, err := audit.ReadEntries(vaultDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "secure-init" {
		t.Errorf("Expected one secure-init audit entry, got: %+v", entries)
	}
}

func TestRevealToken(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	if _, err := SecureInit(context.Background(), store, SecureInitOptions{
		Password: []byte("correct-horse"),
		Token:    "root-token-123",
		VaultDir: vaultDir,
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	token, err := RevealToken(context.Background(), store, RevealTokenOptions{
		Password: []byte("correct-horse"),
		VaultDir: vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if token != "root-token-123" {
		t.Errorf("Expected root-token-123, got: %q", token)
	}

	if _, err := RevealToken(context.Background(), store, RevealTokenOptions{
		Password: []byte("wrong-horse"),
		VaultDir: vaultDir,
	}); !errors.Is(err, vrerrors.ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword, got: %v", err)
	}
}

func TestChangePassword_Workflow(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	if _, err := SecureInit(context.Background(), store, SecureInitOptions{
		Password: []byte("correct-horse"),
		Token:    "root-token-123",
		VaultDir: vaultDir,
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := ChangePassword(context.Background(), store, ChangePasswordOptions{
		OldPassword: []byte("correct-horse"),
		NewPassword: []byte("battery-staple"),
		VaultDir:    vaultDir,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	credential, err := store.Unlock([]byte("battery-staple"))
	if err != nil {
		t.Fatalf("Expected new password to unlock, got: %v", err)
	}
	if string(credential) != "root-token-123" {
		t.Errorf("Expected credential to survive rotation, got: %q", credential)
	}
}

func TestExportKey_Workflow(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), ".vault")
	store := keystore.New(vaultDir)

	if _, err := SecureInit(context.Background(), store, SecureInitOptions{
		Password: []byte("correct-horse"),
		VaultDir: vaultDir,
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "escrow.enc")
	if err := ExportKey(context.Background(), store, ExportKeyOptions{
		DestinationPath: dst,
		VaultDir:        vaultDir,
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("Expected exported file to exist, got: %v", err)
	}
}
