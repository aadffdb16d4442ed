package workflows

import (
	"context"

	"github.com/1trippycat/vaultrunner/internal/audit"
	"github.com/1trippycat/vaultrunner/internal/keystore"
)

// ChangePasswordOptions configures the change-password workflow.
type ChangePasswordOptions struct {
	// OldPassword unlocks the current key store.
	OldPassword []byte

	// NewPassword encrypts the credential going forward.
	NewPassword []byte

	// VaultDir is the local state directory.
	VaultDir string
}

// ChangePassword re-encrypts the root credential under the new password with
// a fresh salt and nonce, replacing the key store file atomically.
//
// Returns ErrInvalidPassword if the old password does not unlock the store,
// ErrKeyStoreNotFound if no key store exists.
func ChangePassword(ctx context.Context, store *keystore.Store, opts ChangePasswordOptions) error {
	if err := store.ChangePassword(opts.OldPassword, opts.NewPassword); err != nil {
		return err
	}
	audit.Log(opts.VaultDir, audit.Entry{Operation: "change-password"})
	return nil
}

// ExportKeyOptions configures the export-key workflow.
type ExportKeyOptions struct {
	// DestinationPath receives the verbatim copy of the encrypted blob.
	DestinationPath string

	// VaultDir is the local state directory.
	VaultDir string
}

// ExportKey copies the encrypted key store blob to the destination. The blob
// is already encrypted at rest, so this never touches plaintext and needs no
// password.
func ExportKey(ctx context.Context, store *keystore.Store, opts ExportKeyOptions) error {
	if err := store.Export(opts.DestinationPath); err != nil {
		return err
	}
	audit.Log(opts.VaultDir, audit.Entry{
		Operation:  "export-key",
		OutputPath: opts.DestinationPath,
	})
	return nil
}

// RevealTokenOptions configures the token-reveal workflow.
type RevealTokenOptions struct {
	// Password unlocks the key store.
	Password []byte

	// VaultDir is the local state directory.
	VaultDir string
}

// RevealToken decrypts and returns the root credential after password
// verification, for operators who need the raw token (e.g. to configure
// another tool). The token is returned to the caller for display only and
// is never logged.
func RevealToken(ctx context.Context, store *keystore.Store, opts RevealTokenOptions) (string, error) {
	credential, err := store.Unlock(opts.Password)
	if err != nil {
		return "", err
	}
	audit.Log(opts.VaultDir, audit.Entry{Operation: "reveal-token"})
	return string(credential), nil
}
