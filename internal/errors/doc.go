// Package errors provides typed error values for the VaultRunner application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Key store errors: local encrypted credential file (ErrInvalidPassword)
//   - Backup errors: encrypted snapshot handling (ErrBackupIncomplete)
//   - Remote store errors: the secret store API (ErrStoreUnreachable)
//   - Input errors: operator-supplied values (ErrInvalidNamespace)
//   - Interaction errors: prompts and confirmations (ErrUserAborted)
//
// # Usage
//
// Return errors from internal packages:
//
//	if !store.Exists() {
//	    return nil, errors.ErrKeyStoreNotFound
//	}
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.BackupRestore(ctx, eng, opts)
//	if errors.Is(err, vrerrors.ErrPartialRestore) {
//	    // Report failed paths and exit with the partial-failure code.
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("%w: namespace %s", errors.ErrInvalidNamespace, name)
//
// The exit-code mapping in main relies on these sentinels: ErrInvalidUsage
// maps to 2, ErrUserAborted to 3, ErrPartialRestore to 4, and everything
// else non-nil to 1.
package errors
