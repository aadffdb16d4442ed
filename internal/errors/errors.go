package errors

import "errors"

// Key store errors indicate problems with the local encrypted key store.
var (
	// ErrAlreadyInitialized indicates a key store already exists and --force was not given.
	ErrAlreadyInitialized = errors.New("secure key store is already initialized")

	// ErrKeyStoreNotFound indicates no key store exists yet.
	ErrKeyStoreNotFound = errors.New("secure key store not found")

	// ErrInvalidPassword indicates authenticated decryption failed.
	// The message deliberately does not distinguish a wrong password from a
	// tampered blob; the distinction would leak information to an attacker.
	ErrInvalidPassword = errors.New("invalid password or corrupted data")

	// ErrCorruptKeyStore indicates the key store file is structurally unreadable.
	ErrCorruptKeyStore = errors.New("key store file is corrupted")
)

// Backup errors indicate problems creating or consuming encrypted backups.
var (
	// ErrCorruptBackup indicates the backup file is structurally unreadable.
	ErrCorruptBackup = errors.New("backup file is corrupted")

	// ErrBackupIncomplete indicates a secret read failed during backup creation.
	// No backup file is written when this is returned.
	ErrBackupIncomplete = errors.New("backup incomplete: not all secrets could be read")

	// ErrPartialRestore indicates some, but not all, secrets were written back
	// to the store during a restore. The accompanying result lists exactly
	// which paths failed.
	ErrPartialRestore = errors.New("restore completed with failures")
)

// Remote store errors indicate problems talking to the secret store.
var (
	// ErrAuthentication indicates the store rejected the root credential.
	ErrAuthentication = errors.New("secret store rejected the credential")

	// ErrStoreUnreachable indicates a network or timeout failure.
	ErrStoreUnreachable = errors.New("secret store is unreachable")

	// ErrSecretNotFound indicates no secret exists at the requested path.
	ErrSecretNotFound = errors.New("secret not found")
)

// Input errors indicate invalid operator-supplied values.
var (
	// ErrInvalidNamespace indicates an empty or unsafe namespace name.
	ErrInvalidNamespace = errors.New("invalid namespace name")

	// ErrInvalidSecretPath indicates an empty or unsafe secret path.
	ErrInvalidSecretPath = errors.New("invalid secret path")

	// ErrInvalidUsage indicates a malformed command invocation.
	ErrInvalidUsage = errors.New("invalid invocation")
)

// Interaction errors indicate the operator declined or aborted an operation.
var (
	// ErrUserAborted indicates the operator declined a confirmation prompt.
	ErrUserAborted = errors.New("aborted by user")

	// ErrPasswordMismatch indicates a password confirmation did not match.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrTooManyAttempts indicates the capped password retry count was exhausted.
	ErrTooManyAttempts = errors.New("too many failed password attempts")
)
