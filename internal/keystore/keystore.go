package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/1trippycat/vaultrunner/internal/crypto"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/utils"
)

const (
	keysDirName  = "keys"
	keyFileName  = "vault_key.enc"
	lockFileName = ".vault_key.lock"
)

// Store persists the root credential as an encrypted blob on local disk.
// It exclusively owns the credential's encrypted representation; nothing
// else reads or writes the key file.
type Store struct {
	// VaultDir is the local state directory, typically ".vault".
	VaultDir string
}

// New returns a Store rooted at vaultDir.
func New(vaultDir string) *Store {
	return &Store{VaultDir: vaultDir}
}

// Path returns the location of the encrypted key file.
func (s *Store) Path() string {
	return filepath.Join(s.VaultDir, keysDirName, keyFileName)
}

func (s *Store) lockPath() string {
	return filepath.Join(s.VaultDir, keysDirName, lockFileName)
}

// Exists reports whether a key store file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// lock takes an exclusive file lock serializing concurrent invocations of
// Initialize and ChangePassword against the same key store. Without it, two
// processes could both read the old blob and one would silently overwrite
// the other's change.
func (s *Store) lock() (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath()), 0700); err != nil {
		return nil, fmt.Errorf("creating keys directory: %w", err)
	}
	fl := flock.New(s.lockPath())
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("locking key store: %w", err)
	}
	return fl, nil
}

// Initialize encrypts credential under a key derived from password and
// writes the blob with owner-only permissions. Returns ErrAlreadyInitialized
// if a key store exists and force is false; with force, the existing blob is
// replaced (callers are responsible for confirming the destructive path).
func (s *Store) Initialize(password, credential []byte, force bool) (*crypto.Blob, error) {
	fl, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer fl.Unlock()

	if s.Exists() && !force {
		return nil, vrerrors.ErrAlreadyInitialized
	}

	blob, err := crypto.Seal(password, credential, crypto.Metadata{})
	if err != nil {
		return nil, fmt.Errorf("sealing root credential: %w", err)
	}

	if err := blob.WriteFile(s.Path()); err != nil {
		return nil, fmt.Errorf("writing key store: %w", err)
	}

	return blob, nil
}

// Unlock reads the blob, derives the key from the stored salt and the
// supplied password, and returns the decrypted root credential.
//
// A failed authentication tag surfaces as ErrInvalidPassword regardless of
// whether the password was wrong or the file was tampered with; the caller's
// debug log is the only place that detail may appear. A structurally
// unreadable file surfaces as ErrCorruptKeyStore.
func (s *Store) Unlock(password []byte) ([]byte, error) {
	blob, err := s.readBlob()
	if err != nil {
		return nil, err
	}

	credential, err := blob.Open(password)
	if err != nil {
		return nil, vrerrors.ErrInvalidPassword
	}
	return credential, nil
}

// UnlockWithSession is Unlock with the derived key memoized in a password
// session, so repeated privileged operations in one invocation prompt once.
func (s *Store) UnlockWithSession(sess *Session, promptFn PromptFunc) ([]byte, error) {
	blob, err := s.readBlob()
	if err != nil {
		return nil, err
	}

	key, err := sess.Key(blob.Salt, blob.Iterations, "Enter password to unlock vault key: ", promptFn)
	if err != nil {
		return nil, err
	}

	credential, err := blob.OpenWithKey(key)
	if err != nil {
		// Drop the cached key: it was derived from a wrong password.
		sess.forget(blob.Salt)
		return nil, vrerrors.ErrInvalidPassword
	}
	return credential, nil
}

// ChangePassword re-encrypts the root credential under a fresh salt and
// nonce derived from newPassword, replacing the blob atomically. A crash
// mid-write leaves either the old blob or the new one fully intact.
func (s *Store) ChangePassword(oldPassword, newPassword []byte) error {
	fl, err := s.lock()
	if err != nil {
		return err
	}
	defer fl.Unlock()

	credential, err := s.Unlock(oldPassword)
	if err != nil {
		return err
	}

	blob, err := crypto.Seal(newPassword, credential, crypto.Metadata{})
	if err != nil {
		return fmt.Errorf("re-sealing root credential: %w", err)
	}

	if err := blob.WriteFile(s.Path()); err != nil {
		return fmt.Errorf("writing key store: %w", err)
	}
	return nil
}

// Export copies the current encrypted blob verbatim to dstPath. The blob is
// already safe to move off-box; this operation never touches plaintext.
func (s *Store) Export(dstPath string) error {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return vrerrors.ErrKeyStoreNotFound
		}
		return fmt.Errorf("reading key store: %w", err)
	}
	return utils.WriteFileAtomic(dstPath, data, 0600)
}

func (s *Store) readBlob() (*crypto.Blob, error) {
	blob, err := crypto.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vrerrors.ErrKeyStoreNotFound
		}
		if errors.Is(err, crypto.ErrMalformedBlob) {
			return nil, fmt.Errorf("%w: %v", vrerrors.ErrCorruptKeyStore, err)
		}
		return nil, fmt.Errorf("reading key store: %w", err)
	}
	return blob, nil
}
