package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/1trippycat/vaultrunner/internal/utils"
)

// FormatVersion is the current on-disk blob format version.
const FormatVersion = 1

// ErrMalformedBlob is returned when a blob file cannot be parsed or is
// missing required fields. This is structural corruption, distinct from an
// authentication failure during decryption.
var ErrMalformedBlob = errors.New("malformed encrypted blob")

// Metadata is the cleartext portion of a blob, stored unencrypted so
// operators can identify a file without decrypting it. All fields are bound
// into the authentication tag as additional data: editing any of them makes
// decryption fail.
type Metadata struct {
	FormatVersion int       `json:"format_version"`
	BlobID        string    `json:"blob_id"`
	CreatedAt     time.Time `json:"created_at"`

	// Namespaces and SecretCount are set for backup blobs only.
	Namespaces  []string `json:"namespaces,omitempty"`
	SecretCount int      `json:"secret_count,omitempty"`
}

// Blob is the on-disk representation of any encrypted artifact: the root
// credential file or an encrypted backup. Byte fields are base64-encoded in
// JSON. The ciphertext carries the GCM authentication tag as its final 16
// bytes.
type Blob struct {
	Metadata
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// additionalData returns the canonical byte encoding of the metadata used as
// AAD. Struct fields marshal in declaration order, so the encoding is
// deterministic for a given metadata value.
func (m Metadata) additionalData() ([]byte, error) {
	aad, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding blob metadata: %w", err)
	}
	return aad, nil
}

// Seal encrypts plaintext under a key derived from password with a fresh
// salt and nonce, producing a complete blob. The metadata's format version,
// blob ID, and creation time are populated here.
func Seal(password, plaintext []byte, meta Metadata) (*Blob, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	meta.FormatVersion = FormatVersion
	meta.BlobID = uuid.New().String()
	meta.CreatedAt = time.Now().UTC().Truncate(time.Second)

	aad, err := meta.additionalData()
	if err != nil {
		return nil, err
	}

	key := DeriveKey(password, salt, DefaultIterations)
	nonce, ciphertext, err := Encrypt(key, plaintext, aad)
	if err != nil {
		return nil, err
	}

	return &Blob{
		Metadata:   meta,
		Salt:       salt,
		Iterations: DefaultIterations,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// Key derives the blob's decryption key from a password using the blob's own
// salt and iteration count.
func (b *Blob) Key(password []byte) []byte {
	return DeriveKey(password, b.Salt, b.Iterations)
}

// Open decrypts the blob with a key derived from password. Returns
// ErrDecryptFailed for a wrong password or any tampering of ciphertext or
// metadata.
func (b *Blob) Open(password []byte) ([]byte, error) {
	return b.OpenWithKey(b.Key(password))
}

// OpenWithKey decrypts the blob with an already-derived key. Used by the
// password session to avoid re-deriving the key for every operation.
func (b *Blob) OpenWithKey(key []byte) ([]byte, error) {
	aad, err := b.Metadata.additionalData()
	if err != nil {
		return nil, err
	}
	return Decrypt(key, b.Nonce, b.Ciphertext, aad)
}

// validate checks structural integrity of a decoded blob.
func (b *Blob) validate() error {
	if b.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: unsupported format version %d", ErrMalformedBlob, b.FormatVersion)
	}
	if len(b.Salt) != SaltSize {
		return fmt.Errorf("%w: bad salt length %d", ErrMalformedBlob, len(b.Salt))
	}
	if len(b.Nonce) != NonceSize {
		return fmt.Errorf("%w: bad nonce length %d", ErrMalformedBlob, len(b.Nonce))
	}
	if len(b.Ciphertext) < TagSize {
		return fmt.Errorf("%w: ciphertext shorter than authentication tag", ErrMalformedBlob)
	}
	if b.Iterations <= 0 {
		return fmt.Errorf("%w: non-positive iteration count", ErrMalformedBlob)
	}
	return nil
}

// WriteFile writes the blob to path atomically with owner-only permissions.
// A crash mid-write leaves either the previous file or the new one, never a
// truncated blob.
func (b *Blob) WriteFile(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding blob: %w", err)
	}
	return utils.WriteFileAtomic(path, append(data, '\n'), 0600)
}

// ReadFile reads and structurally validates a blob from path. It does not
// attempt decryption.
func ReadFile(path string) (*Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
