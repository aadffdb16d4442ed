package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/1trippycat/vaultrunner/internal/audit"
	"github.com/1trippycat/vaultrunner/internal/certgen"
	"github.com/1trippycat/vaultrunner/internal/crypto"
	"github.com/1trippycat/vaultrunner/internal/keystore"
)

// rootTokenBytes is the entropy of a generated root credential.
const rootTokenBytes = 32

// SecureInitOptions configures the secure init workflow.
type SecureInitOptions struct {
	// Password encrypts the root credential at rest.
	Password []byte

	// Token is an existing root credential for the remote store. If empty, a
	// fresh random credential is generated.
	Token string

	// Force replaces an existing key store. The caller must have obtained
	// explicit destructive confirmation before setting this.
	Force bool

	// GenerateTLS also generates a self-signed certificate pair for a local
	// store listener.
	GenerateTLS bool

	// TLSCommonName is the certificate CN when GenerateTLS is set.
	// Defaults to localhost.
	TLSCommonName string

	// VaultDir is the local state directory.
	VaultDir string
}

// SecureInitResult contains the outcome of a secure init operation.
type SecureInitResult struct {
	// KeyStorePath is where the encrypted credential was written.
	KeyStorePath string

	// Token is the root credential that was stored.
	Token string

	// TokenGenerated indicates the credential was freshly generated rather
	// than supplied by the operator.
	TokenGenerated bool

	// CertPath and KeyPath are set when TLS material was generated.
	CertPath string
	KeyPath  string
}

// SecureInit creates the encrypted key store holding the root credential.
//
// Returns ErrAlreadyInitialized if a key store exists and Force is not set.
func SecureInit(ctx context.Context, store *keystore.Store, opts SecureInitOptions) (*SecureInitResult, error) {
	token := opts.Token
	generated := false
	if token == "" {
		var err error
		token, err = crypto.GenerateToken(rootTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("generating root credential: %w", err)
		}
		generated = true
	}

	if _, err := store.Initialize(opts.Password, []byte(token), opts.Force); err != nil {
		return nil, err
	}

	result := &SecureInitResult{
		KeyStorePath:   store.Path(),
		Token:          token,
		TokenGenerated: generated,
	}

	if opts.GenerateTLS {
		commonName := opts.TLSCommonName
		if commonName == "" {
			commonName = "localhost"
		}
		certs, err := certgen.Generate(filepath.Join(opts.VaultDir, "certs"), commonName)
		if err != nil {
			return nil, fmt.Errorf("generating TLS material: %w", err)
		}
		result.CertPath = certs.CertPath
		result.KeyPath = certs.KeyPath
	}

	audit.Log(opts.VaultDir, audit.Entry{Operation: "secure-init"})
	return result, nil
}
