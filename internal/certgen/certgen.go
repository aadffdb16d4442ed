// Package certgen generates a self-signed TLS certificate and key for a
// local secret store listener, so development deployments can serve HTTPS
// without an external CA.
package certgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"path/filepath"
	"time"

	"github.com/1trippycat/vaultrunner/internal/utils"
)

const (
	certFileName = "vault.crt"
	keyFileName  = "vault.key"

	rsaKeyBits = 2048
	validity   = 365 * 24 * time.Hour
)

// Result holds the paths of the generated certificate pair.
type Result struct {
	CertPath string
	KeyPath  string
}

// Generate creates an RSA keypair and a self-signed certificate for
// commonName (plus localhost and 127.0.0.1 SANs), writing both PEM files
// into certsDir. The private key file is written with 0600 permissions.
func Generate(certsDir, commonName string) (*Result, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("generating serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"VaultRunner"},
			CommonName:   commonName,
		},
		NotBefore:             now.Add(-1 * time.Minute),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{commonName, "localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})

	certPath := filepath.Join(certsDir, certFileName)
	keyPath := filepath.Join(certsDir, keyFileName)

	if err := utils.WriteFileAtomic(certPath, certPEM, 0644); err != nil {
		return nil, fmt.Errorf("writing certificate: %w", err)
	}
	if err := utils.WriteFileAtomic(keyPath, keyPEM, 0600); err != nil {
		return nil, fmt.Errorf("writing private key: %w", err)
	}

	return &Result{CertPath: certPath, KeyPath: keyPath}, nil
}
