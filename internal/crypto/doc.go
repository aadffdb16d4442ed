// Package crypto provides the cryptographic core for VaultRunner.
//
// # Encryption Architecture
//
// Every encrypted artifact, whether the root credential file or an encrypted
// backup, shares one blob shape:
//
//  1. A 32-byte key is derived from the operator's password with
//     PBKDF2-HMAC-SHA256 over a random 16-byte salt (100,000 iterations)
//  2. The payload is sealed with AES-256-GCM under a random 12-byte nonce
//  3. Cleartext metadata (format version, blob ID, creation time, and for
//     backups the namespace list and secret count) is stored alongside the
//     ciphertext and bound into the authentication tag as additional data
//
// Salt and nonce are freshly generated per blob and never reused. Flipping
// any bit of the ciphertext, the tag, or the cleartext metadata causes
// decryption to fail with ErrDecryptFailed; a wrong password fails the same
// way, so callers cannot build a password oracle from the error.
//
// # File Format
//
// Blobs are JSON files written atomically with 0600 permissions:
//
//	{
//	  "format_version": 1,
//	  "blob_id": "…",
//	  "created_at": "…",
//	  "salt": "<base64>",
//	  "iterations": 100000,
//	  "nonce": "<base64>",
//	  "ciphertext": "<base64, tag appended>"
//	}
//
// The cleartext metadata lets operators triage a backup (which namespaces,
// when taken) without knowing its password.
package crypto
