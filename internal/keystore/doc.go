// Package keystore persists the root credential used to authenticate to the
// remote secret store, encrypted at rest under an operator password.
//
// Exactly one credential exists per installation, stored at
// .vault/keys/vault_key.enc with 0600 permissions. It is decrypted into
// memory only, on each privileged operation, and replaced on password
// change. Writes go through a temp-file-and-rename sequence guarded by an
// exclusive file lock, so concurrent invocations cannot lose an update and a
// crash cannot corrupt the only copy of the credential.
//
// The package also provides the password Session: a per-invocation in-memory
// cache of the operator's password and keys derived from it.
package keystore
