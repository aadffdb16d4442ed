// Package backup produces and consumes encrypted, namespace-scoped
// snapshots of secret data.
//
// A backup is an encrypted blob whose payload is the canonical JSON
// serialization of namespace -> path -> value, with the namespace list and
// secret count stored as cleartext metadata for triage. Serialization is
// deterministic (sorted keys, creation time kept out of the payload), so two
// backups of an unmodified store differ only in salt and nonce.
//
// Creation is all-or-nothing: any failed read aborts the backup before a
// file is written. Restore is staged: decrypt and deserialize everything
// first, then replay in one sorted pass, and it reports per-path failures
// rather than rolling back, since the store offers no multi-key transaction.
package backup
