// Package audit provides an append-only JSONL operation log.
//
// Every privileged operation appends one line to .vault/audit.jsonl naming
// the operation and the namespaces or paths it touched. Entries never
// contain secret values, passwords, or derived keys. Audit failures are
// swallowed: an operation must not fail because its audit write did.
package audit
