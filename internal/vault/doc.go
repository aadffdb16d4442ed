// Package vault is the HTTP client for the remote secret store.
//
// The store is treated as black-box KV storage exposing path-scoped read,
// write, list, and delete operations under a namespace prefix, reachable at
// a configured address with a bearer-style credential. The client speaks the
// KV v2 wire shape: values live under /v1/secret/data/<namespace>/<path>,
// enumeration under /v1/secret/metadata/<prefix>?list=true, with folders
// reported as keys ending in "/".
//
// Idempotent reads are retried a bounded number of times with backoff;
// mutations are issued exactly once. The credential is rejected with
// ErrAuthentication, network failure surfaces as ErrStoreUnreachable, and
// neither is retried beyond the read-side bound; broader retry policy
// belongs to the caller.
package vault
