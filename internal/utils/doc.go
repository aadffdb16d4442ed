// Package utils provides small shared helpers: no-echo terminal prompts,
// crash-safe atomic file writes, and validation of operator-supplied
// namespaces, secret paths, and store addresses.
package utils
