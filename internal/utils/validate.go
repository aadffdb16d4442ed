package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
)

// secretPathPattern limits secret paths to alphanumerics, hyphens,
// underscores, dots, and forward slashes.
var secretPathPattern = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

// namespacePattern is the same character set without slashes; namespaces are
// a single path segment.
var namespacePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

const maxSecretPathLength = 255

// ValidateSecretPath checks that a secret path is non-empty, contains no
// path-traversal sequences, and uses only safe characters.
func ValidateSecretPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is empty", vrerrors.ErrInvalidSecretPath)
	}
	if len(path) > maxSecretPathLength {
		return fmt.Errorf("%w: path exceeds %d characters", vrerrors.ErrInvalidSecretPath, maxSecretPathLength)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: path traversal not allowed in %q", vrerrors.ErrInvalidSecretPath, path)
	}
	if strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return fmt.Errorf("%w: path must not start or end with a slash: %q", vrerrors.ErrInvalidSecretPath, path)
	}
	if !secretPathPattern.MatchString(path) {
		return fmt.Errorf("%w: %q contains unsupported characters", vrerrors.ErrInvalidSecretPath, path)
	}
	return nil
}

// ValidateNamespace checks that a namespace name is non-empty, a single path
// segment, and free of traversal sequences. Namespace names are case-sensitive.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace is empty", vrerrors.ErrInvalidNamespace)
	}
	if strings.Contains(namespace, "..") {
		return fmt.Errorf("%w: path traversal not allowed in %q", vrerrors.ErrInvalidNamespace, namespace)
	}
	if !namespacePattern.MatchString(namespace) {
		return fmt.Errorf("%w: %q contains unsupported characters", vrerrors.ErrInvalidNamespace, namespace)
	}
	return nil
}

// ValidateStoreAddress checks that a secret store address is an http(s) URL
// with a hostname.
func ValidateStoreAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("secret store address is empty")
	}
	parsed, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid secret store address %q: %w", addr, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("secret store address must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("secret store address %q has no hostname", addr)
	}
	return nil
}
