package workflows

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/1trippycat/vaultrunner/internal/audit"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/utils"
)

// SecretClient is the slice of the store client the secret workflows need.
// *vault.Client satisfies it.
type SecretClient interface {
	Put(ctx context.Context, namespace, path, value string) error
	Get(ctx context.Context, namespace, path string) (string, error)
	List(ctx context.Context, namespace, prefix string) ([]string, error)
	Delete(ctx context.Context, namespace, path string) error
	ListNamespaces(ctx context.Context) ([]string, error)
}

// SecretOptions identifies one secret for the add, get, and delete workflows.
type SecretOptions struct {
	Namespace string
	Path      string

	// Value is the secret value for AddSecret. Never logged.
	Value string

	// DryRun reports the mutation without performing it.
	DryRun bool

	// VaultDir is the local state directory.
	VaultDir string
}

func (o SecretOptions) validate() error {
	if err := utils.ValidateNamespace(o.Namespace); err != nil {
		return err
	}
	return utils.ValidateSecretPath(o.Path)
}

// AddSecret writes one secret value at namespace/path, creating or
// overwriting it.
func AddSecret(ctx context.Context, client SecretClient, opts SecretOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if !opts.DryRun {
		if err := client.Put(ctx, opts.Namespace, opts.Path, opts.Value); err != nil {
			return err
		}
	}
	audit.Log(opts.VaultDir, audit.Entry{
		Operation: "secret-add",
		Namespace: opts.Namespace,
		Path:      opts.Path,
		DryRun:    opts.DryRun,
	})
	return nil
}

// GetSecret reads one secret value. Returns ErrSecretNotFound if no secret
// exists at namespace/path.
func GetSecret(ctx context.Context, client SecretClient, opts SecretOptions) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	value, err := client.Get(ctx, opts.Namespace, opts.Path)
	if err != nil {
		return "", err
	}
	audit.Log(opts.VaultDir, audit.Entry{
		Operation: "secret-get",
		Namespace: opts.Namespace,
		Path:      opts.Path,
	})
	return value, nil
}

// DeleteSecret removes one secret. Deleting a secret that does not exist is
// not an error.
func DeleteSecret(ctx context.Context, client SecretClient, opts SecretOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if !opts.DryRun {
		if err := client.Delete(ctx, opts.Namespace, opts.Path); err != nil {
			return err
		}
	}
	audit.Log(opts.VaultDir, audit.Entry{
		Operation: "secret-delete",
		Namespace: opts.Namespace,
		Path:      opts.Path,
		DryRun:    opts.DryRun,
	})
	return nil
}

// ListSecretsOptions configures the list workflow.
type ListSecretsOptions struct {
	Namespace string

	// Prefix restricts the listing to paths under this folder. Empty lists
	// the whole namespace.
	Prefix string

	// VaultDir is the local state directory.
	VaultDir string
}

// ListSecrets returns the sorted secret paths in a namespace, recursing
// through folders. Paths are relative to the namespace.
func ListSecrets(ctx context.Context, client SecretClient, opts ListSecretsOptions) ([]string, error) {
	if err := utils.ValidateNamespace(opts.Namespace); err != nil {
		return nil, err
	}
	if opts.Prefix != "" {
		if err := utils.ValidateSecretPath(opts.Prefix); err != nil {
			return nil, err
		}
	}
	paths, err := client.List(ctx, opts.Namespace, opts.Prefix)
	if err != nil {
		return nil, err
	}
	audit.Log(opts.VaultDir, audit.Entry{
		Operation: "secret-list",
		Namespace: opts.Namespace,
	})
	return paths, nil
}

// ImportSecretsOptions configures the bulk import workflow.
type ImportSecretsOptions struct {
	Namespace string

	// FilePath is a KEY=VALUE file, one secret per line. Blank lines and
	// lines starting with # are ignored. Keys become secret paths.
	FilePath string

	// DryRun parses and validates the file without writing to the store.
	DryRun bool

	// VaultDir is the local state directory.
	VaultDir string
}

// ImportSecretsResult reports the outcome of a bulk import.
type ImportSecretsResult struct {
	// Paths are the secret paths written (or that would be written), sorted.
	Paths []string

	DryRun bool
}

// ImportSecrets loads a KEY=VALUE file into a namespace. The whole file is
// parsed and every key validated before the first write, so a malformed file
// never results in a partial import.
func ImportSecrets(ctx context.Context, client SecretClient, opts ImportSecretsOptions) (*ImportSecretsResult, error) {
	if err := utils.ValidateNamespace(opts.Namespace); err != nil {
		return nil, err
	}

	pairs, err := parseSecretsFile(opts.FilePath)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no secrets found in %s", vrerrors.ErrInvalidUsage, opts.FilePath)
	}

	paths := make([]string, 0, len(pairs))
	for path := range pairs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	if !opts.DryRun {
		for _, path := range paths {
			if err := client.Put(ctx, opts.Namespace, path, pairs[path]); err != nil {
				return nil, fmt.Errorf("importing %s: %w", path, err)
			}
		}
	}

	audit.Log(opts.VaultDir, audit.Entry{
		Operation:   "secret-import",
		Namespace:   opts.Namespace,
		SecretCount: len(paths),
		DryRun:      opts.DryRun,
	})
	return &ImportSecretsResult{Paths: paths, DryRun: opts.DryRun}, nil
}

// parseSecretsFile reads a KEY=VALUE file and validates every key as a secret
// path. Values may contain '='; only the first one splits. Surrounding single
// or double quotes on values are stripped.
func parseSecretsFile(filePath string) (map[string]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening secrets file: %w", err)
	}
	defer f.Close()

	pairs := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%w: line %d of %s is not KEY=VALUE", vrerrors.ErrInvalidUsage, lineNo, filePath)
		}
		key = strings.TrimSpace(key)
		if err := utils.ValidateSecretPath(key); err != nil {
			return nil, fmt.Errorf("line %d of %s: %w", lineNo, filePath, err)
		}
		pairs[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	return pairs, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
