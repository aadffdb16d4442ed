package workflows

import (
	"context"
	"fmt"

	"github.com/1trippycat/vaultrunner/internal/audit"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/utils"
)

// ListNamespaces returns the sorted namespace names present in the store.
func ListNamespaces(ctx context.Context, client SecretClient) ([]string, error) {
	return client.ListNamespaces(ctx)
}

// DeleteNamespaceOptions configures the namespace-delete workflow.
type DeleteNamespaceOptions struct {
	Namespace string

	// DryRun lists what would be deleted without deleting anything.
	DryRun bool

	// VaultDir is the local state directory.
	VaultDir string
}

// DeleteNamespaceResult reports the outcome of deleting a namespace.
type DeleteNamespaceResult struct {
	Namespace string

	// Deleted are the secret paths that were removed (or would be, on a dry
	// run), sorted.
	Deleted []string

	// FailedPaths are secrets that could not be deleted.
	FailedPaths []string

	DryRun bool
}

// DeleteNamespace removes every secret in a namespace. Individual delete
// failures do not stop the sweep; they are collected and reported alongside
// ErrPartialRestore with a non-nil result so the operator can retry the
// remainder.
func DeleteNamespace(ctx context.Context, client SecretClient, opts DeleteNamespaceOptions) (*DeleteNamespaceResult, error) {
	if err := utils.ValidateNamespace(opts.Namespace); err != nil {
		return nil, err
	}

	paths, err := client.List(ctx, opts.Namespace, "")
	if err != nil {
		return nil, err
	}

	result := &DeleteNamespaceResult{Namespace: opts.Namespace, DryRun: opts.DryRun}
	if opts.DryRun {
		result.Deleted = paths
	} else {
		for _, path := range paths {
			if err := client.Delete(ctx, opts.Namespace, path); err != nil {
				result.FailedPaths = append(result.FailedPaths, path)
				continue
			}
			result.Deleted = append(result.Deleted, path)
		}
	}

	audit.Log(opts.VaultDir, audit.Entry{
		Operation:   "namespace-delete",
		Namespace:   opts.Namespace,
		SecretCount: len(result.Deleted),
		FailedCount: len(result.FailedPaths),
		DryRun:      opts.DryRun,
	})

	if len(result.FailedPaths) > 0 {
		return result, fmt.Errorf("%w: %d of %d secrets in %s could not be deleted",
			vrerrors.ErrPartialRestore, len(result.FailedPaths), len(paths), opts.Namespace)
	}
	return result, nil
}
