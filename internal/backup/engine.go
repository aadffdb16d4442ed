package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/1trippycat/vaultrunner/internal/crypto"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/utils"
)

// defaultReadWorkers bounds concurrent secret reads during backup creation.
const defaultReadWorkers = 8

// SecretStore is the slice of the store client the engine needs. Each
// secret's outcome is independent: a failed call never corrupts the state of
// another.
type SecretStore interface {
	List(ctx context.Context, namespace, prefix string) ([]string, error)
	Get(ctx context.Context, namespace, path string) (string, error)
	Put(ctx context.Context, namespace, path, value string) error
}

// Engine produces and consumes encrypted backup snapshots. It exclusively
// owns snapshot construction and replay; the store client does the actual
// remote reads and writes.
type Engine struct {
	store   SecretStore
	workers int
}

// NewEngine returns an engine over the given store.
func NewEngine(store SecretStore) *Engine {
	return &Engine{store: store, workers: defaultReadWorkers}
}

// CreateResult summarizes a successful backup creation.
type CreateResult struct {
	OutputPath  string
	Namespaces  []string
	SecretCount int
}

// Create enumerates and reads every secret in the requested namespaces,
// serializes them canonically, encrypts the payload under a key derived from
// password, and writes the blob to outputPath with its cleartext metadata.
//
// If any individual read fails, the whole call fails with ErrBackupIncomplete
// and no file is written: a backup either contains every enumerated secret
// or does not exist. The write itself is atomic, so an interrupted invocation
// cannot leave a partial file either.
func (e *Engine) Create(ctx context.Context, namespaces []string, password []byte, outputPath string) (*CreateResult, error) {
	for _, namespace := range namespaces {
		if err := utils.ValidateNamespace(namespace); err != nil {
			return nil, err
		}
	}

	snapshot := NewSnapshot()
	for _, namespace := range namespaces {
		paths, err := e.store.List(ctx, namespace, "")
		if err != nil {
			return nil, fmt.Errorf("%w: listing namespace %s: %v", vrerrors.ErrBackupIncomplete, namespace, err)
		}

		values, err := e.readAll(ctx, namespace, paths)
		if err != nil {
			return nil, err
		}
		for i, path := range paths {
			snapshot.put(namespace, path, values[i])
		}
	}

	plaintext, err := snapshot.Marshal()
	if err != nil {
		return nil, err
	}

	blob, err := crypto.Seal(password, plaintext, crypto.Metadata{
		Namespaces:  snapshot.NamespaceNames(),
		SecretCount: snapshot.SecretCount(),
	})
	if err != nil {
		return nil, fmt.Errorf("sealing backup: %w", err)
	}

	if err := blob.WriteFile(outputPath); err != nil {
		return nil, fmt.Errorf("writing backup: %w", err)
	}

	return &CreateResult{
		OutputPath:  outputPath,
		Namespaces:  snapshot.NamespaceNames(),
		SecretCount: snapshot.SecretCount(),
	}, nil
}

// readAll fetches the values for paths with bounded concurrency. Each
// worker writes into its own slot, so aggregation is race-free. The first
// error wins; remaining reads still run to completion but their results are
// discarded along with the whole backup.
func (e *Engine) readAll(ctx context.Context, namespace string, paths []string) ([]string, error) {
	values := make([]string, len(paths))
	errs := make([]error, len(paths))
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			values[i], errs[i] = e.store.Get(ctx, namespace, path)
		}(i, path)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s/%s: %v", vrerrors.ErrBackupIncomplete, namespace, paths[i], err)
		}
	}
	return values, nil
}

// NamespaceResult reports the restore outcome for one namespace.
type NamespaceResult struct {
	Namespace   string
	Succeeded   int
	FailedPaths []string
}

// RestoreResult summarizes a restore, successful or partial.
type RestoreResult struct {
	Namespaces  []NamespaceResult
	SecretCount int
	DryRun      bool
}

// FailedCount returns the total number of paths that failed to restore.
func (r *RestoreResult) FailedCount() int {
	n := 0
	for _, ns := range r.Namespaces {
		n += len(ns.FailedPaths)
	}
	return n
}

// Restore decrypts the backup at blobPath, deserializes the snapshot, and
// replays every secret through the store. The snapshot is fully decrypted
// and staged in memory before the first write, then committed in one pass in
// sorted namespace/path order.
//
// If targetNamespace is non-empty, every namespace in the snapshot is
// remapped to it. If dryRun is true, no writes are issued and the result
// reports what would be written.
//
// The remote store has no multi-key transaction primitive, so writes already
// applied are not rolled back when a later one fails. Instead the result
// lists exactly which paths succeeded and failed per namespace, and the
// error is ErrPartialRestore; silent partial success is never reported.
func (e *Engine) Restore(ctx context.Context, blobPath string, password []byte, targetNamespace string, dryRun bool) (*RestoreResult, error) {
	if targetNamespace != "" {
		if err := utils.ValidateNamespace(targetNamespace); err != nil {
			return nil, err
		}
	}

	blob, err := ReadBlobFile(blobPath)
	if err != nil {
		return nil, err
	}

	plaintext, err := blob.Open(password)
	if err != nil {
		return nil, vrerrors.ErrInvalidPassword
	}

	snapshot, err := ParseSnapshot(plaintext)
	if err != nil {
		return nil, err
	}
	if targetNamespace != "" {
		snapshot = snapshot.remapTo(targetNamespace)
	}

	result := &RestoreResult{SecretCount: snapshot.SecretCount(), DryRun: dryRun}
	for _, namespace := range snapshot.NamespaceNames() {
		secrets := snapshot.Namespaces[namespace]
		paths := make([]string, 0, len(secrets))
		for path := range secrets {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		nsResult := NamespaceResult{Namespace: namespace}
		for _, path := range paths {
			if dryRun {
				nsResult.Succeeded++
				continue
			}
			if err := e.store.Put(ctx, namespace, path, secrets[path]); err != nil {
				nsResult.FailedPaths = append(nsResult.FailedPaths, path)
				continue
			}
			nsResult.Succeeded++
		}
		result.Namespaces = append(result.Namespaces, nsResult)
	}

	if result.FailedCount() > 0 {
		return result, vrerrors.ErrPartialRestore
	}
	return result, nil
}

// Inspect reads a backup's cleartext metadata without decrypting it, for
// operator triage of backup files.
func Inspect(blobPath string) (*crypto.Metadata, error) {
	blob, err := ReadBlobFile(blobPath)
	if err != nil {
		return nil, err
	}
	meta := blob.Metadata
	return &meta, nil
}

// ReadBlobFile reads a backup blob, mapping structural failures to
// ErrCorruptBackup.
func ReadBlobFile(blobPath string) (*crypto.Blob, error) {
	blob, err := crypto.ReadFile(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("backup file not found: %s", blobPath)
		}
		if errors.Is(err, crypto.ErrMalformedBlob) {
			return nil, fmt.Errorf("%w: %v", vrerrors.ErrCorruptBackup, err)
		}
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	return blob, nil
}
