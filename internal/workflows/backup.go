package workflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/1trippycat/vaultrunner/internal/audit"
	"github.com/1trippycat/vaultrunner/internal/backup"
	"github.com/1trippycat/vaultrunner/internal/crypto"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/utils"
)

// backupTimestampLayout names backup files by wall-clock creation time.
const backupTimestampLayout = "20060102_150405"

// DefaultBackupPath returns the default output path for a new backup under
// the local state directory.
func DefaultBackupPath(vaultDir string, now time.Time) string {
	name := fmt.Sprintf("vault_backup_%s.enc", now.Format(backupTimestampLayout))
	return filepath.Join(vaultDir, "backups", name)
}

// BackupCreateOptions configures the backup-create workflow.
type BackupCreateOptions struct {
	// Namespaces to include. Must be non-empty; the CLI expands "all
	// namespaces" before calling in.
	Namespaces []string

	// Password encrypts the backup. It is independent of the key store
	// password.
	Password []byte

	// OutputPath is where the encrypted backup is written. Empty selects the
	// default path under VaultDir.
	OutputPath string

	// VaultDir is the local state directory.
	VaultDir string
}

// BackupCreate snapshots the requested namespaces into a single encrypted
// backup file. Creation is all or nothing: if any secret cannot be read, no
// file is written and ErrBackupIncomplete is returned.
func BackupCreate(ctx context.Context, eng *backup.Engine, opts BackupCreateOptions) (*backup.CreateResult, error) {
	if len(opts.Namespaces) == 0 {
		return nil, fmt.Errorf("%w: no namespaces to back up", vrerrors.ErrInvalidUsage)
	}
	for _, ns := range opts.Namespaces {
		if err := utils.ValidateNamespace(ns); err != nil {
			return nil, err
		}
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = DefaultBackupPath(opts.VaultDir, time.Now())
	}

	result, err := eng.Create(ctx, opts.Namespaces, opts.Password, outputPath)
	if err != nil {
		return nil, err
	}

	audit.Log(opts.VaultDir, audit.Entry{
		Operation:   "backup-create",
		Namespaces:  result.Namespaces,
		SecretCount: result.SecretCount,
		OutputPath:  result.OutputPath,
	})
	return result, nil
}

// BackupRestoreOptions configures the backup-restore workflow.
type BackupRestoreOptions struct {
	// BackupPath is the encrypted backup file to restore from.
	BackupPath string

	// Password decrypts the backup.
	Password []byte

	// TargetNamespace, when non-empty, restores every secret into this single
	// namespace instead of the namespaces recorded in the backup.
	TargetNamespace string

	// DryRun reports what would be restored without writing to the store.
	DryRun bool

	// VaultDir is the local state directory.
	VaultDir string
}

// BackupRestore decrypts a backup and writes its secrets back to the store.
// The backup is fully decrypted and parsed before the first write. Individual
// write failures do not stop the replay; they are collected per namespace and
// reported alongside ErrPartialRestore with a non-nil result.
func BackupRestore(ctx context.Context, eng *backup.Engine, opts BackupRestoreOptions) (*backup.RestoreResult, error) {
	if opts.TargetNamespace != "" {
		if err := utils.ValidateNamespace(opts.TargetNamespace); err != nil {
			return nil, err
		}
	}

	result, err := eng.Restore(ctx, opts.BackupPath, opts.Password, opts.TargetNamespace, opts.DryRun)
	if result != nil {
		entry := audit.Entry{
			Operation:   "backup-restore",
			SecretCount: result.SecretCount,
			FailedCount: result.FailedCount(),
			DryRun:      result.DryRun,
		}
		for _, ns := range result.Namespaces {
			entry.Namespaces = append(entry.Namespaces, ns.Namespace)
		}
		audit.Log(opts.VaultDir, entry)
	}
	return result, err
}

// BackupInspectResult describes a backup without decrypting it.
type BackupInspectResult struct {
	Path     string
	Metadata *crypto.Metadata
}

// BackupInspect reads only the cleartext metadata of a backup file. No
// password is required and no secret material is touched.
func BackupInspect(ctx context.Context, backupPath string) (*BackupInspectResult, error) {
	meta, err := backup.Inspect(backupPath)
	if err != nil {
		return nil, err
	}
	return &BackupInspectResult{Path: backupPath, Metadata: meta}, nil
}
