package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1trippycat/vaultrunner/internal/backup"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/keystore"
	"github.com/1trippycat/vaultrunner/internal/ui"
	"github.com/1trippycat/vaultrunner/internal/workflows"
)

var (
	backupOutput       string
	restoreTargetNS    string
	restoreSkipConfirm bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, inspect, and restore encrypted backups",
	Long: `Snapshots secret namespaces into a single password-protected file and
restores them later, optionally into a different namespace.`,
}

func init() {
	backupCreateCmd.Flags().StringVarP(&backupOutput, "output", "O", "", "backup file path (default .vault/backups/vault_backup_<timestamp>.enc)")
	backupRestoreCmd.Flags().StringVar(&restoreTargetNS, "target-namespace", "", "restore every secret into this namespace")
	backupRestoreCmd.Flags().BoolVarP(&restoreSkipConfirm, "yes", "y", false, "skip the overwrite confirmation")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupInspectCmd)
}

var backupCreateCmd = &cobra.Command{
	Use:   "create [namespace...]",
	Short: "Snapshot namespaces into an encrypted backup file",
	Long: `Reads every secret in the named namespaces (all namespaces when none are
named) and writes them into one encrypted file. If any secret cannot be
read, no file is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting backup create")
		store := keystore.New(Config.VaultDir)
		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		namespaces := args
		if len(namespaces) == 0 {
			namespaces, err = client.ListNamespaces(cmd.Context())
			if err != nil {
				return err
			}
			if len(namespaces) == 0 {
				fmt.Println(ui.Muted.Sprint("nothing to back up: the store has no namespaces"))
				return nil
			}
		}

		password, err := promptNewPassword("Backup password: ")
		if err != nil {
			return err
		}

		s, cleanup := startSpinner("Creating encrypted backup...")
		defer cleanup()

		eng := backup.NewEngine(client)
		result, err := workflows.BackupCreate(cmd.Context(), eng, workflows.BackupCreateOptions{
			Namespaces: namespaces,
			Password:   password,
			OutputPath: backupOutput,
			VaultDir:   Config.VaultDir,
		})
		if errors.Is(err, vrerrors.ErrBackupIncomplete) {
			s.FinalMSG = ui.Error.Sprint("✗") + " Backup aborted: not every secret could be read, no file was written"
			return err
		}
		if err != nil {
			return err
		}

		s.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Backed up %d secrets from %d namespaces to ",
			result.SecretCount, len(result.Namespaces)) + ui.Path.Sprint(result.OutputPath)
		cleanup()

		if jsonOutput() {
			return renderJSON(result)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore secrets from an encrypted backup file",
	Long: `Decrypts a backup and writes its secrets back to the store. The backup is
fully decrypted and verified before the first write. Restoring overwrites
any secret that already exists at a restored path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting backup restore")
		store := keystore.New(Config.VaultDir)
		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		if !Config.DryRun && !restoreSkipConfirm {
			if err := confirmDestructive("Restoring overwrites existing secrets at restored paths. Continue?"); err != nil {
				return err
			}
		}

		password, err := promptPassword("Backup password: ")
		if err != nil {
			return err
		}

		message := "Restoring encrypted backup..."
		if Config.DryRun {
			message = "Checking encrypted backup (dry run)..."
		}
		s, cleanup := startSpinner(message)
		defer cleanup()

		eng := backup.NewEngine(client)
		result, err := workflows.BackupRestore(cmd.Context(), eng, workflows.BackupRestoreOptions{
			BackupPath:      args[0],
			Password:        password,
			TargetNamespace: restoreTargetNS,
			DryRun:          Config.DryRun,
			VaultDir:        Config.VaultDir,
		})
		if err != nil && result == nil {
			return err
		}

		s.FinalMSG = restoreSummary(result)
		cleanup()

		if jsonOutput() {
			if jerr := renderJSON(result); jerr != nil {
				return jerr
			}
		}
		return err
	},
}

// restoreSummary renders the per-namespace outcome of a restore.
func restoreSummary(result *backup.RestoreResult) string {
	verb := "Restored"
	if result.DryRun {
		verb = "Would restore"
	}

	failed := result.FailedCount()
	msg := ""
	if failed == 0 {
		msg = ui.Success.Sprint("✓") + fmt.Sprintf(" %s %d secrets across %d namespaces", verb, result.SecretCount, len(result.Namespaces))
	} else {
		msg = ui.Warning.Sprint("!") + fmt.Sprintf(" %s %d of %d secrets; %d failed",
			verb, result.SecretCount-failed, result.SecretCount, failed)
	}
	for _, ns := range result.Namespaces {
		line := "\n  " + ui.Highlight.Sprint(ns.Namespace) + fmt.Sprintf(": %d restored", ns.Succeeded)
		if len(ns.FailedPaths) > 0 {
			line += ", failed: " + ui.Error.Sprint(fmt.Sprint(ns.FailedPaths))
		}
		msg += line
	}
	return msg
}

var backupInspectCmd = &cobra.Command{
	Use:   "inspect <backup-file>",
	Short: "Show a backup's metadata without decrypting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.BackupInspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput() {
			return renderJSON(result)
		}

		meta := result.Metadata
		fmt.Println(ui.Path.Sprint(result.Path))
		fmt.Printf("  format version: %d\n", meta.FormatVersion)
		fmt.Printf("  backup id:      %s\n", meta.BlobID)
		fmt.Printf("  created:        %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("  namespaces:     %v\n", meta.Namespaces)
		fmt.Printf("  secrets:        %d\n", meta.SecretCount)
		return nil
	},
}
