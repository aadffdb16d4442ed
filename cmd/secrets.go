package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1trippycat/vaultrunner/internal/keystore"
	"github.com/1trippycat/vaultrunner/internal/ui"
	"github.com/1trippycat/vaultrunner/internal/workflows"
)

var (
	secretDeleteSkipConfirm bool
	secretListPrefix        string
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Add, read, list, and delete secrets",
	Long:  `Manages individual secret values in the remote store, scoped by namespace.`,
}

func init() {
	secretsDeleteCmd.Flags().BoolVarP(&secretDeleteSkipConfirm, "yes", "y", false, "skip the delete confirmation")
	secretsListCmd.Flags().StringVar(&secretListPrefix, "prefix", "", "list only paths under this folder")

	secretsCmd.AddCommand(secretsAddCmd)
	secretsCmd.AddCommand(secretsGetCmd)
	secretsCmd.AddCommand(secretsListCmd)
	secretsCmd.AddCommand(secretsDeleteCmd)
	secretsCmd.AddCommand(secretsImportCmd)
}

var secretsAddCmd = &cobra.Command{
	Use:   "add <path> [value]",
	Short: "Store a secret value at a path",
	Long: `Stores one secret value, creating or overwriting it. When the value is not
given as an argument it is read from a hidden prompt, which keeps it out of
shell history.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)
		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		value := ""
		if len(args) == 2 {
			value = args[1]
		} else {
			raw, err := promptPassword("Secret value: ")
			if err != nil {
				return err
			}
			value = string(raw)
		}

		err = workflows.AddSecret(cmd.Context(), client, workflows.SecretOptions{
			Namespace: Config.Namespace,
			Path:      args[0],
			Value:     value,
			DryRun:    Config.DryRun,
			VaultDir:  Config.VaultDir,
		})
		if err != nil {
			return err
		}

		if Config.DryRun {
			fmt.Println(ui.Info.Sprint("→") + " Would store " + ui.Path.Sprint(args[0]) + " in namespace " + ui.Highlight.Sprint(Config.Namespace))
			return nil
		}
		fmt.Println(ui.Success.Sprint("✓") + " Stored " + ui.Path.Sprint(args[0]) + " in namespace " + ui.Highlight.Sprint(Config.Namespace))
		return nil
	},
}

var secretsGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Read a secret value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)
		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		value, err := workflows.GetSecret(cmd.Context(), client, workflows.SecretOptions{
			Namespace: Config.Namespace,
			Path:      args[0],
			VaultDir:  Config.VaultDir,
		})
		if err != nil {
			return err
		}

		if jsonOutput() {
			return renderJSON(map[string]string{"namespace": Config.Namespace, "path": args[0], "value": value})
		}
		// Raw on stdout so it can be piped.
		fmt.Println(value)
		return nil
	},
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List secret paths in the namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)
		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		s, cleanup := startSpinner("Listing secrets...")
		defer cleanup()

		paths, err := workflows.ListSecrets(cmd.Context(), client, workflows.ListSecretsOptions{
			Namespace: Config.Namespace,
			Prefix:    secretListPrefix,
			VaultDir:  Config.VaultDir,
		})
		if err != nil {
			return err
		}

		if len(paths) == 0 {
			s.FinalMSG = ui.Muted.Sprint("no secrets in namespace " + Config.Namespace)
			return nil
		}
		s.FinalMSG = ""
		cleanup()

		if jsonOutput() {
			return renderJSON(map[string]any{"namespace": Config.Namespace, "paths": paths})
		}
		for _, path := range paths {
			fmt.Println(path)
		}
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)

		if !Config.DryRun && !secretDeleteSkipConfirm {
			question := "Delete " + ui.Path.Sprint(args[0]) + " from namespace " + ui.Highlight.Sprint(Config.Namespace) + "?"
			if err := confirmDestructive(question); err != nil {
				return err
			}
		}

		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		err = workflows.DeleteSecret(cmd.Context(), client, workflows.SecretOptions{
			Namespace: Config.Namespace,
			Path:      args[0],
			DryRun:    Config.DryRun,
			VaultDir:  Config.VaultDir,
		})
		if err != nil {
			return err
		}

		if Config.DryRun {
			fmt.Println(ui.Info.Sprint("→") + " Would delete " + ui.Path.Sprint(args[0]))
			return nil
		}
		fmt.Println(ui.Success.Sprint("✓") + " Deleted " + ui.Path.Sprint(args[0]))
		return nil
	},
}

var secretsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk-load secrets from a KEY=VALUE file",
	Long: `Reads a KEY=VALUE file (one secret per line, # comments allowed) and stores
each pair in the namespace. The whole file is validated before the first
write, so a malformed file never results in a partial import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)
		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		s, cleanup := startSpinner("Importing secrets...")
		defer cleanup()

		result, err := workflows.ImportSecrets(cmd.Context(), client, workflows.ImportSecretsOptions{
			Namespace: Config.Namespace,
			FilePath:  args[0],
			DryRun:    Config.DryRun,
			VaultDir:  Config.VaultDir,
		})
		if err != nil {
			return err
		}

		verb := "Imported"
		if result.DryRun {
			verb = "Would import"
		}
		s.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" %s %d secrets into namespace ", verb, len(result.Paths)) + ui.Highlight.Sprint(Config.Namespace)
		cleanup()

		if jsonOutput() {
			return renderJSON(result)
		}
		return nil
	},
}
