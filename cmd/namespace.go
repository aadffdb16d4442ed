package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1trippycat/vaultrunner/internal/keystore"
	"github.com/1trippycat/vaultrunner/internal/ui"
	"github.com/1trippycat/vaultrunner/internal/workflows"
)

var namespaceDeleteSkipConfirm bool

var namespaceCmd = &cobra.Command{
	Use:   "namespace",
	Short: "List and delete secret namespaces",
}

func init() {
	namespaceDeleteCmd.Flags().BoolVarP(&namespaceDeleteSkipConfirm, "yes", "y", false, "skip the delete confirmation")

	namespaceCmd.AddCommand(namespaceListCmd)
	namespaceCmd.AddCommand(namespaceDeleteCmd)
}

var namespaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List namespaces present in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)
		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		namespaces, err := workflows.ListNamespaces(cmd.Context(), client)
		if err != nil {
			return err
		}

		if jsonOutput() {
			return renderJSON(map[string]any{"namespaces": namespaces})
		}
		if len(namespaces) == 0 {
			fmt.Println(ui.Muted.Sprint("no namespaces"))
			return nil
		}
		for _, ns := range namespaces {
			fmt.Println(ns)
		}
		return nil
	},
}

var namespaceDeleteCmd = &cobra.Command{
	Use:   "delete <namespace>",
	Short: "Delete every secret in a namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)

		if !Config.DryRun && !namespaceDeleteSkipConfirm {
			question := "Delete ALL secrets in namespace " + ui.Highlight.Sprint(args[0]) + "?"
			if err := confirmDestructive(question); err != nil {
				return err
			}
		}

		client, done, err := newStoreClient(store)
		if err != nil {
			return err
		}
		defer done()

		s, cleanup := startSpinner("Deleting namespace...")
		defer cleanup()

		result, err := workflows.DeleteNamespace(cmd.Context(), client, workflows.DeleteNamespaceOptions{
			Namespace: args[0],
			DryRun:    Config.DryRun,
			VaultDir:  Config.VaultDir,
		})
		if err != nil && result == nil {
			return err
		}

		if result.DryRun {
			s.FinalMSG = ui.Info.Sprint("→") + fmt.Sprintf(" Would delete %d secrets from ", len(result.Deleted)) + ui.Highlight.Sprint(result.Namespace)
		} else if len(result.FailedPaths) > 0 {
			s.FinalMSG = ui.Warning.Sprint("!") + fmt.Sprintf(" Deleted %d secrets from ", len(result.Deleted)) +
				ui.Highlight.Sprint(result.Namespace) + fmt.Sprintf("; %d could not be deleted: %v", len(result.FailedPaths), result.FailedPaths)
		} else {
			s.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Deleted %d secrets from ", len(result.Deleted)) + ui.Highlight.Sprint(result.Namespace)
		}
		cleanup()

		if jsonOutput() {
			if jerr := renderJSON(result); jerr != nil {
				return jerr
			}
		}
		return err
	},
}
