package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/keystore"
	"github.com/1trippycat/vaultrunner/internal/ui"
	"github.com/1trippycat/vaultrunner/internal/workflows"
)

var (
	initForce      bool
	initToken      string
	initTLS        bool
	initCommonName string
	initShowToken  bool
)

var secureCmd = &cobra.Command{
	Use:   "secure",
	Short: "Initialize and manage the encrypted key store",
	Long:  `Creates the encrypted key store, rotates its password, and exports the encrypted key material.`,
}

func init() {
	secureInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "replace an existing key store")
	secureInitCmd.Flags().StringVar(&initToken, "token", "", "store an existing root token instead of generating one")
	secureInitCmd.Flags().BoolVar(&initTLS, "tls", false, "also generate a self-signed certificate pair")
	secureInitCmd.Flags().StringVar(&initCommonName, "common-name", "localhost", "certificate common name with --tls")
	secureInitCmd.Flags().BoolVar(&initShowToken, "show-token", false, "print the root token after initialization")

	secureCmd.AddCommand(secureInitCmd)
	secureCmd.AddCommand(secureChangePasswordCmd)
	secureCmd.AddCommand(secureExportKeyCmd)
	secureCmd.AddCommand(secureTokenCmd)
}

var secureInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the encrypted key store holding the root credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting secure init")
		store := keystore.New(Config.VaultDir)

		if store.Exists() && !initForce {
			fmt.Println(ui.Error.Sprint("✗") + " A key store already exists at " + ui.Path.Sprint(store.Path()))
			fmt.Println(ui.Info.Sprint("→") + " To replace it, run " + ui.Code.Sprint("vaultrunner secure init --force"))
			return vrerrors.ErrAlreadyInitialized
		}
		if store.Exists() && initForce {
			Logger.WarnfUser("Replacing the key store makes the previous root token unrecoverable")
			if err := confirmDestructive("Replace the existing key store?"); err != nil {
				return err
			}
		}

		password, err := promptNewPassword("New vault password: ")
		if err != nil {
			return err
		}

		s, cleanup := startSpinner("Initializing key store...")
		defer cleanup()

		result, err := workflows.SecureInit(cmd.Context(), store, workflows.SecureInitOptions{
			Password:      password,
			Token:         initToken,
			Force:         initForce,
			GenerateTLS:   initTLS,
			TLSCommonName: initCommonName,
			VaultDir:      Config.VaultDir,
		})
		if err != nil {
			return err
		}

		finalMsg := ui.Success.Sprint("✓") + " Key store created at " + ui.Path.Sprint(result.KeyStorePath)
		if result.CertPath != "" {
			finalMsg += "\n" + ui.Success.Sprint("✓") + " TLS material written to " + ui.Path.Sprint(result.CertPath)
		}
		if result.TokenGenerated && !initShowToken {
			finalMsg += "\n" + ui.Info.Sprint("→") + " A root token was generated. Run " +
				ui.Code.Sprint("vaultrunner secure token") + " to reveal it"
		}
		s.FinalMSG = finalMsg
		cleanup()

		// Printed after the spinner is gone so it never ends up in FinalMSG
		// history. Display only; the token is never logged.
		if initShowToken {
			fmt.Println(result.Token)
		}
		return nil
	},
}

var secureChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Re-encrypt the root credential under a new password",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting change-password")
		store := keystore.New(Config.VaultDir)

		oldPassword, err := promptPassword("Current vault password: ")
		if err != nil {
			return err
		}
		newPassword, err := promptNewPassword("New vault password: ")
		if err != nil {
			return err
		}

		s, cleanup := startSpinner("Rotating key store password...")
		defer cleanup()

		err = workflows.ChangePassword(cmd.Context(), store, workflows.ChangePasswordOptions{
			OldPassword: oldPassword,
			NewPassword: newPassword,
			VaultDir:    Config.VaultDir,
		})
		if errors.Is(err, vrerrors.ErrInvalidPassword) {
			s.FinalMSG = ui.Error.Sprint("✗") + " Current password was not accepted"
			return err
		}
		if err != nil {
			return err
		}

		s.FinalMSG = ui.Success.Sprint("✓") + " Key store password changed"
		return nil
	},
}

var secureExportKeyCmd = &cobra.Command{
	Use:   "export-key <destination>",
	Short: "Copy the encrypted key store file to a destination",
	Long: `Copies the key store blob verbatim, still encrypted, for off-machine
escrow. No password is required and no plaintext is ever written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)

		s, cleanup := startSpinner("Exporting encrypted key material...")
		defer cleanup()

		err := workflows.ExportKey(cmd.Context(), store, workflows.ExportKeyOptions{
			DestinationPath: args[0],
			VaultDir:        Config.VaultDir,
		})
		if err != nil {
			return err
		}

		s.FinalMSG = ui.Success.Sprint("✓") + " Encrypted key material copied to " + ui.Path.Sprint(args[0])
		return nil
	},
}

var secureTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Reveal the root token after password verification",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := keystore.New(Config.VaultDir)

		password, err := promptPassword("Vault password: ")
		if err != nil {
			return err
		}

		token, err := workflows.RevealToken(cmd.Context(), store, workflows.RevealTokenOptions{
			Password: password,
			VaultDir: Config.VaultDir,
		})
		if err != nil {
			return err
		}

		// Raw on stdout so it can be piped into other tooling.
		fmt.Println(token)
		return nil
	},
}
