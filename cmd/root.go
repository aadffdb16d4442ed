package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/1trippycat/vaultrunner/internal/configs"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	logger "github.com/1trippycat/vaultrunner/internal/logging"
)

var (
	verbose    bool
	debug      bool
	configFile string

	// Logger is shared by every command. Built in PersistentPreRunE.
	Logger logger.Logger

	// Config is the resolved configuration for this invocation.
	Config configs.Config

	RootCmd = &cobra.Command{
		Use:   "vaultrunner",
		Short: "VaultRunner - secure credential storage and encrypted vault backups.",
		Long: `VaultRunner manages an encrypted local credential store and a remote
secret store, and can back the whole thing up into a single
password-protected file.

Available Commands:
  secure     Initialize and manage the encrypted key store
  secrets    Add, read, list, and delete secrets
  namespace  List and delete secret namespaces
  backup     Create, inspect, and restore encrypted backups

Run 'vaultrunner help <command>' for more details on a specific command.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing vaultrunner with verbose=%t, debug=%t", verbose, debug)

			v := viper.New()
			flags := cmd.Root().PersistentFlags()
			if err := v.BindPFlag("vault_addr", flags.Lookup("vault-addr")); err != nil {
				return err
			}
			if err := v.BindPFlag("namespace", flags.Lookup("namespace")); err != nil {
				return err
			}
			if err := v.BindPFlag("vault_dir", flags.Lookup("vault-dir")); err != nil {
				return err
			}
			if err := v.BindPFlag("output_format", flags.Lookup("output")); err != nil {
				return err
			}
			if err := v.BindPFlag("dry_run", flags.Lookup("dry-run")); err != nil {
				return err
			}

			cfg, err := configs.Load(v, configFile)
			if err != nil {
				return err
			}
			Config = cfg
			Logger.Debugf("Configuration resolved: addr=%s namespace=%s dir=%s", cfg.VaultAddr, cfg.Namespace, cfg.VaultDir)
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default .vaultrunner.yaml)")
	RootCmd.PersistentFlags().String("vault-addr", "", "secret store address (default http://127.0.0.1:8200)")
	RootCmd.PersistentFlags().StringP("namespace", "n", "", "secret namespace (default shared)")
	RootCmd.PersistentFlags().String("vault-dir", "", "local state directory (default .vault)")
	RootCmd.PersistentFlags().StringP("output", "o", "", "output format: text or json (default text)")
	RootCmd.PersistentFlags().Bool("dry-run", false, "report what would change without changing it")

	RootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", vrerrors.ErrInvalidUsage, err)
	})

	RootCmd.AddCommand(secureCmd)
	RootCmd.AddCommand(secretsCmd)
	RootCmd.AddCommand(namespaceCmd)
	RootCmd.AddCommand(backupCmd)
}
