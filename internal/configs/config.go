package configs

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/1trippycat/vaultrunner/internal/utils"
)

const (
	// DefaultNamespace scopes secrets when the operator does not name one.
	DefaultNamespace = "shared"

	// DefaultVaultDir is the local state directory.
	DefaultVaultDir = ".vault"

	// DefaultConfigFile is the per-project configuration file.
	DefaultConfigFile = ".vaultrunner.yaml"
)

// Config is the single immutable configuration structure for one command
// invocation. It is resolved once at the CLI boundary from the config file
// and flags; the core packages receive its fields as plain parameters and
// never read files or environment variables themselves.
type Config struct {
	// VaultAddr is the remote secret store address, e.g. https://127.0.0.1:8200.
	VaultAddr string `mapstructure:"vault_addr"`

	// Namespace is the default secret namespace.
	Namespace string `mapstructure:"namespace"`

	// VaultDir is the local state directory holding the encrypted key store,
	// backups, certificates, and the audit log.
	VaultDir string `mapstructure:"vault_dir"`

	// OutputFormat selects command output rendering: text or json.
	OutputFormat string `mapstructure:"output_format"`

	// DryRun makes mutating commands report what they would do without
	// touching the remote store.
	DryRun bool `mapstructure:"dry_run"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		VaultAddr:    "http://127.0.0.1:8200",
		Namespace:    DefaultNamespace,
		VaultDir:     DefaultVaultDir,
		OutputFormat: "text",
	}
}

// Load resolves the configuration from the given file (or the default file
// when empty) merged with any flag bindings already registered on v. The
// result is validated before any core operation begins.
func Load(v *viper.Viper, configFile string) (Config, error) {
	def := Default()
	v.SetDefault("vault_addr", def.VaultAddr)
	v.SetDefault("namespace", def.Namespace)
	v.SetDefault("vault_dir", def.VaultDir)
	v.SetDefault("output_format", def.OutputFormat)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".vaultrunner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; defaults and flags apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's recognized fields.
func (c Config) Validate() error {
	if err := utils.ValidateStoreAddress(c.VaultAddr); err != nil {
		return err
	}
	if err := utils.ValidateNamespace(c.Namespace); err != nil {
		return err
	}
	if c.VaultDir == "" {
		return fmt.Errorf("vault_dir must not be empty")
	}
	switch c.OutputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q (expected text or json)", c.OutputFormat)
	}
	return nil
}
