package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "does-not-matter-unset"))
	if err == nil {
		t.Fatalf("Expected an error for an explicitly named missing file")
	}

	// With no explicit file, a missing default config is fine.
	tmp := t.TempDir()
	restoreWd := chdir(t, tmp)
	defer restoreWd()

	cfg, err = Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.VaultAddr != "http://127.0.0.1:8200" {
		t.Errorf("Expected default address, got: %q", cfg.VaultAddr)
	}
	if cfg.Namespace != DefaultNamespace {
		t.Errorf("Expected namespace %q, got: %q", DefaultNamespace, cfg.Namespace)
	}
	if cfg.VaultDir != DefaultVaultDir {
		t.Errorf("Expected vault dir %q, got: %q", DefaultVaultDir, cfg.VaultDir)
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("Expected text output, got: %q", cfg.OutputFormat)
	}
}

func TestLoad_FromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := `vault_addr: https://vault.internal:8200
namespace: myapp
output_format: json
`
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(viper.New(), file)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.VaultAddr != "https://vault.internal:8200" {
		t.Errorf("Expected file address, got: %q", cfg.VaultAddr)
	}
	if cfg.Namespace != "myapp" {
		t.Errorf("Expected myapp, got: %q", cfg.Namespace)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("Expected json, got: %q", cfg.OutputFormat)
	}
	// Unset fields keep their defaults.
	if cfg.VaultDir != DefaultVaultDir {
		t.Errorf("Expected default vault dir, got: %q", cfg.VaultDir)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad address":   "vault_addr: ftp://example.com\n",
		"bad namespace": "namespace: has/slash\n",
		"bad format":    "output_format: xml\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(file, []byte(content), 0600); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := Load(viper.New(), file); err == nil {
				t.Errorf("Expected validation to reject %s", name)
			}
		})
	}
}

func TestValidate_Default(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected the default configuration to validate, got: %v", err)
	}
}

// chdir switches the working directory for one test and returns a restore func.
func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	return func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Failed to restore working directory: %v", err)
		}
	}
}
