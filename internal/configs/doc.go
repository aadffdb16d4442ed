// Package configs resolves the typed VaultRunner configuration.
//
// Configuration merges three sources, in increasing precedence: built-in
// defaults, the .vaultrunner.yaml file, and command-line flags bound through
// viper. The merge happens once, at the CLI boundary, and yields a single
// immutable Config value whose fields are passed into the core as plain
// parameters. The core never reads environment variables or files itself.
package configs
