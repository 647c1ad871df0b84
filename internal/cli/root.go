// Package cli implements the mag command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/internal/config"
	"github.com/magpie-md/magpie/internal/ui"
)

var (
	// Global flags.
	vaultName     string // named vault from config
	vaultPathFlag string // explicit path
	configPath    string
	jsonOutput    bool

	// Resolved per invocation.
	resolvedVaultPath string
	cfg               *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mag",
	Short: "Magpie - schema-driven audits for markdown vaults",
	Long: `Magpie audits a vault of markdown documents against a typed frontmatter
schema, repairs what it safely can, and queries documents with a small
filter language. Files stay plain markdown; every edit touches only the
bytes it has to.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "completion", "version", "docs":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		ui.SetAccent(cfg.UI.Accent)

		switch {
		case vaultPathFlag != "":
			resolvedVaultPath = vaultPathFlag
		default:
			resolvedVaultPath, err = cfg.VaultPath(vaultName)
			if err != nil {
				return err
			}
		}

		if _, err := os.Stat(resolvedVaultPath); os.IsNotExist(err) {
			return fmt.Errorf("vault not found: %s", resolvedVaultPath)
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Errorf("%v", err))
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultName, "vault", "", "named vault from config")
	rootCmd.PersistentFlags().StringVar(&vaultPathFlag, "vault-path", "", "explicit vault path (overrides --vault)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "machine-readable JSON output")
}
