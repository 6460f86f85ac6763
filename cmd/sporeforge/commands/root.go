// Package commands implements the sporeforge CLI command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sporeforge",
		Short: "SporeForge - Spore ModAPI Launcher Kit installer for Linux",
		Long: `SporeForge installs the Spore ModAPI Launcher Kit into a Wine prefix
driven by Proton-GE, so Spore mods work on Linux.

The install pipeline:
  - Locates the Spore installation in your Steam library
  - Creates (or reuses) a dedicated Wine prefix
  - Installs Windows dependencies once, idempotently
  - Registers Spore in the prefix's registry
  - Downloads the ModAPI installer and opens it under Proton-GE

Once the installer window is closed, 'sporeforge scripts' generates
launch scripts for the installed ModAPI executables.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newScriptsCommand())
	rootCmd.AddCommand(newRegistryCommand())
	rootCmd.AddCommand(newLocateCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
