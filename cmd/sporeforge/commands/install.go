package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sporeforge/sporeforge/pkg/config"
	"github.com/sporeforge/sporeforge/pkg/github"
	"github.com/sporeforge/sporeforge/pkg/launcher"
	"github.com/sporeforge/sporeforge/pkg/pipeline"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/steam"
	"github.com/sporeforge/sporeforge/pkg/stores"
	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

func newInstallCommand() *cobra.Command {
	var (
		prefixName string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Spore ModAPI Launcher Kit",
		Long: `Run the full installation pipeline.

This command:
  - Locates Spore in your Steam library
  - Creates or reuses the Wine prefix
  - Installs Windows dependencies (skipped when already installed)
  - Applies Spore registry entries (failure here is tolerated)
  - Downloads the ModAPI installer from GitHub
  - Opens the installer under Proton-GE and returns

Complete the installer window manually, then run 'sporeforge scripts'.`,
		Example: `  # Install with defaults
  sporeforge install

  # Use a custom prefix name
  sporeforge install --prefix-name my_spore

  # Force a fresh installer download
  sporeforge install --no-cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			games, err := steam.NewLocator()
			if err != nil {
				return err
			}
			runtimes, err := proton.NewManager()
			if err != nil {
				return err
			}

			// Run history is best-effort: an unopenable store never blocks
			// an install.
			var recorder pipeline.RunRecorder
			if store := openStore(cmd, cfg, logger); store != nil {
				defer store.Close()
				recorder = store
			}

			p, err := pipeline.New(pipeline.Options{
				PrefixesDir: cfg.PrefixesDir,
				AssetName:   cfg.GitHub.AssetName,
				Games:       games,
				Runtimes:    runtimes,
				Deps:        launcher.NewWinetricksInstaller(logger),
				Downloads:   github.NewClient(cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.CacheDir, logger),
				NewRunner: func(rt *proton.Runtime) (pipeline.Runner, error) {
					return launcher.New(rt, logger)
				},
				SteamRoot: games.Root,
				Sink:      consoleSink{},
				Logger:    logger,
				Recorder:  recorder,
			})
			if err != nil {
				return err
			}

			result := p.Run(cmd.Context(), pipeline.RunOptions{
				PrefixName:   prefixName,
				CacheEnabled: !noCache,
			})
			if !result.Success {
				return fmt.Errorf("installation failed at step %s", result.FailedStep())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefixName, "prefix-name", "", "custom Wine prefix name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore the local installer cache")

	return cmd
}

// openStore opens and migrates the run-history database, returning nil on
// any failure.
func openStore(cmd *cobra.Command, cfg *config.Config, logger *telemetry.Logger) *stores.SQLiteStore {
	if err := os.MkdirAll(filepath.Dir(cfg.StateDB), 0755); err != nil {
		logger.WithError(err).Warn("run history disabled")
		return nil
	}
	store, err := stores.NewSQLiteStore(stores.Config{Path: cfg.StateDB})
	if err != nil {
		logger.WithError(err).Warn("run history disabled")
		return nil
	}
	ctx := cmd.Context()
	if err := store.Init(ctx); err != nil {
		logger.WithError(err).Warn("run history disabled")
		return nil
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		logger.WithError(err).Warn("run history disabled")
		return nil
	}
	return store
}
