package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sporeforge/sporeforge/pkg/launcher"
	"github.com/sporeforge/sporeforge/pkg/pipeline"
	"github.com/sporeforge/sporeforge/pkg/prefix"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/registry"
	"github.com/sporeforge/sporeforge/pkg/steam"
)

func newRegistryCommand() *cobra.Command {
	var prefixName string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Re-apply the Spore registry entries to the Wine prefix",
		Long: `Regenerate the Spore install-location registry keys and import them
into the Wine prefix with regedit. Useful when the registry step of a
previous install reported a soft failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			if prefixName == "" {
				prefixName = pipeline.DefaultPrefixName
			}

			games, err := steam.NewLocator()
			if err != nil {
				return err
			}
			game, err := games.FindGame("spore")
			if err != nil {
				return err
			}
			if game == nil {
				return fmt.Errorf("spore not found in any Steam library")
			}

			manager, err := proton.NewManager()
			if err != nil {
				return err
			}
			rt, err := manager.ActiveRuntime()
			if err != nil {
				return err
			}
			run, err := launcher.New(rt, logger)
			if err != nil {
				return err
			}

			p := prefix.At(cfg.PrefixesDir, prefixName)
			doc := registry.BuildSporeRegistry(game.Path)
			if err := run.ImportRegistry(cmd.Context(), p, doc); err != nil {
				return fmt.Errorf("registry import failed: %w", err)
			}
			logger.Infof("registry entries applied to %s", p.Root)
			fmt.Fprintln(cmd.OutOrStdout(), "[OK] Spore registry entries applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&prefixName, "prefix-name", "", "Wine prefix name")

	return cmd
}
