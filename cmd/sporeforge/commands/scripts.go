package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sporeforge/sporeforge/pkg/pipeline"
	"github.com/sporeforge/sporeforge/pkg/prefix"
	"github.com/sporeforge/sporeforge/pkg/proton"
	"github.com/sporeforge/sporeforge/pkg/scripts"
	"github.com/sporeforge/sporeforge/pkg/steam"
	"github.com/sporeforge/sporeforge/pkg/watcher"
)

func newScriptsCommand() *cobra.Command {
	var (
		outputDir  string
		prefixName string
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Generate launch scripts for the installed ModAPI executables",
		Long: `Locate the ModAPI installation inside the Wine prefix and write one
launch script per installed executable (launcher, easy installer, easy
uninstaller). Existing scripts are overwritten.

With --wait, the command blocks until the ModAPI installer has placed
its files into the prefix, so it can be chained directly after
'sporeforge install'.`,
		Example: `  # Generate scripts into the configured scripts directory
  sporeforge scripts

  # Wait for the guest installer to finish first
  sporeforge scripts --wait

  # Custom output directory
  sporeforge scripts --output ~/Desktop`,
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
			if outputDir == "" {
				outputDir = cfg.ScriptsDir
			}

			p := prefix.At(cfg.PrefixesDir, prefixName)
			sink := consoleSink{}

			sink.Log("Locating ModAPI installation...")
			discovered := p.Locate()
			if discovered == nil && wait {
				sink.Log("Waiting for the ModAPI installer to finish...")
				w := watcher.New(logger.Zerolog())
				discovered, err = w.Wait(cmd.Context(), p)
				if err != nil {
					return fmt.Errorf("gave up waiting for the installation: %w", err)
				}
			}
			if discovered == nil {
				return fmt.Errorf("could not find a ModAPI installation in prefix %s", p.Root)
			}
			sink.Log(fmt.Sprintf("Found ModAPI installation at: %s", discovered.Root))

			manager, err := proton.NewManager()
			if err != nil {
				return err
			}
			rt, err := manager.ActiveRuntime()
			if err != nil {
				return err
			}

			games, err := steam.NewLocator()
			if err != nil {
				return err
			}

			gen, err := scripts.NewGenerator(rt, games.Root, sink)
			if err != nil {
				return err
			}

			// Surface partially installed kits before generating.
			gen.Verify(discovered.Root)

			created, err := gen.Generate(outputDir, p, discovered)
			if err != nil {
				return err
			}
			logger.Infof("generated %d launch scripts in %s", len(created), outputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "script output directory")
	cmd.Flags().StringVar(&prefixName, "prefix-name", "", "Wine prefix name")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the guest installer to finish")

	return cmd
}
