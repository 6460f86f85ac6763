package commands

import (
	"fmt"

	"github.com/sporeforge/sporeforge/pkg/config"
	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

// loadConfig loads the configuration honoring the global --config and
// --verbose flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the logger from the loaded configuration.
func newLogger(cfg *config.Config) (*telemetry.Logger, error) {
	return telemetry.NewLogger(cfg.Logging)
}

// consoleSink prints pipeline progress to the terminal: log lines verbatim,
// percentages as bracketed markers.
type consoleSink struct{}

// Progress implements telemetry.Sink.
func (consoleSink) Progress(percent int) {
	fmt.Printf("[%3d%%]\n", percent)
}

// Log implements telemetry.Sink.
func (consoleSink) Log(line string) {
	fmt.Println(line)
}
