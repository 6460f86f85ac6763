// Package config loads and validates the SporeForge configuration file.
//
// The configuration lives at ~/.config/sporeforge/config.yaml by default.
// Every field is optional; a missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sporeforge/sporeforge/pkg/telemetry"
)

// Config is the root configuration for the SporeForge CLI.
type Config struct {
	// PrefixesDir is where Wine prefixes are created. Each prefix lives at
	// <PrefixesDir>/<name>/pfx.
	PrefixesDir string `yaml:"prefixes_dir" validate:"required"`

	// CacheDir is where downloaded installer assets are cached.
	CacheDir string `yaml:"cache_dir" validate:"required"`

	// ScriptsDir is the default output directory for generated launch
	// scripts.
	ScriptsDir string `yaml:"scripts_dir" validate:"required"`

	// GitHub identifies the release repository for the ModAPI launcher kit.
	GitHub GitHubConfig `yaml:"github"`

	// StateDB is the path of the sqlite run-history database.
	StateDB string `yaml:"state_db" validate:"required"`

	// Logging contains logging configuration.
	Logging telemetry.LoggingConfig `yaml:"logging"`
}

// GitHubConfig identifies a GitHub repository and the asset to fetch from its
// latest release.
type GitHubConfig struct {
	Owner string `yaml:"owner" validate:"required"`
	Repo  string `yaml:"repo" validate:"required"`

	// AssetName is the exact release asset filename to download.
	AssetName string `yaml:"asset_name" validate:"required"`
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sporeforge", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	dataDir := filepath.Join(home, ".local", "share", "sporeforge")

	return &Config{
		PrefixesDir: filepath.Join(dataDir, "prefixes"),
		CacheDir:    filepath.Join(dataDir, "cache"),
		ScriptsDir:  filepath.Join(dataDir, "scripts"),
		StateDB:     filepath.Join(dataDir, "sporeforge.db"),
		GitHub: GitHubConfig{
			Owner:     "Spore-Community",
			Repo:      "modapi-launcher-kit",
			AssetName: "ModAPI.InterimSetup.exe",
		},
		Logging: telemetry.LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}, nil
}

// Load reads the configuration from path, layered over the defaults. An
// empty path means the default location; a missing file at the default
// location is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	return nil
}
