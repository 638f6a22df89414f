// Package config loads the knltb-stats settings.
//
// Settings come from three layers, later layers winning: built-in defaults,
// an optional YAML file, and KNLTB_* environment variables. Command-line
// flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/knltb-stats/internal/fetch"
	"github.com/pfrederiksen/knltb-stats/internal/logger"
	"github.com/pfrederiksen/knltb-stats/internal/notifier"
	"github.com/pfrederiksen/knltb-stats/internal/sink"
	"github.com/pfrederiksen/knltb-stats/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. KNLTB_DATA_DIR.
const EnvPrefix = "KNLTB"

// DefaultPath is read when no config file is named explicitly.
const DefaultPath = "~/.config/knltb-stats/config.yaml"

// Competition selects the teams of one association in one competition.
type Competition struct {
	Name        string `yaml:"name"`
	Association string `yaml:"association"`
}

// Config holds the full knltb-stats configuration.
type Config struct {
	DataDir     string        `yaml:"data_dir" envconfig:"DATA_DIR"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL"`
	Delay       time.Duration `yaml:"delay" envconfig:"DELAY"`
	Retries     int           `yaml:"retries" envconfig:"RETRIES"`
	Format      string        `yaml:"format" envconfig:"FORMAT"`
	LogLevel    string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Archive     bool          `yaml:"archive" envconfig:"ARCHIVE"`
	SQLitePath  string        `yaml:"sqlite" envconfig:"SQLITE"`
	MetricsFile string        `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	Matches     bool          `yaml:"matches" envconfig:"MATCHES"`

	Players      []int         `yaml:"players" envconfig:"PLAYERS"`
	Competitions []Competition `yaml:"competitions" ignored:"true"`

	// Twitter is only read from the environment.
	Twitter notifier.Credentials `yaml:"-" ignored:"true"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		DataDir:  storage.DefaultDataDir,
		BaseURL:  fetch.DefaultBaseURL,
		Delay:    fetch.DefaultDelay,
		Retries:  3,
		Format:   string(sink.FormatText),
		LogLevel: "info",
		Archive:  true,
	}
}

// Locate returns the config file to read. An explicit path is always used;
// otherwise DefaultPath is used when it exists, and "" when it does not.
func Locate(explicit string) string {
	if explicit != "" {
		return expandHome(explicit)
	}
	path := expandHome(DefaultPath)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Load reads path (skipped when empty) over the defaults and applies the
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if err := envconfig.Process("", &cfg.Twitter); err != nil {
		return nil, fmt.Errorf("failed to load Twitter credentials: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	var errs []error

	switch sink.OutputFormat(strings.ToLower(c.Format)) {
	case sink.FormatText, sink.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", c.Format))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must be >= 0, got %s", c.Delay))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must be >= 0, got %d", c.Retries))
	}
	for _, n := range c.Players {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("invalid player number %d", n))
		}
	}
	for i, comp := range c.Competitions {
		if strings.TrimSpace(comp.Name) == "" {
			errs = append(errs, fmt.Errorf("competition[%d]: name is required", i))
		}
		if strings.TrimSpace(comp.Association) == "" {
			errs = append(errs, fmt.Errorf("competition[%d]: association is required", i))
		}
	}
	return errors.Join(errs...)
}

// OutputFormat returns Format as a sink format.
func (c *Config) OutputFormat() sink.OutputFormat {
	return sink.OutputFormat(strings.ToLower(c.Format))
}

// Level returns LogLevel as a logger level. Validate has checked it.
func (c *Config) Level() logger.Level {
	l, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return l
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
