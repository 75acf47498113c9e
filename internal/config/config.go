package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all demokit configuration.
type Config struct {
	// Scaffold writer settings
	Scaffold ScaffoldConfig `yaml:"scaffold"`

	// Eternal loop demo settings
	Loop LoopConfig `yaml:"loop"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ScaffoldConfig configures the scaffold writer.
type ScaffoldConfig struct {
	PackageName string `yaml:"package_name"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scaffold: ScaffoldConfig{
			PackageName: "helloworld",
		},

		Loop: LoopConfig{
			DelayMode: DelayModeBusy,
			Workers: []LoopSpec{
				{Name: "Thread 1", Interval: "100ms"},
				{Name: "Thread 2", Interval: "150ms"},
				{Name: "Thread 3", Interval: "200ms"},
			},
			Main: LoopSpec{
				Name:           "Main thread",
				Interval:       "120ms",
				MilestoneEvery: 10,
			},
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("DEMOKIT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if mode := os.Getenv("DEMOKIT_DELAY_MODE"); mode != "" {
		c.Loop.DelayMode = mode
	}
	if name := os.Getenv("DEMOKIT_PACKAGE_NAME"); name != "" {
		c.Scaffold.PackageName = name
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Scaffold.PackageName == "" {
		return fmt.Errorf("scaffold.package_name must not be empty")
	}

	if !isValidDelayMode(c.Loop.DelayMode) {
		return fmt.Errorf("invalid loop.delay_mode: %s (valid: %v)", c.Loop.DelayMode, ValidDelayModes)
	}

	for i, w := range c.Loop.Workers {
		if w.Name == "" {
			return fmt.Errorf("loop.workers[%d]: name must not be empty", i)
		}
		if _, err := parsePositive(w.Interval); err != nil {
			return fmt.Errorf("loop.workers[%d] (%s): %w", i, w.Name, err)
		}
	}
	if c.Loop.Main.Name == "" {
		return fmt.Errorf("loop.main: name must not be empty")
	}
	if _, err := parsePositive(c.Loop.Main.Interval); err != nil {
		return fmt.Errorf("loop.main: %w", err)
	}

	if !isValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging.format: %s (valid: json, console)", c.Logging.Format)
	}

	return nil
}

func parsePositive(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", s)
	}
	return d, nil
}
