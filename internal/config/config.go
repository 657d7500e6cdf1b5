// Package config loads exoform settings from YAML over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/exoform/internal/capture"
	"github.com/ayusman/exoform/internal/detector"
	"github.com/ayusman/exoform/internal/formation"
	"github.com/ayusman/exoform/internal/gesture"
	"github.com/ayusman/exoform/internal/spell"
)

// Config holds all exoform configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Driver    DriverConfig     `yaml:"driver"`
	Analyzer  AnalyzerConfig   `yaml:"analyzer"`
	Journal   JournalConfig    `yaml:"journal"`
	Capture   capture.Config   `yaml:"capture"`
	Detector  detector.Config  `yaml:"detector"`
	Formation formation.Config `yaml:"formation"`
	Gesture   gesture.Config   `yaml:"gesture"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
	Metrics   bool   `yaml:"metrics"`
	Tray      bool   `yaml:"tray"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DriverConfig configures the frame loop.
type DriverConfig struct {
	TickFPS   int           `yaml:"tick_fps"`
	FPSWindow time.Duration `yaml:"fps_window"`
}

// AnalyzerConfig configures spell generation.
type AnalyzerConfig struct {
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	PluginDir     string        `yaml:"plugin_dir"`
	PluginTimeout time.Duration `yaml:"plugin_timeout"`
}

// JournalConfig configures the spell journal.
type JournalConfig struct {
	// DSN is the sqlite database. Empty keeps the journal in memory.
	DSN string `yaml:"dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      "127.0.0.1:8080",
			StaticDir: "web",
			Metrics:   true,
			Tray:      true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Driver: DriverConfig{
			TickFPS:   60,
			FPSWindow: time.Second,
		},
		Analyzer: AnalyzerConfig{
			Model:         spell.DefaultModel,
			Timeout:       15 * time.Second,
			PluginDir:     defaultPluginDir(),
			PluginTimeout: 5 * time.Second,
		},
		Capture:   capture.DefaultConfig(),
		Detector:  detector.DefaultConfig(),
		Formation: formation.DefaultConfig(),
		Gesture:   gesture.DefaultConfig(),
	}
}

func defaultPluginDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "plugins"
	}
	return filepath.Join(home, ".exoform", "plugins")
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "exoform.yaml"
	}
	return filepath.Join(home, ".exoform", "config.yaml")
}

// Load reads a YAML file over Default. A missing file yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories. The
// analyzer API key is left out and the file is readable by the owner only.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.Analyzer.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API_KEY is the older name; GEMINI_API_KEY wins when both are set.
	if key := os.Getenv("API_KEY"); key != "" {
		c.Analyzer.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Analyzer.APIKey = key
	}
	if addr := os.Getenv("EXOFORM_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("EXOFORM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	if c.Driver.TickFPS <= 0 {
		errs = append(errs, fmt.Errorf("driver tick_fps must be positive, got %d", c.Driver.TickFPS))
	}
	if c.Driver.FPSWindow <= 0 {
		errs = append(errs, fmt.Errorf("driver fps_window must be positive, got %s", c.Driver.FPSWindow))
	}
	if c.Analyzer.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("analyzer timeout must be positive, got %s", c.Analyzer.Timeout))
	}
	if c.Analyzer.PluginTimeout <= 0 {
		errs = append(errs, fmt.Errorf("analyzer plugin_timeout must be positive, got %s", c.Analyzer.PluginTimeout))
	}
	if c.Capture.FPS <= 0 {
		errs = append(errs, fmt.Errorf("capture fps must be positive, got %d", c.Capture.FPS))
	}
	if c.Detector.MaxHands != 1 {
		errs = append(errs, fmt.Errorf("detector max_hands must be 1, got %d", c.Detector.MaxHands))
	}
	if err := c.Formation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("formation: %w", err))
	}
	if err := c.Gesture.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gesture: %w", err))
	}

	return errors.Join(errs...)
}
