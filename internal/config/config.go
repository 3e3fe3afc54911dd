// Package config loads and validates veriscan configuration. A config file
// is optional: every field has a default that produces a working scanner,
// and Load falls back to those defaults when no file exists.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veriscan/veriscan/internal/reference"
	"github.com/veriscan/veriscan/internal/scanning"
)

// Config represents the complete veriscan configuration.
type Config struct {
	// Scan holds the engine parameters.
	Scan scanning.Config `yaml:"scan" json:"scan"`

	// Reference holds the external scanner settings.
	Reference reference.Config `yaml:"reference" json:"reference"`

	// Resolve holds target resolution settings.
	Resolve ResolveConfig `yaml:"resolve" json:"resolve"`

	// Status holds the status endpoint settings.
	Status StatusConfig `yaml:"status" json:"status"`

	// Watch holds the continuous validation settings.
	Watch WatchConfig `yaml:"watch" json:"watch"`

	// Logging holds log settings.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ResolveConfig holds target resolution settings.
type ResolveConfig struct {
	// Timeout bounds one resolution attempt.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// UnmarshalYAML accepts Timeout as either a duration string ("5s") or
// raw nanoseconds. An absent key keeps the current value.
func (c *ResolveConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Timeout *yaml.Node `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Timeout != nil {
		d, err := decodeDuration(raw.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	return nil
}

// MarshalYAML writes Timeout in duration-string form.
func (c ResolveConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Timeout string `yaml:"timeout"`
	}{Timeout: c.Timeout.String()}, nil
}

func decodeDuration(node *yaml.Node) (time.Duration, error) {
	var d time.Duration
	if err := node.Decode(&d); err == nil {
		return d, nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return 0, fmt.Errorf("invalid duration %q", node.Value)
	}
	return time.ParseDuration(s)
}

// StatusConfig holds the HTTP status endpoint settings.
type StatusConfig struct {
	// Enabled starts the status server alongside scans.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Addr is the host:port the status server listens on.
	Addr string `yaml:"addr" json:"addr"`
}

// WatchConfig holds the continuous validation settings.
type WatchConfig struct {
	// Schedule is a cron expression controlling rescan cadence. Both
	// standard five-field specs and @every intervals are accepted.
	Schedule string `yaml:"schedule" json:"schedule"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is text or json.
	Format string `yaml:"format" json:"format"`

	// Output is stderr, stdout, or a file path. Reports own stdout, so
	// logs default to stderr.
	Output string `yaml:"output" json:"output"`
}

// Default returns a configuration with working defaults.
func Default() *Config {
	return &Config{
		Scan:      scanning.DefaultConfig(),
		Reference: reference.DefaultConfig(),
		Resolve: ResolveConfig{
			Timeout: 5 * time.Second,
		},
		Status: StatusConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
		Watch: WatchConfig{
			Schedule: "@every 1m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from a file, layered over defaults. A missing
// file is not an error; defaults are returned unchanged.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAML is a superset of JSON, so one parser covers both formats.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Scan.Validate(); err != nil {
		return fmt.Errorf("invalid scan configuration: %w", err)
	}

	validTimings := map[string]bool{
		"":                         true,
		reference.TimingPolite:     true,
		reference.TimingNormal:     true,
		reference.TimingAggressive: true,
	}
	if !validTimings[c.Reference.Timing] {
		return fmt.Errorf("invalid reference timing: %s", c.Reference.Timing)
	}

	if c.Resolve.Timeout < 0 {
		return fmt.Errorf("resolve timeout must not be negative")
	}

	if c.Status.Enabled {
		if c.Status.Addr == "" {
			return fmt.Errorf("status address is required when the status server is enabled")
		}
		if _, _, err := net.SplitHostPort(c.Status.Addr); err != nil {
			return fmt.Errorf("invalid status address: %w", err)
		}
	}

	if c.Watch.Schedule == "" {
		return fmt.Errorf("watch schedule must not be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// GetStatusAddress returns the status server listen address.
func (c *Config) GetStatusAddress() string {
	return c.Status.Addr
}

// IsStatusEnabled returns true if the status server should run.
func (c *Config) IsStatusEnabled() bool {
	return c.Status.Enabled
}

// GetLogOutput returns the log output destination.
func (c *Config) GetLogOutput() string {
	return c.Logging.Output
}
