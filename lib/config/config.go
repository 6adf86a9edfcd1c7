// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable [Load] reads the config path
// from.
const EnvVar = "MOULD_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the configuration shared by the mould command-line tools.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Server configures the RPC endpoint and the client talking to it.
	Server ServerConfig `yaml:"server"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint of long-running tools.
	Metrics MetricsConfig `yaml:"metrics"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Server  *ServerConfig  `yaml:"server,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// ServerConfig configures the connection to the RPC server.
type ServerConfig struct {
	// URL is the ws:// or wss:// endpoint.
	URL string `yaml:"url"`

	// Format is the request encoding: "json" or "cbor".
	Format string `yaml:"format"`

	// RequestTimeout fails requests that get no response in time.
	// Zero waits indefinitely.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ReadLimit is the largest frame accepted from the server, in bytes.
	ReadLimit int64 `yaml:"read_limit"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is a slog level name: debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is "text", "json", or "auto" (text on a terminal, JSON
	// otherwise).
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Address is the listen address for /metrics. Empty disables the
	// endpoint.
	Address string `yaml:"address"`
}

// Default returns the default configuration. Loading a file merges
// into these values.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			URL:          "ws://localhost:8080/rpc",
			Format:       "json",
			WriteTimeout: 10 * time.Second,
			ReadLimit:    1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the file named by MOULD_CONFIG.
//
// There is no discovery: if MOULD_CONFIG is not set, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your mould.yaml config file, or use --config flag", EnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// Environment variables do not override config values. The only
// expansion performed is ${VAR} and ${VAR:-default} in the server URL
// and metrics address.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: machine-readable logs and bounded requests.
		if overrides == nil {
			overrides = &Overrides{
				Server:  &ServerConfig{RequestTimeout: 30 * time.Second},
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if server := overrides.Server; server != nil {
		if server.URL != "" {
			c.Server.URL = server.URL
		}
		if server.Format != "" {
			c.Server.Format = server.Format
		}
		if server.RequestTimeout != 0 {
			c.Server.RequestTimeout = server.RequestTimeout
		}
		if server.WriteTimeout != 0 {
			c.Server.WriteTimeout = server.WriteTimeout
		}
		if server.ReadLimit != 0 {
			c.Server.ReadLimit = server.ReadLimit
		}
	}

	if logging := overrides.Logging; logging != nil {
		if logging.Level != "" {
			c.Logging.Level = logging.Level
		}
		if logging.Format != "" {
			c.Logging.Format = logging.Format
		}
	}

	if overrides.Metrics != nil && overrides.Metrics.Address != "" {
		c.Metrics.Address = overrides.Metrics.Address
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Server.URL = expandVars(c.Server.URL, vars)
	c.Metrics.Address = expandVars(c.Metrics.Address, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// SlogLevel parses Logging.Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Server.URL == "" {
		errs = append(errs, fmt.Errorf("server.url is required"))
	} else if parsed, err := url.Parse(c.Server.URL); err != nil {
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	} else if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		errs = append(errs, fmt.Errorf("server.url must use ws or wss, got %q", parsed.Scheme))
	}

	if c.Server.Format != "json" && c.Server.Format != "cbor" {
		errs = append(errs, fmt.Errorf("server.format must be json or cbor, got %q", c.Server.Format))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must not be negative"))
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must not be negative"))
	}
	if c.Server.ReadLimit < 0 {
		errs = append(errs, fmt.Errorf("server.read_limit must not be negative"))
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
