// Package config loads the server configuration from a YAML file and
// TVBWEB_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file the server looks for when no path is
// given on the command line.
const DefaultFile = "tvbweb.yaml"

// Config carries every tunable of the server process.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string `yaml:"listen"`

	// Project scopes burst listings until real project management
	// arrives.
	Project string `yaml:"project"`

	// ClientDir points at the browser bundle. Empty means resolve it
	// relative to the working directory and executable.
	ClientDir string `yaml:"client_dir"`

	Store      StoreConfig      `yaml:"store"`
	Sessions   SessionConfig    `yaml:"sessions"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the sqlite database file. Ignored by the memory backend.
	Path string `yaml:"path"`
}

// SessionConfig tunes the browser session manager.
type SessionConfig struct {
	// TTL is the idle lifetime of a session, in time.ParseDuration
	// syntax. Empty keeps the manager's default.
	TTL string `yaml:"ttl"`
}

// SimulationConfig tunes the burst runner.
type SimulationConfig struct {
	// Workers caps how many bursts run concurrently.
	Workers int `yaml:"workers"`
}

// LoggingConfig selects event sinks and verbosity.
type LoggingConfig struct {
	// Sinks lists the enabled sinks: "console" and "json".
	Sinks []string `yaml:"sinks"`

	// Severity is the minimum level routed to sinks: "debug", "info",
	// "warn" or "error".
	Severity string `yaml:"severity"`

	// JSONPath is the file the json sink appends to.
	JSONPath string `yaml:"json_path"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() *Config {
	return &Config{
		Listen:  ":8080",
		Project: "default_project",
		Store: StoreConfig{
			Backend: "memory",
			Path:    "tvb.db",
		},
		Sessions: SessionConfig{
			TTL: "30m",
		},
		Simulation: SimulationConfig{
			Workers: 2,
		},
		Logging: LoggingConfig{
			Sinks:    []string{"console"},
			Severity: "info",
			JSONPath: "tvb_events.jsonl",
		},
	}
}

// Load resolves the effective configuration: defaults, then the YAML
// file, then environment variables. An empty path reads DefaultFile
// when it exists and stays on defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads one YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SessionTTL returns the parsed idle lifetime. Zero means the session
// manager should fall back to its own default.
func (c SessionConfig) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks the configuration before the server starts.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}

	switch c.Store.Backend {
	case "", "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("sqlite backend needs store.path")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (valid: memory, sqlite)", c.Store.Backend)
	}

	if c.Sessions.TTL != "" {
		d, err := time.ParseDuration(c.Sessions.TTL)
		if err != nil {
			return fmt.Errorf("invalid sessions.ttl: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("sessions.ttl must not be negative, got %s", d)
		}
	}

	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation.workers must be at least 1, got %d", c.Simulation.Workers)
	}

	validSinks := map[string]bool{"console": true, "json": true}
	for _, sink := range c.Logging.Sinks {
		if !validSinks[sink] {
			return fmt.Errorf("invalid logging sink: %s (valid: console, json)", sink)
		}
		if sink == "json" && c.Logging.JSONPath == "" {
			return fmt.Errorf("json sink needs logging.json_path")
		}
	}

	validSeverities := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validSeverities[c.Logging.Severity] {
		return fmt.Errorf("invalid logging severity: %s (valid: debug, info, warn, error)", c.Logging.Severity)
	}

	return nil
}

// HasSink reports whether a sink name is enabled.
func (c LoggingConfig) HasSink(name string) bool {
	for _, sink := range c.Sinks {
		if sink == name {
			return true
		}
	}
	return false
}

// applyEnvOverrides layers TVBWEB_* environment variables on top of
// the loaded configuration. Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TVBWEB_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("TVBWEB_PROJECT"); v != "" {
		cfg.Project = v
	}
	if v := os.Getenv("TVBWEB_CLIENT_DIR"); v != "" {
		cfg.ClientDir = v
	}
	if v := os.Getenv("TVBWEB_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("TVBWEB_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TVBWEB_SESSION_TTL"); v != "" {
		cfg.Sessions.TTL = v
	}
	if v := os.Getenv("TVBWEB_SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Workers = n
		}
	}
	if v := os.Getenv("TVBWEB_LOG_SINKS"); v != "" {
		var sinks []string
		for _, sink := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(sink); trimmed != "" {
				sinks = append(sinks, trimmed)
			}
		}
		cfg.Logging.Sinks = sinks
	}
	if v := os.Getenv("TVBWEB_LOG_SEVERITY"); v != "" {
		cfg.Logging.Severity = v
	}
	if v := os.Getenv("TVBWEB_LOG_JSON_PATH"); v != "" {
		cfg.Logging.JSONPath = v
	}
}
