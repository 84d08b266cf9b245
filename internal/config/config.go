// Package config loads warungctl configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the client configuration.
type Config struct {
	// APIURL is the base URL of the back-office API.
	APIURL string `yaml:"api_url"`

	// DashboardURL is the browser dashboard location. Subdomain, path, and
	// query tenant hints are derived from it.
	DashboardURL string `yaml:"dashboard_url"`

	// StateDir holds the persisted session and last-used tenant files.
	StateDir string `yaml:"state_dir"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// DefaultStateDir returns ~/.warung, falling back to a relative .warung
// directory when the home directory is unknown.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".warung"
	}
	return filepath.Join(home, ".warung")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultStateDir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:   "http://localhost:8000",
		StateDir: DefaultStateDir(),
		LogLevel: "info",
	}
}

// Load reads the configuration file at path when it exists, then applies
// WARUNG_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment only.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("WARUNG_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("WARUNG_DASHBOARD_URL"); v != "" {
		cfg.DashboardURL = v
	}
	if v := os.Getenv("WARUNG_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("WARUNG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// SessionFile returns the path of the persisted session state.
func (c Config) SessionFile() string {
	return filepath.Join(c.StateDir, "session.json")
}

// LastTenantFile returns the path of the persisted last-used tenant id.
func (c Config) LastTenantFile() string {
	return filepath.Join(c.StateDir, "last_tenant")
}
