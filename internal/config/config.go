// Package config resolves CLI-wide settings from an optional YAML file plus
// environment overrides.
package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "INSIGHT_CONFIG"
	backendURLEnv = "INSIGHT_BACKEND_URL"
	dbPathEnv     = "INSIGHT_DB"

	defaultBackendURL = "http://localhost:8000"
	defaultTimeout    = 60 * time.Second
)

// Config holds the settings shared across commands.
type Config struct {
	BackendURL     string `yaml:"backendUrl"`
	DBPath         string `yaml:"dbPath"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout converts the configured timeout, falling back to the default.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(backendURLEnv); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv(dbPathEnv); v != "" {
		c.DBPath = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.BackendURL != "" {
		base.BackendURL = override.BackendURL
	}
	if override.DBPath != "" {
		base.DBPath = override.DBPath
	}
	if override.TimeoutSeconds > 0 {
		base.TimeoutSeconds = override.TimeoutSeconds
	}
	return base
}

func defaultConfig() Config {
	return Config{
		BackendURL: defaultBackendURL,
		DBPath:     defaultDBPath(),
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "insight.sqlite"
	}
	return filepath.Join(home, ".insight-cli", "insight.sqlite")
}
