// Package config reads the client configuration file and resolves the
// directories used for persisted state.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "vibetunnel"

// Config is the client configuration, read from config.toml.
type Config struct {
	Server struct {
		URL string `toml:"url"`
	} `toml:"server"`
	Poll struct {
		IntervalSeconds int `toml:"interval_seconds"`
	} `toml:"poll"`
	Ntfy struct {
		Topic string `toml:"topic"`
		Token string `toml:"token"`
	} `toml:"ntfy"`
}

// DefaultServerURL is used when neither config nor environment set one.
const DefaultServerURL = "http://localhost:4020"

// DefaultConfigPath returns the config file path, honoring
// VIBETUNNEL_CONFIG and XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	if p := os.Getenv("VIBETUNNEL_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.toml")
}

// Dir returns the config directory (~/.config/vibetunnel by default).
func Dir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, appName)
}

// StateDir returns the state directory for logs and tokens
// (~/.local/share/vibetunnel by default).
func StateDir() string {
	if d := os.Getenv("XDG_STATE_HOME"); d != "" {
		return filepath.Join(d, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// Load reads the config file. A missing file yields defaults; the
// VIBETUNNEL_SERVER environment variable overrides the server URL.
func Load(path string) Config {
	var cfg Config
	_, _ = toml.DecodeFile(path, &cfg)

	if url := os.Getenv("VIBETUNNEL_SERVER"); url != "" {
		cfg.Server.URL = url
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = DefaultServerURL
	}
	if cfg.Poll.IntervalSeconds <= 0 {
		cfg.Poll.IntervalSeconds = 3
	}
	return cfg
}

// PollInterval returns the poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSeconds) * time.Second
}
