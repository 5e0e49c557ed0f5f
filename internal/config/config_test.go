package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIBETUNNEL_SERVER", "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("url = %q, want %q", cfg.Server.URL, DefaultServerURL)
	}
	if cfg.PollInterval() != 3*time.Second {
		t.Errorf("poll interval = %v, want 3s", cfg.PollInterval())
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[server]\nurl = \"http://file:1\"\n\n[poll]\ninterval_seconds = 10\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VIBETUNNEL_SERVER", "")
	cfg := Load(path)
	if cfg.Server.URL != "http://file:1" {
		t.Errorf("url = %q, want the file value", cfg.Server.URL)
	}
	if cfg.Poll.IntervalSeconds != 10 {
		t.Errorf("interval = %d, want 10", cfg.Poll.IntervalSeconds)
	}

	// The environment beats the file.
	t.Setenv("VIBETUNNEL_SERVER", "http://env:2")
	cfg = Load(path)
	if cfg.Server.URL != "http://env:2" {
		t.Errorf("url = %q, want the env value", cfg.Server.URL)
	}
}
