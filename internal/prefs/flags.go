package prefs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Flags stores one-shot boolean markers (dismissed banners, finished
// onboarding) in a single JSON file.
type Flags struct {
	path string
	mu   sync.Mutex
}

// NewFlags creates a flags store backed by path.
func NewFlags(path string) *Flags {
	return &Flags{path: path}
}

// Get reports whether the named flag is set. Read errors mean unset.
func (f *Flags) Get(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()[name]
}

// Set records the named flag.
func (f *Flags) Set(name string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := f.read()
	m[name] = value

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write flags: %w", err)
	}
	return nil
}

func (f *Flags) read() map[string]bool {
	m := make(map[string]bool)
	data, err := os.ReadFile(f.path)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("prefs: parse flags: %v", err)
		return make(map[string]bool)
	}
	return m
}
