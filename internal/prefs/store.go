package prefs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Bus is a typed publish/subscribe channel for one preference domain.
// Subscribers get the full updated value on every save; cancel funcs
// must be called on teardown.
type Bus[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]chan T
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a subscriber. The returned channel is buffered;
// a slow subscriber drops intermediate values, never blocks a writer.
func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan T, 4)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Publish delivers v to every subscriber.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Store persists one preference domain to a JSON file.
type Store[T any] struct {
	path     string
	defaults T
	bus      *Bus[T]
	mu       sync.Mutex
}

// NewStore creates a store for path with the given defaults.
func NewStore[T any](path string, defaults T) *Store[T] {
	return &Store[T]{
		path:     path,
		defaults: defaults,
		bus:      NewBus[T](),
	}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// Load reads the stored value, merging it over the defaults. Missing
// file, unreadable file and parse errors all fall back to defaults;
// Load never fails.
func (s *Store[T]) Load() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store[T]) load() T {
	v := s.defaults
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("prefs: read %s: %v", filepath.Base(s.path), err)
		}
		return v
	}
	// Unmarshal over the defaults value: unknown keys are ignored,
	// absent keys keep their default (forward-compatible schema).
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("prefs: parse %s: %v", filepath.Base(s.path), err)
		return s.defaults
	}
	return v
}

// Save writes the value and broadcasts it to all subscribers.
func (s *Store[T]) Save(v T) error {
	s.mu.Lock()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("write prefs: %w", err)
	}
	s.mu.Unlock()

	s.bus.Publish(v)
	return nil
}

// Subscribe registers for change broadcasts on this domain.
func (s *Store[T]) Subscribe() (<-chan T, func()) {
	return s.bus.Subscribe()
}

// Reload re-reads the file and broadcasts the result. Used when the
// file was written by another process.
func (s *Store[T]) Reload() {
	s.mu.Lock()
	v := s.load()
	s.mu.Unlock()
	s.bus.Publish(v)
}
