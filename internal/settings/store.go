package settings

import (
	"fmt"
	"sync"
)

// PersistFunc saves settings after every accepted mutation.
type PersistFunc func(Settings) error

// Listener observes accepted changes. It runs after the store is unlocked.
type Listener func(old, new Settings)

// Store is the live, concurrency-safe copy of the settings.
type Store struct {
	mu        sync.RWMutex
	current   Settings
	persist   PersistFunc
	listeners []Listener
}

// NewStore wraps initial. persist may be nil.
func NewStore(initial Settings, persist PersistFunc) *Store {
	return &Store{current: initial.Clone(), persist: persist}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// OnChange registers l for future changes.
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Update applies fn to a copy, validates and persists it, then makes it current.
func (s *Store) Update(fn func(*Settings) error) (Settings, error) {
	return s.apply(fn, true)
}

// Replace swaps in settings loaded from elsewhere (e.g. a reloaded config
// file) without persisting them again.
func (s *Store) Replace(next Settings) error {
	_, err := s.apply(func(cur *Settings) error {
		*cur = next.Clone()
		return nil
	}, false)
	return err
}

func (s *Store) apply(fn func(*Settings) error, persist bool) (Settings, error) {
	s.mu.Lock()
	old := s.current.Clone()
	next := s.current.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return old, err
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return old, fmt.Errorf("settings: %w", err)
	}
	if persist && s.persist != nil {
		if err := s.persist(next.Clone()); err != nil {
			s.mu.Unlock()
			return old, fmt.Errorf("settings: persist: %w", err)
		}
	}
	s.current = next
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(old, next.Clone())
	}
	return next.Clone(), nil
}
