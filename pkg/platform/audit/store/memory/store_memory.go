// Package memory provides the in-memory audit store used in development and
// tests.
package memory

import (
	"context"
	"sync"

	audit "veil/pkg/platform/audit"
)

type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far, in order.
func (s *Store) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event(nil), s.events...)
}
