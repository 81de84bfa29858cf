// Package memory implements an in-memory document medium for tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ticketdesk/internal/docstore/core"
)

// Store implements core.Medium backed by process memory. Intended for tests.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// New returns an empty in-memory medium.
func New() *Store { return &Store{docs: make(map[string][]byte)} }

// Driver returns the medium driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Get returns a copy of the stored document.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

// Keys returns all keys matching prefix.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
