// Package memory keeps lock entries in process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/phaser/lock"
)

// Store is an in-process lock store.
type Store struct {
	mux     sync.Mutex
	entries map[string]lock.Owner
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: map[string]lock.Owner{}}
}

func (s *Store) Acquire(_ context.Context, key string, owner *lock.Owner) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if held, ok := s.entries[key]; ok {
		return fmt.Errorf("%w: %s held by batch %s", lock.ErrLocked, key, held.BatchID)
	}
	s.entries[key] = *owner
	return nil
}

func (s *Store) Release(_ context.Context, key string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of held entries.
func (s *Store) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.entries)
}

// New creates a provider with its own store.
func New(scope lock.Scope) *lock.Keyed {
	return lock.New(scope, NewStore())
}
