// Package store provides generic dao building blocks.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/phaser/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service. Records
// are copied on the way in and out.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]*T
	key     func(*T) string
	clone   func(*T) *T
	match   func(*T, []*dao.Parameter) bool
}

var _ dao.Service[string, struct{}] = (*MemoryStore[struct{}])(nil)

// NewMemoryStore creates a store; key extracts the record id, clone copies a
// record and match filters List results. A nil match accepts every record.
func NewMemoryStore[T any](key func(*T) string, clone func(*T) *T, match func(*T, []*dao.Parameter) bool) *MemoryStore[T] {
	return &MemoryStore[T]{records: make(map[string]*T), key: key, clone: clone, match: match}
}

// Save stores or overwrites a record.
func (s *MemoryStore[T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.key(v)
	if key == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = s.clone(v)
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[T]) Load(_ context.Context, key string) (*T, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.clone(v), nil
}

// Delete removes a record.
func (s *MemoryStore[T]) Delete(_ context.Context, key string) error {
	if key == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// List returns matching records ordered by key.
func (s *MemoryStore[T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for key, v := range s.records {
		if s.match == nil || s.match(v, parameters) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := make([]*T, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.clone(s.records[key]))
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
