// Package fs keeps lock entries as files through afs, so that processes
// sharing a directory exclude each other.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/phaser/internal/clock"
	"github.com/viant/phaser/lock"
)

// Store writes one <key>.lock file per entry under baseURL.
type Store struct {
	baseURL string
	fs      afs.Service
	mux     sync.Mutex
}

type entry struct {
	lock.Owner
	Key      string `json:"key"`
	Acquired string `json:"acquired"`
}

// NewStore creates a file store; a nil fs means afs.New().
func NewStore(fs afs.Service, baseURL string) *Store {
	if fs == nil {
		fs = afs.New()
	}
	return &Store{baseURL: baseURL, fs: fs}
}

func (s *Store) Acquire(ctx context.Context, key string, owner *lock.Owner) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	URL := s.entryURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check lock file %s: %w", URL, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", lock.ErrLocked, URL)
	}
	data, err := json.Marshal(&entry{Owner: *owner, Key: key, Acquired: clock.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("failed to marshal lock entry: %w", err)
	}
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to create lock file %s: %w", URL, err)
	}
	return nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	URL := s.entryURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check lock file %s: %w", URL, err)
	}
	if !exists {
		return nil
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete lock file %s: %w", URL, err)
	}
	return nil
}

// Owner returns the holder of key, or nil when it is free.
func (s *Store) Owner(ctx context.Context, key string) (*lock.Owner, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	URL := s.entryURL(key)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil || !exists {
		return nil, err
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file %s: %w", URL, err)
	}
	held := &entry{}
	if err = json.Unmarshal(data, held); err != nil {
		return nil, fmt.Errorf("invalid lock file %s: %w", URL, err)
	}
	return &held.Owner, nil
}

func (s *Store) entryURL(key string) string {
	return url.Join(s.baseURL, key+".lock")
}

// New creates a provider storing lock files under baseURL.
func New(scope lock.Scope, fs afs.Service, baseURL string) *lock.Keyed {
	return lock.New(scope, NewStore(fs, baseURL))
}
