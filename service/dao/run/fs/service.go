// Package fs keeps flow run records as JSON files in an afs location.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/service/dao"
	"github.com/viant/phaser/service/dao/criteria"
)

// Service implements a file based run history.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ dao.Service[string, model.Run] = (*Service)(nil)

// Save persists a run record.
func (s *Service) Save(ctx context.Context, run *model.Run) error {
	if run == nil {
		return dao.ErrNilEntity
	}
	if run.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	URL := s.runURL(run.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save run to %s: %w", URL, err)
	}
	return nil
}

// Load retrieves a run record.
func (s *Service) Load(ctx context.Context, id string) (*model.Run, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.runURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check run %s: %w", id, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", id, err)
	}
	ret := &model.Run{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}
	return ret, nil
}

// Delete removes a run record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.runURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to check run %s: %w", id, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// List returns matching run records ordered by id. Unreadable files are
// logged and skipped.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exists, err := s.fs.Exists(ctx, s.baseURL)
	if err != nil || !exists {
		return nil, err
	}
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	logger := ctxlog.FromContext(ctx)
	var ret []*model.Run
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			logger.Warn("failed to read run", "url", object.URL(), "error", err)
			continue
		}
		run := &model.Run{}
		if err = json.Unmarshal(data, run); err != nil {
			logger.Warn("failed to unmarshal run", "url", object.URL(), "error", err)
			continue
		}
		if criteria.Match(run.Field, parameters) {
			ret = append(ret, run)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (s *Service) runURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}

// New creates a file based run history rooted at baseURL; fs defaults to
// afs.New().
func New(baseURL string, fs afs.Service) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL", dao.ErrInvalidID)
	}
	if fs == nil {
		fs = afs.New()
	}
	return &Service{baseURL: url.Normalize(baseURL, file.Scheme), fs: fs}, nil
}
