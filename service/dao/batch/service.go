// Package batch loads batch definitions from YAML or HCL files.
package batch

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
)

// Extensions lists the definition extensions tried by Batch, in order.
var Extensions = []string{".yaml", ".yml", ".hcl"}

// Service loads and caches batch definitions.
type Service struct {
	fs      afs.Service
	baseURL string
	args    map[string]string
	mux     sync.Mutex
	cache   map[string]*model.Batch
}

// Option configures a Service.
type Option func(s *Service)

// WithFileSystem sets the file system.
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithBaseURL sets the location Batch resolves batch ids against.
func WithBaseURL(URL string) Option {
	return func(s *Service) {
		s.baseURL = URL
	}
}

// WithArguments sets the arguments used by Batch.
func WithArguments(args map[string]string) Option {
	return func(s *Service) {
		s.args = args
	}
}

// New creates a service.
func New(options ...Option) *Service {
	ret := &Service{cache: map[string]*model.Batch{}}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret
}

// Batch returns the batch stored as <baseURL>/<batchID> with one of Extensions.
func (s *Service) Batch(ctx context.Context, batchID string) (*model.Batch, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok := s.cache[batchID]; ok {
		return ret, nil
	}
	for _, ext := range Extensions {
		URL := url.Join(s.baseURL, batchID+ext)
		exists, err := s.fs.Exists(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", URL, err)
		}
		if !exists {
			continue
		}
		ret, err := s.Load(ctx, URL, s.args)
		if err != nil {
			return nil, err
		}
		if ret.ID != batchID {
			return nil, fmt.Errorf("%w: %s declares batch %s", model.ErrInvalidBatch, URL, ret.ID)
		}
		s.cache[batchID] = ret
		return ret, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, batchID, s.baseURL)
}

// Load reads, decodes and validates the definition at URL.
func (s *Service) Load(ctx context.Context, URL string, args map[string]string) (*model.Batch, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch from %s: %w", URL, err)
	}
	ret, err := Decode(URL, data, args)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("loaded batch", "batch", ret.ID, "url", URL, "flows", len(ret.Flows))
	return ret, nil
}

// Decode decodes data by the extension of URL. HCL expressions may refer to
// args as args.<name>; YAML placeholders ${name} are kept for execution time
// resolution.
func Decode(URL string, data []byte, args map[string]string) (*model.Batch, error) {
	var ret *model.Batch
	var err error
	switch ext := strings.ToLower(path.Ext(URL)); ext {
	case ".yaml", ".yml":
		ret, err = DecodeYAML(data)
	case ".hcl":
		ret, err = DecodeHCL(URL, data, args)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, URL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode batch %s: %w", URL, err)
	}
	ret.Source = URL
	if err = ret.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func defaultKind(execution *model.Execution) {
	if execution.Kind != "" {
		return
	}
	if execution.ClassName != "" && execution.Profile == "" {
		execution.Kind = model.KindData
		return
	}
	execution.Kind = model.KindCommand
}
