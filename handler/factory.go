package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config declares a handler instance; kind selects the constructor and the
// remaining keys are kind specific options.
type Config struct {
	ID      string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Kind    string                 `json:"kind" yaml:"kind"`
	Options map[string]interface{} `json:"-" yaml:",inline"`
}

// Decode copies options into a kind specific configuration struct.
func (c *Config) Decode(target interface{}) error {
	if len(c.Options) == 0 {
		return nil
	}
	data, err := yaml.Marshal(c.Options)
	if err != nil {
		return fmt.Errorf("handler %s: encode options: %w", c.ID, err)
	}
	if err = yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("handler %s: decode %s options: %w", c.ID, c.Kind, err)
	}
	return nil
}

// Constructor builds a handler from its configuration; the factory is passed
// so that composite handlers can build their delegates.
type Constructor func(ctx context.Context, factory *Factory, config *Config) (Handler, error)

// Factory maps handler kinds to constructors.
type Factory struct {
	constructors map[string]Constructor
	mux          sync.RWMutex
}

// NewFactory creates a factory with the supplied kinds.
func NewFactory(constructors map[string]Constructor) *Factory {
	ret := &Factory{constructors: map[string]Constructor{}}
	for kind, constructor := range constructors {
		ret.constructors[kind] = constructor
	}
	return ret
}

// Register adds or replaces a kind.
func (f *Factory) Register(kind string, constructor Constructor) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.constructors[kind] = constructor
}

// Kinds returns registered kinds sorted.
func (f *Factory) Kinds() []string {
	f.mux.RLock()
	defer f.mux.RUnlock()
	ret := make([]string, 0, len(f.constructors))
	for kind := range f.constructors {
		ret = append(ret, kind)
	}
	sort.Strings(ret)
	return ret
}

// New builds a handler; an empty id defaults to the kind.
func (f *Factory) New(ctx context.Context, config *Config) (Handler, error) {
	if config == nil {
		return nil, fmt.Errorf("handler: config was nil")
	}
	f.mux.RLock()
	constructor, ok := f.constructors[config.Kind]
	f.mux.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, config.Kind)
	}
	if config.ID == "" {
		clone := *config
		clone.ID = config.Kind
		config = &clone
	}
	ret, err := constructor(ctx, f, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler %s: %w", config.ID, err)
	}
	return ret, nil
}
