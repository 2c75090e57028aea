package event

import (
	"github.com/viant/afs"
	"github.com/viant/phaser/service/messaging/fs"
	"github.com/viant/phaser/service/messaging/memory"
)

type Option func(s *Service)

// WithFsQueueConfig sets the file system queue configuration
func WithFsQueueConfig(config fs.Config) Option {
	return func(s *Service) {
		s.fsConfig = &config
	}
}

// WithMemoryQueueConfig sets the memory queue configuration
func WithMemoryQueueConfig(config memory.Config) Option {
	return func(s *Service) {
		s.memConfig = &config
	}
}

// WithFs sets the file system service used by the fs vendor
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}
