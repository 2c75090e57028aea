package phaser

import (
	"github.com/viant/afs"
	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/job"
	"github.com/viant/phaser/lock"
	"github.com/viant/phaser/monitor"
	"github.com/viant/phaser/runtime/task"
	"github.com/viant/phaser/service/event"
	"github.com/viant/phaser/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig sets the service configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithFileSystem sets the file system used for scripts, locks and queues.
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithHandlerKind registers an additional handler kind.
func WithHandlerKind(kind string, constructor handler.Constructor) Option {
	return func(s *Service) {
		s.kinds[kind] = constructor
	}
}

// WithRegistry replaces the registry built from Config.Handlers.
func WithRegistry(registry *handler.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithJobScheduler replaces the job scheduler built from Config.Scheduler.
func WithJobScheduler(scheduler job.Scheduler) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}

// WithLockProvider replaces the lock provider built from Config.Lock.
func WithLockProvider(provider lock.Provider) Option {
	return func(s *Service) {
		s.locks = provider
	}
}

// WithMonitor adds monitor providers to the ones enabled by Config.Monitor.
func WithMonitor(providers ...monitor.Provider) Option {
	return func(s *Service) {
		s.monitors = append(s.monitors, providers...)
	}
}

// WithEventService sets the event service used by the event monitor.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithHistory records flow runs in history regardless of the history config.
func WithHistory(history task.History) Option {
	return func(s *Service) {
		s.history = history
	}
}

// WithSource replaces the script loader as the batch source of tasks.
func WithSource(source task.Source) Option {
	return func(s *Service) {
		s.source = source
	}
}

// WithIDGenerator sets the flow execution id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithTracer records phase spans on tracer; the caller shuts it down.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithTracingExporter records phase spans through exporter.
func WithTracingExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracer, s.tracingErr = tracing.New("phaser", Version, exporter)
		s.ownsTracer = s.tracingErr == nil
	}
}
