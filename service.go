package phaser

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/viant/afs"
	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/handler/command"
	"github.com/viant/phaser/handler/dataproc"
	"github.com/viant/phaser/handler/dispatch"
	"github.com/viant/phaser/handler/nop"
	"github.com/viant/phaser/internal/idgen"
	"github.com/viant/phaser/job"
	"github.com/viant/phaser/job/basic"
	"github.com/viant/phaser/job/parallel"
	"github.com/viant/phaser/lock"
	lockfs "github.com/viant/phaser/lock/fs"
	lockmemory "github.com/viant/phaser/lock/memory"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
	mevent "github.com/viant/phaser/monitor/event"
	"github.com/viant/phaser/monitor/logging"
	mprogress "github.com/viant/phaser/monitor/progress"
	mtrace "github.com/viant/phaser/monitor/trace"
	"github.com/viant/phaser/runtime/phase"
	"github.com/viant/phaser/runtime/task"
	batchdao "github.com/viant/phaser/service/dao/batch"
	runfs "github.com/viant/phaser/service/dao/run/fs"
	runmemory "github.com/viant/phaser/service/dao/run/memory"
	"github.com/viant/phaser/service/event"
	qfs "github.com/viant/phaser/service/messaging/fs"
	qmemory "github.com/viant/phaser/service/messaging/memory"
	"github.com/viant/phaser/tracing"
)

// Version is reported as the tracing service version.
const Version = "0.1.0"

// Service wires handlers, schedulers, locks and monitors into tasks.
type Service struct {
	config     *Config
	fs         afs.Service
	kinds      map[string]handler.Constructor
	factory    *handler.Factory
	registry   *handler.Registry
	scheduler  job.Scheduler
	locks      lock.Provider
	monitors   []monitor.Provider
	events     *event.Service
	history    task.History
	phases     *phase.Executor
	source     task.Source
	newID      func() string
	tracer     *tracing.Tracer
	ownsTracer bool
	tracingErr error
}

// New creates a service from Config (DefaultConfig when not supplied).
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{kinds: map[string]handler.Constructor{}}
	for _, opt := range options {
		opt(ret)
	}
	if ret.tracingErr != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", ret.tracingErr)
	}
	if ret.config == nil {
		ret.config = DefaultConfig()
	}
	if err := ret.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.newID == nil {
		ret.newID = idgen.New
	}
	ret.factory = handler.NewFactory(map[string]handler.Constructor{
		"command":  command.Constructor,
		"data":     dataproc.Constructor,
		"dispatch": dispatch.Constructor,
		"nop":      nop.Constructor,
	})
	for kind, constructor := range ret.kinds {
		ret.factory.Register(kind, constructor)
	}
	steps := []func(ctx context.Context) error{ret.initRegistry, ret.initScheduler, ret.initLocks, ret.initHistory, ret.initMonitors}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}
	var err error
	ret.phases, err = phase.New(
		phase.WithRegistry(ret.registry),
		phase.WithScheduler(ret.scheduler),
		phase.WithMonitor(monitor.Multi(ret.monitors...)))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) initRegistry(ctx context.Context) error {
	if s.registry != nil {
		return nil
	}
	var options []handler.Option
	data, err := s.factory.New(ctx, withID(s.config.Handlers.Data, "data"))
	if err != nil {
		return err
	}
	options = append(options, handler.WithData(data))
	profiles := make([]string, 0, len(s.config.Handlers.Commands))
	for profile := range s.config.Handlers.Commands {
		profiles = append(profiles, profile)
	}
	sort.Strings(profiles)
	for _, profile := range profiles {
		id := profile
		if profile == handler.Wildcard {
			id = "default"
		}
		h, err := s.factory.New(ctx, withID(s.config.Handlers.Commands[profile], id))
		if err != nil {
			return fmt.Errorf("profile %s: %w", profile, err)
		}
		options = append(options, handler.WithCommand(profile, h))
	}
	s.registry, err = handler.NewRegistry(options...)
	return err
}

// withID returns config with id set when empty.
func withID(config *handler.Config, id string) *handler.Config {
	if config.ID != "" {
		return config
	}
	clone := *config
	clone.ID = id
	return &clone
}

func (s *Service) initScheduler(context.Context) error {
	if s.scheduler != nil {
		return nil
	}
	if s.config.Scheduler.Kind != SchedulerParallel {
		s.scheduler = basic.New()
		return nil
	}
	scheduler, err := parallel.New(s.config.slots())
	if err != nil {
		return err
	}
	s.scheduler = scheduler
	return nil
}

func (s *Service) initLocks(context.Context) error {
	if s.locks != nil {
		return nil
	}
	scope, err := lock.ParseScope(s.config.Lock.Scope)
	if err != nil {
		return err
	}
	switch s.config.Lock.Kind {
	case LockMemory:
		s.locks = lockmemory.New(scope)
	case LockFS:
		s.locks = lockfs.New(scope, s.fs, s.config.Lock.URL)
	default:
		s.locks = lock.Nop()
	}
	return nil
}

func (s *Service) initHistory(context.Context) error {
	if s.history != nil {
		return nil
	}
	switch s.config.History.Kind {
	case HistoryMemory:
		s.history = runmemory.New()
	case HistoryFS:
		history, err := runfs.New(s.config.History.URL, s.fs)
		if err != nil {
			return fmt.Errorf("failed to create run history: %w", err)
		}
		s.history = history
	}
	return nil
}

func (s *Service) initMonitors(ctx context.Context) error {
	config := s.config.Monitor
	var providers []monitor.Provider
	if config.Logging {
		providers = append(providers, logging.New())
	}
	if config.Progress {
		providers = append(providers, mprogress.New(nil))
	}
	if config.Trace && s.tracer == nil {
		tracer, err := tracing.NewFile("phaser", Version, config.TraceFile)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		s.tracer, s.ownsTracer = tracer, true
	}
	if s.tracer != nil {
		providers = append(providers, mtrace.New(s.tracer))
	}
	if s.events == nil && config.Events != "" {
		var options []event.Option
		options = append(options, event.WithFs(s.fs))
		memoryConfig := qmemory.DefaultConfig()
		memoryConfig.NonBlocking = true
		options = append(options, event.WithMemoryQueueConfig(memoryConfig))
		if config.EventsURL != "" {
			queueConfig := qfs.DefaultConfig()
			queueConfig.BaseURL = config.EventsURL
			options = append(options, event.WithFsQueueConfig(queueConfig))
		}
		events, err := event.New(ctx, config.Events, options...)
		if err != nil {
			return fmt.Errorf("failed to create event service: %w", err)
		}
		s.events = events
	}
	if s.events != nil {
		providers = append(providers, mevent.New(s.events.Publisher()))
	}
	s.monitors = append(providers, s.monitors...)
	return nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config { return s.config }

// Registry returns the handler registry.
func (s *Service) Registry() *handler.Registry { return s.registry }

// Events returns the event service or nil when events are disabled.
func (s *Service) Events() *event.Service { return s.events }

// History returns the run history or nil when runs are not recorded.
func (s *Service) History() task.History { return s.history }

// Task returns a task running batches of the configured source with args.
// Script arguments are applied when batches are loaded.
func (s *Service) Task(args map[string]string, definitions map[string]string) (*task.Task, error) {
	parsed, err := task.ParseDefinitions(definitions)
	if err != nil {
		return nil, err
	}
	source := s.source
	if source == nil {
		source = s.loader(args)
	}
	options := []task.Option{
		task.WithSource(source),
		task.WithPhaseRunner(s.phases),
		task.WithLockProvider(s.locks),
		task.WithArguments(args),
		task.WithDefinitions(parsed),
		task.WithIDGenerator(s.newID),
	}
	if s.history != nil {
		options = append(options, task.WithHistory(s.history))
	}
	return task.New(options...)
}

// Validate loads the script at URL and binds every execution to its handler,
// reporting every issue found.
func (s *Service) Validate(ctx context.Context, URL string, args map[string]string) (*model.Batch, error) {
	aBatch, err := s.loader(args).Load(ctx, URL, args)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, aFlow := range aBatch.Flows {
		for _, aPhase := range model.Phases() {
			ectx, err := model.NewContext(aBatch.ID, aFlow.ID, "validate", aPhase, args)
			if err != nil {
				return nil, err
			}
			jobs, err := s.phases.Jobs(ectx, aFlow.PhaseExecutions(aPhase))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if _, err = job.NewPlan(jobs); err != nil {
				errs = append(errs, fmt.Errorf("flow %s phase %s: %w", aFlow.ID, aPhase.Symbol(), err))
			}
		}
	}
	return aBatch, errors.Join(errs...)
}

// Close releases handler resources and flushes spans of a tracer the
// service created.
func (s *Service) Close(ctx context.Context) error {
	err := s.registry.Close(ctx)
	if s.ownsTracer {
		err = errors.Join(err, s.tracer.Shutdown(ctx))
	}
	return err
}

func (s *Service) loader(args map[string]string) *batchdao.Service {
	return batchdao.New(
		batchdao.WithFileSystem(s.fs),
		batchdao.WithBaseURL(s.config.Script.BaseURL),
		batchdao.WithArguments(args))
}
