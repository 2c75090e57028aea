package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/phaser/internal/clock"
	"github.com/viant/phaser/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	Retries   int          `json:"retries"`

	name      string
	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack removes the message from the processing directory, keeping a copy in
// the completed directory when configured.
func (m *Message[T]) Ack() error {
	if err := m.complete(MessageStateCompleted, nil); err != nil {
		return err
	}
	return m.queue.complete(context.Background(), m)
}

// Nack returns the message to the pending directory or, once MaxRetries is
// exceeded, moves it to the failed directory.
func (m *Message[T]) Nack(err error) error {
	if e := m.complete(MessageStateFailed, err); e != nil {
		return e
	}
	return m.queue.fail(context.Background(), m)
}

func (m *Message[T]) complete(state MessageState, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = state
	if err != nil {
		m.Error = err.Error()
	}
	return nil
}

// Config holds configuration for the filesystem queue
type Config struct {
	BaseURL       string
	MaxRetries    int
	KeepCompleted bool
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    "/tmp/phaser/queue",
		MaxRetries: 3,
	}
}

// Queue implements a filesystem backed messaging.Queue; Consume polls and
// returns a nil message when nothing is pending.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	sequence      int64
	mu            sync.Mutex
}

// NewQueue creates a new filesystem queue, creating its directories.
func NewQueue[T any](ctx context.Context, fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    path.Join(config.BaseURL, string(MessageStatePending)),
		processingDir: path.Join(config.BaseURL, string(MessageStateProcessing)),
		completedDir:  path.Join(config.BaseURL, string(MessageStateCompleted)),
		failedDir:     path.Join(config.BaseURL, string(MessageStateFailed)),
	}
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new message to the pending directory.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: clock.Now(),
	}
	message.name = q.filename(message)
	return q.write(ctx, path.Join(q.pendingDir, message.name), message)
}

// Consume moves the oldest pending message to the processing directory.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	var names []string
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			names = append(names, obj.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)
	name := names[0]
	source := path.Join(q.pendingDir, name)
	data, err := q.fs.DownloadWithURL(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", source, err)
	}
	message := &Message[T]{}
	if err := json.Unmarshal(data, message); err != nil {
		_ = q.fs.Move(ctx, source, path.Join(q.failedDir, name))
		return nil, fmt.Errorf("failed to decode message %s: %w", source, err)
	}
	message.name = name
	message.queue = q
	message.State = MessageStateProcessing
	if err := q.write(ctx, path.Join(q.processingDir, name), message); err != nil {
		return nil, err
	}
	if err := q.fs.Delete(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to delete pending message %s: %w", source, err)
	}
	return message, nil
}

func (q *Queue[T]) complete(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.config.KeepCompleted {
		if err := q.write(ctx, path.Join(q.completedDir, m.name), m); err != nil {
			return err
		}
	}
	return q.fs.Delete(ctx, path.Join(q.processingDir, m.name))
}

func (q *Queue[T]) fail(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	m.Retries++
	target := path.Join(q.failedDir, m.name)
	if m.Retries <= q.config.MaxRetries {
		m.State = MessageStatePending
		target = path.Join(q.pendingDir, m.name)
	}
	if err := q.write(ctx, target, m); err != nil {
		return err
	}
	return q.fs.Delete(ctx, path.Join(q.processingDir, m.name))
}

func (q *Queue[T]) filename(m *Message[T]) string {
	seq := atomic.AddInt64(&q.sequence, 1)
	return fmt.Sprintf("%020d-%06d-%s.json", m.CreatedAt.UnixNano(), seq%1000000, m.ID)
}

func (q *Queue[T]) write(ctx context.Context, URL string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode message %s: %w", m.ID, err)
	}
	if err := q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write message %s: %w", URL, err)
	}
	return nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
