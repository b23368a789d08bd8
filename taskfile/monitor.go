package taskfile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/tyeapps"
)

// DefaultResync is the cron spec of the periodic manifest re-read that
// backs up file system notifications.
const DefaultResync = "@every 30s"

// Monitor errors
var (
	ErrAlreadyStarted = errors.New("task file monitor already started")
	ErrInvalidResync  = errors.New("invalid resync schedule")
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger
func WithLogger(logger tyeapps.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithResync sets the cron spec of the periodic re-read. An empty spec
// disables it.
func WithResync(spec string) Option {
	return func(m *Monitor) {
		m.resync = spec
	}
}

// Monitor is a tyeapps.TaskMonitor whose task list is the content of a
// manifest file. Listeners fire only when a reload changes the list.
type Monitor struct {
	path   string
	format Format
	resync string
	logger tyeapps.Logger

	mu    sync.RWMutex
	tasks []tyeapps.MonitoredTask

	changed *tyeapps.EventEmitter[struct{}]

	lifecycleMu sync.Mutex
	watcher     *fsnotify.Watcher
	scheduler   *cron.Cron
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

var _ tyeapps.TaskMonitor = (*Monitor)(nil)

// New creates a Monitor for path and performs the initial read.
func New(path string, opts ...Option) (*Monitor, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	m := &Monitor{
		path:   abs,
		format: format,
		resync: DefaultResync,
		logger: tyeapps.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.changed = tyeapps.NewEventEmitter[struct{}]("taskfile", m.logger)

	manifest, err := ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	m.tasks = manifest.Tasks
	return m, nil
}

// Path returns the absolute manifest path.
func (m *Monitor) Path() string {
	return m.path
}

// Tasks returns a snapshot of the tasks last read from the manifest.
func (m *Monitor) Tasks() []tyeapps.MonitoredTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tasks)
}

// TasksChanged registers a listener fired after a reload changed the tasks.
func (m *Monitor) TasksChanged(listener func()) tyeapps.Subscription {
	return m.changed.Subscribe(func(struct{}) { listener() })
}

// Reload re-reads the manifest and reports whether the task list changed.
// On error the previous task list is kept.
func (m *Monitor) Reload() (bool, error) {
	manifest, err := ReadFile(m.path)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	if reflect.DeepEqual(m.tasks, manifest.Tasks) {
		m.mu.Unlock()
		return false, nil
	}
	m.tasks = manifest.Tasks
	m.mu.Unlock()

	m.logger.Info("Task manifest reloaded", "path", m.path, "tasks", len(manifest.Tasks))
	m.changed.Fire(struct{}{})
	return true, nil
}

// Start watches the manifest's directory for writes, creations, renames and
// removals, and schedules the periodic re-read. The monitor stops when ctx
// is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.watcher != nil {
		return ErrAlreadyStarted
	}

	var scheduler *cron.Cron
	if m.resync != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(m.resync, m.reloadAndLog); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidResync, m.resync, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: editors and task runners replace the file by
	// rename, which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(m.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	m.watcher = watcher
	m.scheduler = scheduler
	m.cancel = cancel

	m.wg.Add(1)
	go m.watch(ctx, watcher)
	if scheduler != nil {
		scheduler.Start()
	}

	// Catch changes made between New and Start.
	m.reloadAndLog()

	m.logger.Info("Task file monitor started", "path", m.path, "resync", m.resync)
	return nil
}

// Stop releases the watcher and the scheduler. It is safe to call more than
// once and before Start.
func (m *Monitor) Stop(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.watcher == nil {
		return nil
	}

	m.cancel()
	err := m.watcher.Close()
	if m.scheduler != nil {
		stopped := m.scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.wg.Wait()
	m.watcher = nil
	m.scheduler = nil
	m.logger.Info("Task file monitor stopped", "path", m.path)

	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	return nil
}

// Close stops the monitor and drops all listeners.
func (m *Monitor) Close() error {
	err := m.Stop(context.Background())
	m.changed.Close()
	return err
}

func (m *Monitor) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != m.path {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			m.logger.Debug("Task manifest event", "path", event.Name, "op", event.Op.String())
			m.reloadAndLog()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("File watcher error", "path", m.path, "error", err)
		}
	}
}

func (m *Monitor) reloadAndLog() {
	if _, err := m.Reload(); err != nil {
		m.logger.Error("Failed to reload task manifest", "path", m.path, "error", err)
	}
}
