package tyeapps

import (
	"context"
	"slices"
	"sync"
)

// ApplicationProvider exposes the running tye applications.
type ApplicationProvider interface {
	// Applications returns the current application list. It never blocks
	// on upstream work and is never empty.
	Applications() []Application

	// ApplicationsChanged registers handler to receive every recomputed list.
	ApplicationsChanged(handler func([]Application)) Subscription
}

// ProviderOption configures a TaskBasedApplicationProvider.
type ProviderOption func(*TaskBasedApplicationProvider)

// WithLogger sets the logger
func WithLogger(logger Logger) ProviderOption {
	return func(p *TaskBasedApplicationProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRunTaskType overrides the task type treated as a run task.
func WithRunTaskType(taskType string) ProviderOption {
	return func(p *TaskBasedApplicationProvider) {
		if taskType != "" {
			p.runTaskType = taskType
		}
	}
}

// WithDefaultDashboard overrides the dashboard of the fallback application.
func WithDefaultDashboard(dashboard string) ProviderOption {
	return func(p *TaskBasedApplicationProvider) {
		if dashboard != "" {
			p.defaultDashboard = dashboard
		}
	}
}

// WithProviderConfig applies a loaded ProviderConfig.
func WithProviderConfig(cfg *ProviderConfig) ProviderOption {
	return func(p *TaskBasedApplicationProvider) {
		if cfg == nil {
			return
		}
		WithRunTaskType(cfg.RunTaskType)(p)
		WithDefaultDashboard(cfg.DefaultDashboard)(p)
	}
}

// WithEventSubject additionally publishes every change as an
// EventTypeApplicationsChanged CloudEvent on subject.
func WithEventSubject(subject Subject) ProviderOption {
	return func(p *TaskBasedApplicationProvider) {
		p.subject = subject
	}
}

// WithEventSource sets the CloudEvent source attribute.
func WithEventSource(source string) ProviderOption {
	return func(p *TaskBasedApplicationProvider) {
		if source != "" {
			p.eventSource = source
		}
	}
}

// TaskBasedApplicationProvider derives applications from the run tasks of a
// TaskMonitor. The list is recomputed once at construction and once for
// every TasksChanged notification; each recomputation after construction is
// announced to ApplicationsChanged subscribers exactly once.
//
// Notifications arriving while a recomputation is being dispatched, from
// another goroutine or re-entrantly from a subscriber, are queued and
// processed in order by the dispatching goroutine.
type TaskBasedApplicationProvider struct {
	monitor          TaskMonitor
	logger           Logger
	runTaskType      string
	defaultDashboard string
	subject          Subject
	eventSource      string

	changed  *EventEmitter[[]Application]
	listener Subscription

	mu           sync.RWMutex
	applications []Application
	pending      int
	dispatching  bool
	closed       bool
}

var _ ApplicationProvider = (*TaskBasedApplicationProvider)(nil)

// NewTaskBasedApplicationProvider subscribes to monitor and computes the
// initial application list. Panics raised by the monitor propagate.
func NewTaskBasedApplicationProvider(monitor TaskMonitor, opts ...ProviderOption) (*TaskBasedApplicationProvider, error) {
	if monitor == nil {
		return nil, ErrTaskMonitorNil
	}

	p := &TaskBasedApplicationProvider{
		monitor:          monitor,
		logger:           noopLogger{},
		runTaskType:      RunTaskType,
		defaultDashboard: DefaultDashboard,
		eventSource:      "tyeapps/provider",
	}
	for _, opt := range opts {
		opt(p)
	}
	p.changed = NewEventEmitter[[]Application]("applicationsChanged", p.logger)

	// Hold the dispatch slot so notifications fired while subscribing queue
	// up behind the initial computation.
	p.dispatching = true
	p.listener = monitor.TasksChanged(p.handleTasksChanged)
	p.recompute(false)
	p.drain()

	p.logger.Info("Application provider started", "runTaskType", p.runTaskType, "applications", len(p.Applications()))
	return p, nil
}

// Applications returns a copy of the cached application list.
func (p *TaskBasedApplicationProvider) Applications() []Application {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.applications)
}

// ApplicationsChanged registers handler. All handlers of one recomputation
// receive the same slice and must not modify it.
func (p *TaskBasedApplicationProvider) ApplicationsChanged(handler func([]Application)) Subscription {
	return p.changed.Subscribe(handler)
}

// Subscribers returns the number of ApplicationsChanged handlers.
func (p *TaskBasedApplicationProvider) Subscribers() int {
	return p.changed.Len()
}

// Close cancels the monitor subscription and drops all subscribers.
// Calling Close again is a no-op.
func (p *TaskBasedApplicationProvider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.pending = 0
	listener := p.listener
	p.mu.Unlock()

	if listener != nil {
		listener.Unsubscribe()
	}
	p.changed.Close()
	p.publish(EventTypeProviderClosed, nil)

	p.logger.Info("Application provider closed")
	return nil
}

// handleTasksChanged is the TaskMonitor listener.
func (p *TaskBasedApplicationProvider) handleTasksChanged() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.pending++
	if p.dispatching {
		p.mu.Unlock()
		return
	}
	p.dispatching = true
	p.mu.Unlock()

	p.drain()
}

// drain must be called by the goroutine owning the dispatch slot. It
// releases the slot when no notification is left, or when a recomputation
// panics.
func (p *TaskBasedApplicationProvider) drain() {
	drained := false
	defer func() {
		if !drained {
			p.mu.Lock()
			p.dispatching = false
			p.pending = 0
			p.mu.Unlock()
		}
	}()

	for p.takePending() {
		p.recompute(true)
	}
	drained = true
}

func (p *TaskBasedApplicationProvider) takePending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.pending == 0 {
		p.pending = 0
		p.dispatching = false
		return false
	}
	p.pending--
	return true
}

// recompute replaces the cached list from a fresh monitor snapshot and, when
// notify is set, announces it.
func (p *TaskBasedApplicationProvider) recompute(notify bool) {
	apps, fallback := p.project(p.monitor.Tasks())

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.applications = apps
	p.mu.Unlock()

	p.logger.Debug("Applications recomputed", "count", len(apps), "fallback", fallback, "notify", notify)
	if !notify {
		return
	}

	p.changed.Fire(apps)
	p.publish(EventTypeApplicationsChanged, ApplicationsChangedData{Applications: apps, Fallback: fallback})
}

// project filters the run tasks and maps them to applications, falling back
// to the default dashboard when there are none.
func (p *TaskBasedApplicationProvider) project(tasks []MonitoredTask) ([]Application, bool) {
	apps := make([]Application, 0, len(tasks))
	for _, task := range tasks {
		if task.Type != p.runTaskType {
			continue
		}
		app := ApplicationFromTask(task)
		if _, ok := app.Name(); !ok {
			p.logger.Debug("Run task has no application name", "taskID", task.ID)
		}
		apps = append(apps, app)
	}

	if len(apps) == 0 {
		return []Application{FallbackApplication(p.defaultDashboard)}, true
	}
	return apps, false
}

func (p *TaskBasedApplicationProvider) publish(eventType string, data any) {
	if p.subject == nil {
		return
	}

	event := NewCloudEvent(eventType, p.eventSource, data, nil)
	if err := p.subject.NotifyObservers(context.Background(), event); err != nil {
		p.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}
