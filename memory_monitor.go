package tyeapps

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryTaskMonitor is an in-memory TaskMonitor. Task runners call Add when
// a task starts and Remove when it ends; listeners are notified
// synchronously after each mutation.
type MemoryTaskMonitor struct {
	mu      sync.RWMutex
	tasks   []MonitoredTask
	changed *EventEmitter[struct{}]
	logger  Logger
}

// NewMemoryTaskMonitor creates a monitor seeded with tasks.
func NewMemoryTaskMonitor(logger Logger, tasks ...MonitoredTask) *MemoryTaskMonitor {
	logger = loggerOrNop(logger)
	return &MemoryTaskMonitor{
		tasks:   slices.Clone(tasks),
		changed: NewEventEmitter[struct{}]("tasksChanged", logger),
		logger:  logger,
	}
}

// Tasks returns a snapshot of the monitored tasks.
func (m *MemoryTaskMonitor) Tasks() []MonitoredTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tasks)
}

// TasksChanged registers a listener fired after every mutation.
func (m *MemoryTaskMonitor) TasksChanged(listener func()) Subscription {
	return m.changed.Subscribe(func(struct{}) { listener() })
}

// Add appends task and returns its ID, generating one when task.ID is empty.
func (m *MemoryTaskMonitor) Add(task MonitoredTask) string {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()

	m.logger.Debug("Task added", "taskID", task.ID, "type", task.Type)
	m.changed.Fire(struct{}{})
	return task.ID
}

// Remove deletes the task with the given ID.
func (m *MemoryTaskMonitor) Remove(id string) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.tasks, func(t MonitoredTask) bool { return t.ID == id })
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	m.tasks = slices.Delete(slices.Clone(m.tasks), idx, idx+1)
	m.mu.Unlock()

	m.logger.Debug("Task removed", "taskID", id)
	m.changed.Fire(struct{}{})
	return nil
}

// Replace swaps the whole task list.
func (m *MemoryTaskMonitor) Replace(tasks []MonitoredTask) {
	m.mu.Lock()
	m.tasks = slices.Clone(tasks)
	m.mu.Unlock()

	m.logger.Debug("Tasks replaced", "count", len(tasks))
	m.changed.Fire(struct{}{})
}

// Listeners returns the number of registered change listeners.
func (m *MemoryTaskMonitor) Listeners() int {
	return m.changed.Len()
}
