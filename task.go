package tyeapps

// Well-known task and option names.
const (
	// RunTaskType is the task type discriminator of "tye run" tasks.
	// Matching is exact and case-sensitive.
	RunTaskType = "tye-run"

	// OptionApplicationName is the run task option carrying the application name.
	OptionApplicationName = "applicationName"

	// OptionDashboard is the run task option carrying the dashboard URI.
	OptionDashboard = "dashboard"

	// DefaultDashboard is the endpoint of the fallback application reported
	// when no run task is being monitored.
	DefaultDashboard = "http://localhost:8000"
)

// TaskOptions is the loosely-typed configuration bag of a monitored task.
// Its shape depends on the task type.
type TaskOptions map[string]any

// MonitoredTask is one entry of a TaskMonitor's task list.
type MonitoredTask struct {
	// ID optionally identifies the task within its monitor.
	ID string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`

	// Type discriminates what kind of task this is.
	Type string `json:"type" yaml:"type" toml:"type"`

	// Options is the task's configuration. May be nil.
	Options TaskOptions `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
}

// TaskMonitor owns the authoritative list of running background tasks.
//
// Implementations must allow Tasks to be called from inside a TasksChanged
// listener.
type TaskMonitor interface {
	// Tasks returns a snapshot of the currently monitored tasks, in order.
	Tasks() []MonitoredTask

	// TasksChanged registers a listener fired after every mutation of the
	// task list. The returned Subscription revokes the registration.
	TasksChanged(listener func()) Subscription
}
