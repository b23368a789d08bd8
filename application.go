package tyeapps

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Application summarizes one running tye application, or the fallback when
// none is running. It is an immutable value: the With* methods return
// modified copies, and two Applications built from equal input compare equal
// with ==.
type Application struct {
	dashboard    string
	hasDashboard bool
	name         string
	hasName      bool
}

// NewApplication returns an Application with neither name nor dashboard.
func NewApplication() Application {
	return Application{}
}

// FallbackApplication returns the application reported when no run task is
// monitored: the given dashboard and no name.
func FallbackApplication(dashboard string) Application {
	return NewApplication().WithDashboard(dashboard)
}

// ApplicationFromTask projects a run task onto an Application. The
// applicationName and dashboard options are copied through verbatim; a
// missing option, or one that is neither a string nor a fmt.Stringer, leaves
// the corresponding field absent.
func ApplicationFromTask(task MonitoredTask) Application {
	app := NewApplication()
	if dashboard, ok := optionString(task.Options, OptionDashboard); ok {
		app = app.WithDashboard(dashboard)
	}
	if name, ok := optionString(task.Options, OptionApplicationName); ok {
		app = app.WithName(name)
	}
	return app
}

func optionString(options TaskOptions, key string) (string, bool) {
	raw, ok := options[key]
	if !ok || raw == nil {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// Dashboard returns the dashboard URI and whether one is present.
func (a Application) Dashboard() (string, bool) {
	return a.dashboard, a.hasDashboard
}

// Name returns the application name and whether one is present.
func (a Application) Name() (string, bool) {
	return a.name, a.hasName
}

// WithDashboard returns a copy of a with the dashboard set.
func (a Application) WithDashboard(dashboard string) Application {
	a.dashboard = dashboard
	a.hasDashboard = true
	return a
}

// WithName returns a copy of a with the name set.
func (a Application) WithName(name string) Application {
	a.name = name
	a.hasName = true
	return a
}

// DashboardURL parses the dashboard. The stored value itself is never
// validated, so this is where a malformed URI surfaces.
func (a Application) DashboardURL() (*url.URL, error) {
	if !a.hasDashboard {
		return nil, ErrNoDashboard
	}
	u, err := url.Parse(a.dashboard)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard %q: %w", a.dashboard, err)
	}
	return u, nil
}

// String implements fmt.Stringer.
func (a Application) String() string {
	var parts []string
	if a.hasName {
		parts = append(parts, "name="+a.name)
	}
	if a.hasDashboard {
		parts = append(parts, "dashboard="+a.dashboard)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// applicationJSON is the wire shape; absent fields are omitted.
type applicationJSON struct {
	Dashboard *string `json:"dashboard,omitempty"`
	Name      *string `json:"name,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (a Application) MarshalJSON() ([]byte, error) {
	var out applicationJSON
	if a.hasDashboard {
		out.Dashboard = &a.dashboard
	}
	if a.hasName {
		out.Name = &a.name
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Application) UnmarshalJSON(data []byte) error {
	var in applicationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to decode application: %w", err)
	}
	*a = NewApplication()
	if in.Dashboard != nil {
		*a = a.WithDashboard(*in.Dashboard)
	}
	if in.Name != nil {
		*a = a.WithName(*in.Name)
	}
	return nil
}
