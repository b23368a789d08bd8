package tyeapps

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationFromTask(t *testing.T) {
	dashboardURL, err := url.Parse("http://localhost:9100")
	require.NoError(t, err)

	tests := []struct {
		name     string
		task     MonitoredTask
		expected Application
	}{
		{
			name: "name and dashboard",
			task: MonitoredTask{Type: RunTaskType, Options: TaskOptions{
				OptionApplicationName: "frontend",
				OptionDashboard:       "http://localhost:9000",
			}},
			expected: NewApplication().WithName("frontend").WithDashboard("http://localhost:9000"),
		},
		{
			name:     "name only",
			task:     MonitoredTask{Type: RunTaskType, Options: TaskOptions{OptionApplicationName: "a"}},
			expected: NewApplication().WithName("a"),
		},
		{
			name:     "nil options",
			task:     MonitoredTask{Type: RunTaskType},
			expected: NewApplication(),
		},
		{
			name:     "malformed dashboard passes through",
			task:     MonitoredTask{Type: RunTaskType, Options: TaskOptions{OptionDashboard: "::not a uri"}},
			expected: NewApplication().WithDashboard("::not a uri"),
		},
		{
			name:     "empty strings are present values",
			task:     MonitoredTask{Type: RunTaskType, Options: TaskOptions{OptionApplicationName: "", OptionDashboard: ""}},
			expected: NewApplication().WithName("").WithDashboard(""),
		},
		{
			name:     "stringer dashboard",
			task:     MonitoredTask{Type: RunTaskType, Options: TaskOptions{OptionDashboard: dashboardURL}},
			expected: NewApplication().WithDashboard("http://localhost:9100"),
		},
		{
			name:     "non-string values are absent",
			task:     MonitoredTask{Type: RunTaskType, Options: TaskOptions{OptionApplicationName: 42, OptionDashboard: nil}},
			expected: NewApplication(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplicationFromTask(tt.task))
		})
	}
}

func TestApplication_Accessors(t *testing.T) {
	app := NewApplication()
	_, ok := app.Name()
	assert.False(t, ok)
	_, ok = app.Dashboard()
	assert.False(t, ok)

	named := app.WithName("api")
	_, ok = app.Name()
	assert.False(t, ok, "WithName must not modify the receiver")

	name, ok := named.Name()
	assert.True(t, ok)
	assert.Equal(t, "api", name)
}

func TestApplication_Equality(t *testing.T) {
	task := MonitoredTask{Type: RunTaskType, Options: TaskOptions{OptionApplicationName: "a", OptionDashboard: "http://x"}}
	assert.True(t, ApplicationFromTask(task) == ApplicationFromTask(task))
	assert.False(t, NewApplication().WithName("") == NewApplication())
}

func TestApplication_DashboardURL(t *testing.T) {
	_, err := NewApplication().DashboardURL()
	assert.ErrorIs(t, err, ErrNoDashboard)

	u, err := FallbackApplication(DefaultDashboard).DashboardURL()
	require.NoError(t, err)
	assert.Equal(t, "localhost:8000", u.Host)

	_, err = NewApplication().WithDashboard("http://[::1").DashboardURL()
	assert.Error(t, err)
}

func TestApplication_JSON(t *testing.T) {
	apps := []Application{
		FallbackApplication(DefaultDashboard),
		NewApplication().WithName("b").WithDashboard("http://x"),
		NewApplication().WithName("a"),
	}

	data, err := json.Marshal(apps)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"dashboard":"http://localhost:8000"},{"name":"b","dashboard":"http://x"},{"name":"a"}]`, string(data))

	var decoded []Application
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, apps, decoded)
}

func TestApplication_String(t *testing.T) {
	assert.Equal(t, "{name=a dashboard=http://x}", NewApplication().WithName("a").WithDashboard("http://x").String())
	assert.Equal(t, "{}", NewApplication().String())
}
