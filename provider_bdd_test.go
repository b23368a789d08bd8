package tyeapps

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/cucumber/godog"
)

// ProviderBDDTestContext holds the state of one provider scenario.
type ProviderBDDTestContext struct {
	monitor      *MemoryTaskMonitor
	provider     *TaskBasedApplicationProvider
	subscription Subscription

	mu            sync.Mutex
	notifications [][]Application
	lastError     error
}

func (ctx *ProviderBDDTestContext) resetContext() {
	if ctx.provider != nil {
		_ = ctx.provider.Close()
	}
	ctx.monitor = nil
	ctx.provider = nil
	ctx.subscription = nil
	ctx.notifications = nil
	ctx.lastError = nil
}

func (ctx *ProviderBDDTestContext) anEmptyTaskMonitor() error {
	ctx.resetContext()
	ctx.monitor = NewMemoryTaskMonitor(nil)
	return nil
}

func (ctx *ProviderBDDTestContext) aRunTaskWithDashboard(name, dashboard string) error {
	ctx.monitor.Add(runTask(name, dashboard))
	return nil
}

func (ctx *ProviderBDDTestContext) aRunTaskWithoutDashboard(name string) error {
	ctx.monitor.Add(runTask(name))
	return nil
}

func (ctx *ProviderBDDTestContext) aTaskOfType(taskType string) error {
	ctx.monitor.Add(MonitoredTask{Type: taskType, Options: TaskOptions{}})
	return nil
}

func (ctx *ProviderBDDTestContext) theProviderIsCreated() error {
	ctx.provider, ctx.lastError = NewTaskBasedApplicationProvider(ctx.monitor)
	return ctx.lastError
}

func (ctx *ProviderBDDTestContext) aSubscriberIsListening() error {
	if ctx.provider == nil {
		return errors.New("provider not created")
	}
	ctx.subscription = ctx.provider.ApplicationsChanged(func(apps []Application) {
		ctx.mu.Lock()
		defer ctx.mu.Unlock()
		ctx.notifications = append(ctx.notifications, apps)
	})
	return nil
}

func (ctx *ProviderBDDTestContext) theSubscriberUnsubscribes() error {
	ctx.subscription.Unsubscribe()
	return nil
}

func (ctx *ProviderBDDTestContext) aRunTaskIsStarted(name, dashboard string) error {
	ctx.monitor.Add(runTask(name, dashboard))
	return nil
}

func (ctx *ProviderBDDTestContext) allTasksAreStopped() error {
	ctx.monitor.Replace(nil)
	return nil
}

func (ctx *ProviderBDDTestContext) theProviderIsClosedTwice() error {
	if err := ctx.provider.Close(); err != nil {
		return err
	}
	return ctx.provider.Close()
}

func (ctx *ProviderBDDTestContext) theProviderShouldList(count int) error {
	if got := len(ctx.provider.Applications()); got != count {
		return fmt.Errorf("expected %d applications, got %d", count, got)
	}
	return nil
}

func (ctx *ProviderBDDTestContext) application(index int) (Application, error) {
	apps := ctx.provider.Applications()
	if index < 1 || index > len(apps) {
		return Application{}, fmt.Errorf("application %d out of range (have %d)", index, len(apps))
	}
	return apps[index-1], nil
}

func (ctx *ProviderBDDTestContext) applicationShouldHaveDashboard(index int, dashboard string) error {
	app, err := ctx.application(index)
	if err != nil {
		return err
	}
	if got, ok := app.Dashboard(); !ok || got != dashboard {
		return fmt.Errorf("expected dashboard %q, got %v", dashboard, app)
	}
	return nil
}

func (ctx *ProviderBDDTestContext) applicationShouldHaveNoDashboard(index int) error {
	app, err := ctx.application(index)
	if err != nil {
		return err
	}
	if _, ok := app.Dashboard(); ok {
		return fmt.Errorf("expected no dashboard, got %v", app)
	}
	return nil
}

func (ctx *ProviderBDDTestContext) applicationShouldHaveName(index int, name string) error {
	app, err := ctx.application(index)
	if err != nil {
		return err
	}
	if got, ok := app.Name(); !ok || got != name {
		return fmt.Errorf("expected name %q, got %v", name, app)
	}
	return nil
}

func (ctx *ProviderBDDTestContext) applicationShouldHaveNoName(index int) error {
	app, err := ctx.application(index)
	if err != nil {
		return err
	}
	if _, ok := app.Name(); ok {
		return fmt.Errorf("expected no name, got %v", app)
	}
	return nil
}

func (ctx *ProviderBDDTestContext) theSubscriberShouldHaveReceived(count int) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if got := len(ctx.notifications); got != count {
		return fmt.Errorf("expected %d notifications, got %d", count, got)
	}
	return nil
}

func (ctx *ProviderBDDTestContext) theLastNotificationShouldList(count int) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if len(ctx.notifications) == 0 {
		return errors.New("no notification received")
	}
	if got := len(ctx.notifications[len(ctx.notifications)-1]); got != count {
		return fmt.Errorf("expected %d applications in the last notification, got %d", count, got)
	}
	return nil
}

func (ctx *ProviderBDDTestContext) theTaskMonitorShouldHaveNoListeners() error {
	if n := ctx.monitor.Listeners(); n != 0 {
		return fmt.Errorf("expected no monitor listeners, got %d", n)
	}
	return nil
}

// TestApplicationProviderBDD runs the BDD tests for the application provider
func TestApplicationProviderBDD(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(s *godog.ScenarioContext) {
			ctx := &ProviderBDDTestContext{}

			s.Given(`^an empty task monitor$`, ctx.anEmptyTaskMonitor)
			s.Given(`^a run task for application "([^"]*)" with dashboard "([^"]*)"$`, ctx.aRunTaskWithDashboard)
			s.Given(`^a run task for application "([^"]*)" without dashboard$`, ctx.aRunTaskWithoutDashboard)
			s.Given(`^a task of type "([^"]*)"$`, ctx.aTaskOfType)
			s.Step(`^the provider is created$`, ctx.theProviderIsCreated)
			s.Given(`^a subscriber is listening for changes$`, ctx.aSubscriberIsListening)

			s.When(`^a run task for application "([^"]*)" with dashboard "([^"]*)" is started$`, ctx.aRunTaskIsStarted)
			s.When(`^all tasks are stopped$`, ctx.allTasksAreStopped)
			s.When(`^the subscriber unsubscribes$`, ctx.theSubscriberUnsubscribes)
			s.When(`^the provider is closed twice$`, ctx.theProviderIsClosedTwice)

			s.Then(`^the provider should list (\d+) applications?$`, ctx.theProviderShouldList)
			s.Then(`^application (\d+) should have dashboard "([^"]*)"$`, ctx.applicationShouldHaveDashboard)
			s.Then(`^application (\d+) should have no dashboard$`, ctx.applicationShouldHaveNoDashboard)
			s.Then(`^application (\d+) should have name "([^"]*)"$`, ctx.applicationShouldHaveName)
			s.Then(`^application (\d+) should have no name$`, ctx.applicationShouldHaveNoName)
			s.Then(`^the subscriber should have received (\d+) notifications?$`, ctx.theSubscriberShouldHaveReceived)
			s.Then(`^the last notification should list (\d+) applications?$`, ctx.theLastNotificationShouldList)
			s.Then(`^the task monitor should have no listeners$`, ctx.theTaskMonitorShouldHaveNoListeners)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/application_provider.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
