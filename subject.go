package tyeapps

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // set of event types this observer is interested in
	registeredAt time.Time
}

// ObservableSubject is a Subject that fans CloudEvents out to registered
// Observers. Delivery happens in one goroutine per observer unless the
// subject was created with WithSynchronousDelivery or the context passed to
// NotifyObservers carries WithSynchronousNotification.
type ObservableSubject struct {
	logger      Logger
	synchronous bool

	observers     map[string]*observerRegistration // key is observer ID
	observerMutex sync.RWMutex
	wg            sync.WaitGroup
}

// SubjectOption configures an ObservableSubject.
type SubjectOption func(*ObservableSubject)

// WithSynchronousDelivery makes every notification synchronous.
func WithSynchronousDelivery() SubjectOption {
	return func(s *ObservableSubject) {
		s.synchronous = true
	}
}

// NewObservableSubject creates an empty subject.
func NewObservableSubject(logger Logger, opts ...SubjectOption) *ObservableSubject {
	s := &ObservableSubject{
		logger:    loggerOrNop(logger),
		observers: make(map[string]*observerRegistration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterObserver adds an observer to receive notifications.
// Registering the same ID twice replaces the earlier registration.
func (s *ObservableSubject) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}

	s.observerMutex.Lock()
	defer s.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	s.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	s.logger.Info("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer from receiving notifications.
func (s *ObservableSubject) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}

	s.observerMutex.Lock()
	defer s.observerMutex.Unlock()

	if _, exists := s.observers[observer.ObserverID()]; exists {
		delete(s.observers, observer.ObserverID())
		s.logger.Info("Observer unregistered", "observerID", observer.ObserverID())
	}

	return nil
}

// NotifyObservers validates event and delivers it to every observer
// interested in its type. Observer errors and panics are logged, never
// returned.
func (s *ObservableSubject) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}

	if err := ValidateCloudEvent(event); err != nil {
		s.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	s.observerMutex.RLock()
	targets := make([]*observerRegistration, 0, len(s.observers))
	for _, registration := range s.observers {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}
		targets = append(targets, registration)
	}
	s.observerMutex.RUnlock()

	synchronous := s.synchronous || IsSynchronousNotification(ctx)
	for _, registration := range targets {
		if synchronous {
			s.deliver(ctx, registration, event)
			continue
		}
		registration := registration
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.deliver(ctx, registration, event)
		}()
	}

	return nil
}

func (s *ObservableSubject) deliver(ctx context.Context, registration *observerRegistration, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Observer panicked", "observerID", registration.observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()

	if err := registration.observer.OnEvent(ctx, event); err != nil {
		s.logger.Error("Observer error", "observerID", registration.observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

// Wait blocks until all asynchronous deliveries started so far have finished.
func (s *ObservableSubject) Wait() {
	s.wg.Wait()
}

// GetObservers returns information about currently registered observers.
func (s *ObservableSubject) GetObservers() []ObserverInfo {
	s.observerMutex.RLock()
	defer s.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(s.observers))
	for _, registration := range s.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}

		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}

	return info
}
