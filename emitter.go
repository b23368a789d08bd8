package tyeapps

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscription is a revocable registration returned by Subscribe-style
// methods. Unsubscribe is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to the Subscription interface.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() {
	f()
}

// handlerRegistration holds information about a registered handler
type handlerRegistration[T any] struct {
	id           string
	handler      func(T)
	registeredAt time.Time
}

// EventEmitter is a typed observer registry. Handlers are invoked
// synchronously on the goroutine calling Fire, in registration order.
type EventEmitter[T any] struct {
	name   string
	logger Logger

	mu       sync.RWMutex
	handlers []*handlerRegistration[T]
	closed   bool
}

// NewEventEmitter creates an emitter. The name only shows up in log output.
func NewEventEmitter[T any](name string, logger Logger) *EventEmitter[T] {
	return &EventEmitter[T]{
		name:   name,
		logger: loggerOrNop(logger),
	}
}

// Subscribe registers handler. Subscribing to a closed emitter returns an
// inert Subscription and the handler is never called.
func (e *EventEmitter[T]) Subscribe(handler func(T)) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || handler == nil {
		return SubscriptionFunc(func() {})
	}

	reg := &handlerRegistration[T]{
		id:           uuid.NewString(),
		handler:      handler,
		registeredAt: time.Now(),
	}
	e.handlers = append(e.handlers, reg)
	e.logger.Debug("Handler subscribed", "emitter", e.name, "subscriptionID", reg.id)

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { e.remove(reg.id) })
	})
}

func (e *EventEmitter[T]) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, reg := range e.handlers {
		if reg.id == id {
			// copy-on-write so a Fire in progress keeps its own snapshot
			handlers := make([]*handlerRegistration[T], 0, len(e.handlers)-1)
			handlers = append(handlers, e.handlers[:i]...)
			handlers = append(handlers, e.handlers[i+1:]...)
			e.handlers = handlers
			e.logger.Debug("Handler unsubscribed", "emitter", e.name, "subscriptionID", id)
			return
		}
	}
}

// Fire invokes every registered handler with value and returns how many
// handlers were called. Handlers may subscribe, unsubscribe or close the
// emitter while being notified.
func (e *EventEmitter[T]) Fire(value T) int {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return 0
	}
	handlers := e.handlers
	e.mu.RUnlock()

	called := 0
	for _, reg := range handlers {
		if !e.isActive(reg.id) {
			continue
		}
		e.invoke(reg, value)
		called++
	}
	return called
}

// isActive reports whether the registration is still subscribed and the
// emitter is still open.
func (e *EventEmitter[T]) isActive(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return false
	}
	for _, reg := range e.handlers {
		if reg.id == id {
			return true
		}
	}
	return false
}

func (e *EventEmitter[T]) invoke(reg *handlerRegistration[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Handler panicked", "emitter", e.name, "subscriptionID", reg.id, "panic", r)
		}
	}()
	reg.handler(value)
}

// Len returns the number of registered handlers.
func (e *EventEmitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

// Close drops all handlers. Subsequent Fire calls are no-ops. Close is
// idempotent.
func (e *EventEmitter[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.handlers = nil
	e.logger.Debug("Emitter closed", "emitter", e.name)
}

// Closed reports whether Close has been called.
func (e *EventEmitter[T]) Closed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}
