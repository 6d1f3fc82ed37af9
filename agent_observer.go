package signals

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds one registered observer and its filter.
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // empty means all events
	registeredAt time.Time
}

// RegisterObserver adds an observer to receive agent notifications.
// Observers can optionally filter events by type; with no eventTypes the
// observer receives everything. Re-registering an ID replaces its filter.
func (a *Agent) RegisterObserver(observer Observer, eventTypes ...string) error {
	a.observerMu.Lock()
	defer a.observerMu.Unlock()

	filter := make(map[string]bool, len(eventTypes))
	for _, et := range eventTypes {
		filter[et] = true
	}
	a.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   filter,
		registeredAt: time.Now(),
	}

	a.logger.Debug("observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. Idempotent: unknown observers
// are not an error.
func (a *Agent) UnregisterObserver(observer Observer) error {
	a.observerMu.Lock()
	defer a.observerMu.Unlock()

	if _, exists := a.observers[observer.ObserverID()]; exists {
		delete(a.observers, observer.ObserverID())
		a.logger.Debug("observer unregistered", "observerID", observer.ObserverID())
	}
	return nil
}

// NotifyObservers sends a CloudEvent to all registered observers whose
// filter matches. Fan-out is asynchronous so notification never blocks the
// caller; observer errors and panics are contained and logged.
func (a *Agent) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		a.logger.Error("invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	a.observerMu.RLock()
	defer a.observerMu.RUnlock()

	for _, reg := range a.observers {
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}

		reg := reg
		a.inflight.Add(1)
		go func() {
			defer a.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("observer panicked", "observerID", reg.observer.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()

			if err := reg.observer.OnEvent(ctx, event); err != nil {
				a.logger.Error("observer error", "observerID", reg.observer.ObserverID(), "event", event.Type(), "error", err)
			}
		}()
	}

	return nil
}

// Observers returns information about currently registered observers.
func (a *Agent) Observers() []ObserverInfo {
	a.observerMu.RLock()
	defer a.observerMu.RUnlock()

	info := make([]ObserverInfo, 0, len(a.observers))
	for _, reg := range a.observers {
		types := make([]string, 0, len(reg.eventTypes))
		for et := range reg.eventTypes {
			types = append(types, et)
		}
		info = append(info, ObserverInfo{
			ID:           reg.observer.ObserverID(),
			EventTypes:   types,
			RegisteredAt: reg.registeredAt,
		})
	}
	return info
}

// emitEvent builds and fans out one agent-sourced event.
func (a *Agent) emitEvent(eventType string, data map[string]any) {
	event := NewCloudEvent(eventType, "agent", data, nil)
	if err := a.NotifyObservers(context.Background(), event); err != nil {
		a.logger.Error("failed to notify observers", "event", eventType, "error", err)
	}
}
