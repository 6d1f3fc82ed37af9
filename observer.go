// Package signals provides Observer pattern interfaces for watching agent
// lifecycle and dispatch activity. Events use the CloudEvents specification
// for a standardized format and interoperability with external systems.
package signals

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is notified of agent events: module attach/detach, lifecycle
// hooks, teardown, and the outcome of fire-and-forget dispatches. It is
// the fallback channel for failures that have no caller to propagate to.
type Observer interface {
	// OnEvent is called when an event the observer subscribed to occurs.
	// Observers should return quickly; slow work belongs on the observer's
	// own goroutines.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer, used for
	// registration tracking and debugging.
	ObserverID() string
}

// ObserverInfo describes a registered observer for debugging and
// monitoring surfaces.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Event type constants emitted by the agent. Following the CloudEvents
// specification these use reverse domain notation.
const (
	// Module lifecycle events
	EventTypeModuleAttached      = "com.signals.module.attached"
	EventTypeModuleInitialized   = "com.signals.module.initialized"
	EventTypeModuleDetached      = "com.signals.module.detached"
	EventTypeModuleDetachRefused = "com.signals.module.detach_refused"

	// Agent lifecycle events
	EventTypeAgentTeardown = "com.signals.agent.teardown"

	// Dispatch outcome events, emitted for fire-and-forget submissions
	EventTypeDispatchStopped = "com.signals.dispatch.stopped"
	EventTypeDispatchFailed  = "com.signals.dispatch.failed"
)

// FuncObserver adapts a plain function into an Observer. Useful for quick
// observer creation without defining a struct.
type FuncObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFuncObserver creates an observer that handles events with fn.
func NewFuncObserver(id string, fn func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FuncObserver{id: id, handler: fn}
}

// OnEvent implements Observer by calling the handler function.
func (f *FuncObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements Observer by returning the observer ID.
func (f *FuncObserver) ObserverID() string {
	return f.id
}
