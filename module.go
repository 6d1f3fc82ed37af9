// Package signals provides a typed, intra-process publish/dispatch mechanism
// for composable module units hosted by a coordinating Agent.
//
// Modules communicate only through typed signal values routed by the agent;
// no module holds a direct reference to another. For each signal type a
// module may declare interceptor capabilities, which can replace the value
// or terminate the dispatch, and receiver capabilities, which observe the
// terminal value. Within one dispatch all interceptors run before any
// receiver, in a deterministic order that defaults to attachment order and
// can be overridden per signal type.
//
// Basic usage:
//
//	agent := signals.New(logger)
//	agent.Attach(NewAuditModule)
//	agent.Attach(NewPingModule)
//	if err := agent.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//	final, err := signals.SendAndWait(ctx, agent, Ping{Seq: 1})
package signals

import (
	"reflect"
	"strings"
)

// Module represents a unit of behavior attached to an Agent. Concrete
// modules must embed ModuleBase, which carries the attachment state and
// satisfies the unexported portion of this interface.
//
// A module's capabilities are inspected exactly once, when it is attached;
// changing the returned slice afterwards has no effect on dispatch.
type Module interface {
	// Capabilities returns the interceptor and receiver declarations for
	// every signal type this module participates in. An empty slice is
	// valid: such a module is attached, initialized and detached like any
	// other but never appears in a dispatch.
	Capabilities() []Capability

	base() *ModuleBase
}

// Initializer is an optional interface for modules that need a lifecycle
// hook. Agent.Initialize runs the hook exactly once per module, in
// attachment order, after the module's agent back-reference is set.
type Initializer interface {
	Init() error
}

// Disposable is an optional interface for modules that need cleanup when
// detached. Returning nil allows the removal; returning an error wrapping
// ErrRemovalRefused vetoes it and keeps the module attached. During agent
// teardown refusals and errors are ignored so teardown always completes.
type Disposable interface {
	Dispose() error
}

// ModuleName derives a display name from the module's concrete type name,
// stripping a conventional trailing "Module" suffix: a *PingModule yields
// "Ping", a *Ping yields "Ping" unchanged.
func ModuleName(m Module) string {
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if trimmed := strings.TrimSuffix(name, "Module"); trimmed != "" {
		return trimmed
	}
	return name
}
