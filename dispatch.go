package signals

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// SendAndWait submits a signal and blocks until the dispatch completes.
//
// The agent resolves the ordered candidate list for T, runs every
// interceptor in order — for one candidate the synchronous interceptor
// runs before the asynchronous one, sequenced as a unit — and then
// delivers the terminal value to every receiver in the same order. Within
// one dispatch stages never run concurrently, so each interceptor sees
// exactly the value its predecessor left.
//
// The returned value is the terminal value after all interceptor edits.
// If an interceptor stopped the dispatch the zero T and ErrDispatchStopped
// are returned, and no later interceptor or receiver observed the signal.
// A failing or panicking stage aborts the walk and surfaces a *StageError.
//
// A module holding both an interceptor and a receiver for T observes its
// own interceptor's replacement in its receiver: receivers always see the
// single terminal value. Concurrent dispatches, even of the same type, are
// not ordered relative to each other.
func SendAndWait[T any](ctx context.Context, a *Agent, signal T) (T, error) {
	var zero T
	if a == nil {
		return zero, ErrAgentNil
	}
	out, err := a.dispatch(ctx, reflect.TypeFor[T](), signal)
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// Send submits a signal without waiting: the dispatch walk is scheduled on
// a background goroutine and Send returns immediately. Stage failures are
// not surfaced to the caller; they are logged through the agent's sink and
// emitted as an EventTypeDispatchFailed event. An invalid submission — a
// nil agent handle, as held by a detached module — fails fast with
// ErrAgentNil before anything is scheduled.
func Send[T any](a *Agent, signal T) error {
	if a == nil {
		return ErrAgentNil
	}
	sig := reflect.TypeFor[T]()
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		_, err := a.dispatch(context.Background(), sig, signal)
		switch {
		case err == nil:
		case errors.Is(err, ErrDispatchStopped):
			a.logger.Debug("dispatch stopped", "signal", sig.String())
			a.emitEvent(EventTypeDispatchStopped, map[string]any{"signal": sig.String()})
		default:
			a.logger.Error("background dispatch failed", "signal", sig.String(), "error", err)
			a.emitEvent(EventTypeDispatchFailed, map[string]any{
				"signal": sig.String(),
				"error":  err.Error(),
			})
		}
	}()
	return nil
}

// candidate is one snapshot entry: a module that declared at least one
// capability for the dispatched signal type.
type candidate struct {
	name string
	caps *capabilitySet
}

// candidates resolves the ordered candidate list for one dispatch. The
// registry is snapshotted under the read lock; the order policy, if any,
// runs outside the lock so it may consult the agent freely. Modules the
// policy lists that were detached (or never attached) since the snapshot
// are simply absent from the capability map and get skipped.
func (a *Agent) candidates(sig reflect.Type) []candidate {
	a.mu.RLock()
	policy := a.orderFns[sig]
	ordered := make([]Module, 0, len(a.bindings))
	bySet := make(map[Module]*capabilitySet, len(a.bindings))
	names := make(map[Module]string, len(a.bindings))
	for _, b := range a.bindings {
		if set, ok := b.caps[sig]; ok {
			ordered = append(ordered, b.module)
			bySet[b.module] = set
			names[b.module] = b.name
		}
	}
	a.mu.RUnlock()

	if policy != nil {
		ordered = policy(a)
	}

	cands := make([]candidate, 0, len(ordered))
	seen := make(map[Module]bool, len(ordered))
	for _, m := range ordered {
		set, ok := bySet[m]
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		cands = append(cands, candidate{name: names[m], caps: set})
	}
	return cands
}

// dispatch runs the full pipeline walk for one signal value: interceptor
// pass, then receiver pass over the terminal value. Role ordering is
// enforced pipeline-wide: no receiver runs while a later interceptor could
// still veto the signal.
func (a *Agent) dispatch(ctx context.Context, sig reflect.Type, value any) (any, error) {
	cands := a.candidates(sig)

	for _, c := range cands {
		if !c.caps.intercepts() {
			continue
		}
		for _, fn := range []func(context.Context, any) (any, bool, error){c.caps.intercept, c.caps.interceptCtx} {
			if fn == nil {
				continue
			}
			next, stopped, err := runInterceptor(ctx, fn, value)
			if err != nil {
				return nil, &StageError{Module: c.name, Signal: sig, Role: StageInterceptor, Err: err}
			}
			if stopped {
				return nil, ErrDispatchStopped
			}
			value = next
		}
	}

	for _, c := range cands {
		if !c.caps.receives() {
			continue
		}
		for _, fn := range []func(context.Context, any) error{c.caps.receive, c.caps.receiveCtx} {
			if fn == nil {
				continue
			}
			if err := runReceiver(ctx, fn, value); err != nil {
				return nil, &StageError{Module: c.name, Signal: sig, Role: StageReceiver, Err: err}
			}
		}
	}

	return value, nil
}

// runInterceptor invokes one interceptor stage, converting a panic into an
// error so a misbehaving module cannot take down the dispatcher.
func runInterceptor(ctx context.Context, fn func(context.Context, any) (any, bool, error), v any) (out any, stopped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()
	return fn(ctx, v)
}

// runReceiver invokes one receiver stage with the same panic containment.
func runReceiver(ctx context.Context, fn func(context.Context, any) error, v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()
	return fn(ctx, v)
}
