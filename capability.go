package signals

import (
	"context"
	"reflect"
)

// capabilityRole distinguishes the four capability variants a module can
// declare per signal type.
type capabilityRole int

const (
	roleIntercept capabilityRole = iota
	roleInterceptCtx
	roleReceive
	roleReceiveCtx
)

// Capability is one declared (signal type, role, function) triple. Modules
// return their capabilities from Capabilities(); the agent indexes them by
// signal type once, at attach time, so dispatch never probes interfaces.
//
// Capabilities are created with the generic constructors Intercepts,
// InterceptsCtx, Receives and ReceivesCtx, typically over module methods:
//
//	func (m *AuditModule) Capabilities() []signals.Capability {
//		return []signals.Capability{
//			signals.Intercepts(m.redact),
//			signals.Receives(m.record),
//		}
//	}
type Capability struct {
	signal reflect.Type
	role   capabilityRole

	// Exactly one of the two runners is set, matching the role. Both are
	// type-erased; the constructors guarantee the assertion in the closure
	// matches the indexed signal type.
	intercept func(ctx context.Context, v any) (any, bool, error)
	receive   func(ctx context.Context, v any) error
}

// SignalType returns the signal type this capability is declared for.
func (c Capability) SignalType() reflect.Type {
	return c.signal
}

// Intercepts declares a synchronous interceptor for signal type T.
// The function transforms or halts the signal and cannot fail or suspend.
func Intercepts[T any](fn func(T) Intercept[T]) Capability {
	return Capability{
		signal: reflect.TypeFor[T](),
		role:   roleIntercept,
		intercept: func(_ context.Context, v any) (any, bool, error) {
			res := fn(v.(T))
			return res.Value(), res.Stopped(), nil
		},
	}
}

// InterceptsCtx declares an asynchronous interceptor for signal type T.
// The function may block on the dispatch context and may fail; a failure
// surfaces as a StageError.
func InterceptsCtx[T any](fn func(context.Context, T) (Intercept[T], error)) Capability {
	return Capability{
		signal: reflect.TypeFor[T](),
		role:   roleInterceptCtx,
		intercept: func(ctx context.Context, v any) (any, bool, error) {
			res, err := fn(ctx, v.(T))
			if err != nil {
				var zero T
				return zero, false, err
			}
			return res.Value(), res.Stopped(), nil
		},
	}
}

// Receives declares a synchronous receiver for signal type T. Receivers
// observe the terminal value of a dispatch and cannot influence its flow.
func Receives[T any](fn func(T)) Capability {
	return Capability{
		signal: reflect.TypeFor[T](),
		role:   roleReceive,
		receive: func(_ context.Context, v any) error {
			fn(v.(T))
			return nil
		},
	}
}

// ReceivesCtx declares an asynchronous receiver for signal type T. The
// function may block on the dispatch context; its error does not alter the
// dispatch outcome for other modules but is reported as a StageError.
func ReceivesCtx[T any](fn func(context.Context, T) error) Capability {
	return Capability{
		signal: reflect.TypeFor[T](),
		role:   roleReceiveCtx,
		receive: func(ctx context.Context, v any) error {
			return fn(ctx, v.(T))
		},
	}
}

// capabilitySet groups one module's capabilities for a single signal type.
// At most one capability per role is kept; declaring the same role twice
// for the same type keeps the last declaration.
type capabilitySet struct {
	intercept    func(ctx context.Context, v any) (any, bool, error)
	interceptCtx func(ctx context.Context, v any) (any, bool, error)
	receive      func(ctx context.Context, v any) error
	receiveCtx   func(ctx context.Context, v any) error
}

func (s *capabilitySet) add(c Capability) {
	switch c.role {
	case roleIntercept:
		s.intercept = c.intercept
	case roleInterceptCtx:
		s.interceptCtx = c.intercept
	case roleReceive:
		s.receive = c.receive
	case roleReceiveCtx:
		s.receiveCtx = c.receive
	}
}

func (s *capabilitySet) intercepts() bool {
	return s.intercept != nil || s.interceptCtx != nil
}

func (s *capabilitySet) receives() bool {
	return s.receive != nil || s.receiveCtx != nil
}
