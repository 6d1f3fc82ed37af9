package signals

// Intercept is the two-variant outcome of one interceptor invocation.
// Continue carries the value later stages will observe; Stop terminates the
// dispatch so that no later interceptor or receiver sees the signal at all.
//
// The zero value is Continue with a zero T; use the constructors.
type Intercept[T any] struct {
	value   T
	stopped bool
}

// Continue produces an intercept result that lets the dispatch proceed with
// v as the current signal value. Returning the incoming value unchanged is
// how an interceptor passes a signal through untouched.
func Continue[T any](v T) Intercept[T] {
	return Intercept[T]{value: v}
}

// Stop produces an intercept result that terminates the dispatch.
func Stop[T any]() Intercept[T] {
	return Intercept[T]{stopped: true}
}

// Stopped reports whether this result terminates the dispatch.
func (i Intercept[T]) Stopped() bool {
	return i.stopped
}

// Value returns the carried signal value. Meaningless when Stopped is true.
func (i Intercept[T]) Value() T {
	return i.value
}
