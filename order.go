package signals

import "reflect"

// OrderPolicy produces the ordered candidate list for one dispatch. It is
// evaluated fresh on every dispatch of the signal type it is installed
// for, so it may consult the agent's current registry (typically starting
// from Modules()). The returned order replaces registry order entirely;
// capability filtering still happens afterwards, so listing modules with
// no capability for the type is harmless and modules left out are skipped.
type OrderPolicy func(a *Agent) []Module

// SetSignalOrder installs a custom processing order for signal type T,
// overriding the default attachment order. Passing nil restores the
// default. Ordering for other signal types is unaffected.
func SetSignalOrder[T any](a *Agent, policy OrderPolicy) {
	sig := reflect.TypeFor[T]()
	a.mu.Lock()
	defer a.mu.Unlock()
	if policy == nil {
		delete(a.orderFns, sig)
		return
	}
	a.orderFns[sig] = policy
}
