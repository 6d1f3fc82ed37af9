package signals

import (
	"fmt"
	"reflect"
)

// Injector is the injection service consumed during Attach. Given a
// requested constructor-parameter type and the agent the module is being
// attached to, it returns an instance or fails with a resolution error.
// The default implementation resolves from the agent itself; replace it
// with WithInjector to bridge an external container.
type Injector interface {
	Resolve(requested reflect.Type, a *Agent) (any, error)
}

// registryInjector is the default injection service. It resolves, in
// order: the agent, the agent's logger, already-attached modules (by
// concrete type or implemented interface) and named services registered
// with RegisterService (by assignability or implemented interface).
type registryInjector struct{}

func (registryInjector) Resolve(requested reflect.Type, a *Agent) (any, error) {
	if requested == reflect.TypeFor[*Agent]() {
		return a, nil
	}
	if requested == reflect.TypeFor[Logger]() {
		return a.logger, nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, b := range a.bindings {
		mt := reflect.TypeOf(b.module)
		if mt.AssignableTo(requested) {
			return b.module, nil
		}
		if requested.Kind() == reflect.Interface && mt.Implements(requested) {
			return b.module, nil
		}
	}

	for name, svc := range a.services {
		if svc == nil {
			continue
		}
		st := reflect.TypeOf(svc)
		if st.AssignableTo(requested) {
			return svc, nil
		}
		if requested.Kind() == reflect.Interface && st.Implements(requested) {
			a.logger.Debug("resolved constructor parameter by interface match", "interface", requested.String(), "service", name)
			return svc, nil
		}
	}

	return nil, fmt.Errorf("%w: no attached module or registered service satisfies %s", ErrServiceNotFound, requested)
}

// RegisterService adds a named service to the agent, making it available
// to module constructors through the injection service and to GetService.
func (a *Agent) RegisterService(name string, service any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, name)
	}
	a.services[name] = service
	a.logger.Debug("registered service", "name", name, "type", reflect.TypeOf(service))
	return nil
}

// GetService retrieves a registered service by name, assigning it to the
// target, which must be a non-nil pointer to a compatible type (either the
// service's concrete type or an interface it implements).
func (a *Agent) GetService(name string, target any) error {
	a.mu.RLock()
	service, exists := a.services[name]
	a.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}

	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Ptr || tv.IsNil() {
		return ErrTargetNotPointer
	}

	st := reflect.TypeOf(service)
	tt := tv.Elem().Type()
	switch {
	case tt.Kind() == reflect.Interface && st.Implements(tt):
		tv.Elem().Set(reflect.ValueOf(service))
	case st.AssignableTo(tt):
		tv.Elem().Set(reflect.ValueOf(service))
	default:
		return fmt.Errorf("%w: service %q of type %s cannot be assigned to %s", ErrServiceIncompatible, name, st, tt)
	}
	return nil
}
