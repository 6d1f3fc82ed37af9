package signals

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Agent is the container that owns an ordered collection of attached
// modules and mediates all signal dispatch between them. Attachment order
// is significant: it is the default dispatch order for every signal type.
//
// Attach, Detach and dispatch may be interleaved from different goroutines.
// Dispatch always walks a stable snapshot of the registry, so a module
// detached mid-flight still finishes the dispatches that already captured
// it but is never resolved by a new one.
type Agent struct {
	mu       sync.RWMutex
	bindings []*binding
	orderFns map[reflect.Type]OrderPolicy
	services map[string]any

	injector Injector
	logger   Logger

	observerMu sync.RWMutex
	observers  map[string]*observerRegistration

	// inflight tracks fire-and-forget dispatches and observer
	// notifications so Quiesce can wait for them.
	inflight sync.WaitGroup
}

// binding is one attached module plus the capability index built for it at
// attach time. Dispatch never probes the module again after attach.
type binding struct {
	module      Module
	name        string
	caps        map[reflect.Type]*capabilitySet
	initialized bool
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithInjector replaces the injection service used to resolve constructor
// parameters during Attach.
func WithInjector(inj Injector) Option {
	return func(a *Agent) {
		a.injector = inj
	}
}

// New creates an agent with no modules attached. The logger must not be
// nil; it is the sink for all framework logging and for failures of
// fire-and-forget dispatches.
func New(logger Logger, opts ...Option) *Agent {
	a := &Agent{
		orderFns:  make(map[reflect.Type]OrderPolicy),
		services:  make(map[string]any),
		observers: make(map[string]*observerRegistration),
		logger:    logger,
	}
	a.injector = registryInjector{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the agent's logging sink.
func (a *Agent) Logger() Logger {
	return a.logger
}

// Attach constructs and registers a module. The argument is either a ready
// Module instance or a constructor function whose parameters are resolved
// through the injection service — the agent itself, the agent's Logger,
// any already-attached module (by concrete type or implemented interface)
// and services registered with RegisterService are all resolvable. The
// constructor returns the module, optionally with an error:
//
//	agent.Attach(func(a *signals.Agent, store *StoreModule) *AuditModule {
//		return &AuditModule{store: store}
//	})
//
// The module is appended to the registry in call order and its capability
// declarations are indexed. Construction failures are reported wrapping
// ErrConstruction; attaching an instance twice fails with
// ErrModuleAlreadyAttached, and a previously detached instance with
// ErrModuleDetached.
func (a *Agent) Attach(ctor any) (Module, error) {
	m, err := a.construct(ctor)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if err := m.base().attach(a); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	b := &binding{
		module: m,
		name:   ModuleName(m),
		caps:   make(map[reflect.Type]*capabilitySet),
	}
	for _, c := range m.Capabilities() {
		set := b.caps[c.signal]
		if set == nil {
			set = &capabilitySet{}
			b.caps[c.signal] = set
		}
		set.add(c)
	}
	a.bindings = append(a.bindings, b)
	position := len(a.bindings) - 1
	a.mu.Unlock()

	a.logger.Debug("module attached", "module", b.name, "position", position, "signalTypes", len(b.caps))
	a.emitEvent(EventTypeModuleAttached, map[string]any{
		"module":   b.name,
		"position": position,
	})
	return m, nil
}

// construct turns the Attach argument into a Module instance.
func (a *Agent) construct(ctor any) (Module, error) {
	if m, ok := ctor.(Module); ok {
		return m, nil
	}

	fn := reflect.ValueOf(ctor)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T is neither a Module nor a constructor func", ErrInvalidConstructor, ctor)
	}
	ft := fn.Type()
	moduleType := reflect.TypeFor[Module]()
	if ft.NumOut() < 1 || ft.NumOut() > 2 || !ft.Out(0).Implements(moduleType) {
		return nil, fmt.Errorf("%w: constructor %s must return (Module) or (Module, error)", ErrInvalidConstructor, ft)
	}
	if ft.NumOut() == 2 && ft.Out(1) != reflect.TypeFor[error]() {
		return nil, fmt.Errorf("%w: constructor %s second return value must be error", ErrInvalidConstructor, ft)
	}

	args := make([]reflect.Value, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		dep, err := a.injector.Resolve(ft.In(i), a)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %d (%s) of %s: %w", ErrConstruction, i, ft.In(i), ft, err)
		}
		args[i] = reflect.ValueOf(dep)
	}

	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("%w: constructor %s: %w", ErrConstruction, ft, out[1].Interface().(error))
	}
	m, ok := out[0].Interface().(Module)
	if !ok || out[0].IsNil() {
		return nil, fmt.Errorf("%w: constructor %s returned no module", ErrConstruction, ft)
	}
	return m, nil
}

// Initialize runs the Init hook of every attached module that has not been
// initialized yet, in registry order. Call it once all modules intended to
// exist at startup are attached. Calling it again is allowed and only
// covers modules attached since the previous call; hooks never re-run.
// The first hook failure aborts initialization and is returned.
func (a *Agent) Initialize() error {
	a.mu.Lock()
	pending := make([]*binding, 0, len(a.bindings))
	for _, b := range a.bindings {
		if !b.initialized {
			b.initialized = true
			pending = append(pending, b)
		}
	}
	a.mu.Unlock()

	for _, b := range pending {
		init, ok := b.module.(Initializer)
		if !ok {
			a.logger.Debug("module has no Init hook, skipping", "module", b.name)
			continue
		}
		if err := init.Init(); err != nil {
			return fmt.Errorf("failed to initialize module %s: %w", b.name, err)
		}
		a.logger.Info("module initialized", "module", b.name)
		a.emitEvent(EventTypeModuleInitialized, map[string]any{"module": b.name})
	}
	return nil
}

// Detach removes a module from the agent. If the module implements
// Disposable its hook runs first; an error wrapping ErrRemovalRefused (or
// any other disposal failure) leaves the module attached and is returned,
// so the caller may retry later. On success the module's back-reference is
// cleared — the terminal state for that instance — and it no longer
// resolves for new dispatches. Dispatches whose snapshot already captured
// the module still complete against it.
func (a *Agent) Detach(m Module) error {
	return a.detach(m, false)
}

// DetachType detaches the first attached module of concrete type M.
func DetachType[M Module](a *Agent) error {
	a.mu.RLock()
	var target Module
	for _, b := range a.bindings {
		if _, ok := b.module.(M); ok {
			target = b.module
			break
		}
	}
	a.mu.RUnlock()

	if target == nil {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, reflect.TypeFor[M]())
	}
	return a.Detach(target)
}

func (a *Agent) detach(m Module, teardown bool) error {
	a.mu.RLock()
	var b *binding
	for _, cand := range a.bindings {
		if cand.module == m {
			b = cand
			break
		}
	}
	a.mu.RUnlock()
	if b == nil {
		return ErrModuleNotFound
	}

	// Dispose runs outside the registry lock so cleanup logic may still
	// send signals or consult the agent.
	if d, ok := m.(Disposable); ok {
		if err := d.Dispose(); err != nil {
			if teardown {
				a.logger.Warn("ignoring disposal failure during teardown", "module", b.name, "error", err)
			} else {
				if errors.Is(err, ErrRemovalRefused) {
					a.emitEvent(EventTypeModuleDetachRefused, map[string]any{
						"module": b.name,
						"reason": err.Error(),
					})
					return err
				}
				return fmt.Errorf("failed to dispose module %s: %w", b.name, err)
			}
		}
	}

	a.mu.Lock()
	for i, cand := range a.bindings {
		if cand == b {
			a.bindings = append(a.bindings[:i], a.bindings[i+1:]...)
			break
		}
	}
	a.mu.Unlock()

	m.base().detach()
	a.logger.Info("module detached", "module", b.name)
	a.emitEvent(EventTypeModuleDetached, map[string]any{"module": b.name})
	return nil
}

// Teardown detaches every module in reverse attachment order. Disposal
// refusals and errors are ignored (logged only) so teardown always
// completes and cannot be blocked by a single misbehaving module.
func (a *Agent) Teardown() {
	a.mu.Lock()
	modules := make([]Module, len(a.bindings))
	for i, b := range a.bindings {
		modules[i] = b.module
	}
	a.mu.Unlock()

	for i := len(modules) - 1; i >= 0; i-- {
		if err := a.detach(modules[i], true); err != nil {
			a.logger.Error("teardown detach failed", "module", ModuleName(modules[i]), "error", err)
		}
	}
	a.emitEvent(EventTypeAgentTeardown, nil)
}

// Modules returns the attached modules in registry order. The slice is a
// copy; order policies typically start from it.
func (a *Agent) Modules() []Module {
	a.mu.RLock()
	defer a.mu.RUnlock()
	mods := make([]Module, len(a.bindings))
	for i, b := range a.bindings {
		mods[i] = b.module
	}
	return mods
}

// Quiesce blocks until every fire-and-forget dispatch and observer
// notification accepted so far has finished. Mainly a shutdown and test
// aid; it adds no cancellation semantics.
func (a *Agent) Quiesce() {
	a.inflight.Wait()
}
