package signals

import "sync"

// ModuleBase carries a module's attachment state: the non-owning
// back-reference to its agent. Embed it in every concrete module:
//
//	type PingModule struct {
//		signals.ModuleBase
//	}
//
// The back-reference is set by Agent.Attach and cleared exactly once, by
// Agent.Detach (or teardown). It is non-nil if and only if the module is
// attached; a detached module is inert and every accessor that needs the
// agent fails fast.
type ModuleBase struct {
	mu       sync.RWMutex
	agent    *Agent
	detached bool // set on first detach; re-attachment of the instance is not allowed
}

// Agent returns the owning agent, or nil when the module is detached.
// Modules use this handle to send signals:
//
//	signals.Send(m.Agent(), Pong{})
//
// Send and SendAndWait reject a nil agent with ErrAgentNil, so a detached
// module's submissions fail fast rather than dispatch against a stale
// registry.
func (b *ModuleBase) Agent() *Agent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.agent
}

// IsAttached reports whether the module is currently attached to an agent.
func (b *ModuleBase) IsAttached() bool {
	return b.Agent() != nil
}

// Logger returns the agent's logging sink. It fails with ErrModuleDetached
// when the module is not attached.
func (b *ModuleBase) Logger() (Logger, error) {
	a := b.Agent()
	if a == nil {
		return nil, ErrModuleDetached
	}
	return a.Logger(), nil
}

func (b *ModuleBase) base() *ModuleBase {
	return b
}

// attach sets the back-reference. Called by the agent with its registry
// lock held; rejects instances that are attached or were detached before.
func (b *ModuleBase) attach(a *Agent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.agent != nil {
		return ErrModuleAlreadyAttached
	}
	if b.detached {
		return ErrModuleDetached
	}
	b.agent = a
	return nil
}

// detach clears the back-reference, entering the terminal state.
func (b *ModuleBase) detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.agent = nil
	b.detached = true
}
