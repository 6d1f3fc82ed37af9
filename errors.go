package signals

import (
	"errors"
	"fmt"
	"reflect"
)

// Agent and lifecycle errors
var (
	// ErrAgentNil indicates an operation was attempted against a nil agent
	// handle, typically by a module that has already been detached.
	ErrAgentNil = errors.New("agent is nil")

	// ErrConstruction indicates module construction failed because a
	// constructor parameter could not be resolved by the injection service.
	ErrConstruction = errors.New("module construction failed")

	// ErrInvalidConstructor indicates the value passed to Attach is neither
	// a Module nor a constructor function returning one.
	ErrInvalidConstructor = errors.New("invalid module constructor")

	// ErrModuleAlreadyAttached indicates the module instance is already in
	// the agent's registry.
	ErrModuleAlreadyAttached = errors.New("module already attached")

	// ErrModuleDetached indicates an operation that requires attachment was
	// attempted on a detached module. Detachment is terminal for an
	// instance; construct a fresh one to re-attach the type.
	ErrModuleDetached = errors.New("module is detached")

	// ErrModuleNotFound indicates no attached module matched the request.
	ErrModuleNotFound = errors.New("module not found")

	// ErrRemovalRefused indicates a module's Dispose hook vetoed a detach.
	// The module remains attached; the caller may retry later.
	ErrRemovalRefused = errors.New("module removal refused")

	// ErrDispatchStopped indicates an interceptor terminated the dispatch
	// before the signal reached any receiver.
	ErrDispatchStopped = errors.New("dispatch stopped by interceptor")
)

// Service registry errors
var (
	ErrServiceAlreadyRegistered = errors.New("service already registered")
	ErrServiceNotFound          = errors.New("service not found")
	ErrServiceIncompatible      = errors.New("service cannot be assigned to target")
	ErrTargetNotPointer         = errors.New("target must be a non-nil pointer")
)

// StageRole identifies which capability role a dispatch stage was running.
type StageRole string

const (
	StageInterceptor StageRole = "interceptor"
	StageReceiver    StageRole = "receiver"
)

// StageError reports a failure raised by an interceptor or receiver during
// a dispatch. Blocking submissions surface it to the caller; fire-and-forget
// submissions route it to the agent's logger and observers instead.
type StageError struct {
	Module string
	Signal reflect.Type
	Role   StageRole
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("signal %s: %s stage failed in module %s: %v", e.Signal, e.Role, e.Module, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
