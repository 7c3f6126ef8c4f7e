package engine

import (
	"errors"
	"fmt"
)

// NoEntryPointError indicates that no entry-point service was designated or recovered.
type NoEntryPointError struct{}

func (e *NoEntryPointError) Error() string {
	return "no entry point service found"
}

// IsNoEntryPointError reports whether err indicates a missing entry point.
func IsNoEntryPointError(err error) bool {
	var target *NoEntryPointError
	return errors.As(err, &target)
}

// NoServiceNamedError indicates a lookup of a service that was never registered.
type NoServiceNamedError struct {
	// Name is the requested service name.
	Name string
}

func (e *NoServiceNamedError) Error() string {
	if e == nil {
		return "no service named"
	}
	return fmt.Sprintf("no service named %q", e.Name)
}

// IsNoServiceNamedError reports whether err indicates an unknown service name.
func IsNoServiceNamedError(err error) bool {
	var target *NoServiceNamedError
	return errors.As(err, &target)
}

// DuplicateServiceError indicates a registration reusing an existing service name.
type DuplicateServiceError struct {
	// Name is the conflicting service name.
	Name string
}

func (e *DuplicateServiceError) Error() string {
	if e == nil {
		return "duplicate service"
	}
	return fmt.Sprintf("service %q is already registered", e.Name)
}

// IsDuplicateServiceError reports whether err indicates a duplicate registration.
func IsDuplicateServiceError(err error) bool {
	var target *DuplicateServiceError
	return errors.As(err, &target)
}

// StateError indicates an operation invoked out of lifecycle order.
type StateError struct {
	// Op is the rejected operation.
	Op string
	// State is the engine state at the time of the call.
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}

// IsStateError reports whether err indicates an out-of-order lifecycle call.
func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}
