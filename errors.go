package fiber

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrShuttingDown is carried by the result promise of a fiber that was
	// spawned after System.Shutdown and therefore never ran.
	ErrShuttingDown = errors.New("fiber: system is shutting down")

	// ErrDeadLetter is the pre-failed result of a dead-letter reference.
	ErrDeadLetter = errors.New("fiber: dead letter")

	// ErrFiberCrashed marks a result promise failed because the fiber body
	// panicked. The concrete failure is a [PanicError] wrapping this.
	ErrFiberCrashed = errors.New("fiber: fiber crashed")
)

// PanicError wraps a value recovered from a panicking fiber body.
// It fails the fiber's result promise and is carried by the crashed event
// emitted to the fiber's parent.
type PanicError struct {
	// Value is the value passed to panic.
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("fiber: fiber crashed: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type,
// enabling use with [errors.Is] and [errors.As] through the cause chain.
// Every PanicError also matches [ErrFiberCrashed].
func (e PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrFiberCrashed, err}
	}
	return []error{ErrFiberCrashed}
}
