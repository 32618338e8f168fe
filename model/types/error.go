package types

import (
	"fmt"
	"strings"
	"time"
)

// GraphValidationError aggregates every violation detected while building a
// workflow graph. It is fatal to registration.
type GraphValidationError struct {
	Workflow   string
	Violations []string
}

func (e *GraphValidationError) Error() string {
	return fmt.Sprintf("invalid workflow %q: %s", e.Workflow, strings.Join(e.Violations, "; "))
}

// TypeMismatchError signals that a supplied value does not match the declared
// input type of a step or suspension. The caller can recover by supplying a
// value of the expected type.
type TypeMismatchError struct {
	Expected string
	Actual   string
	Cause    error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("type mismatch: expected %v, got %v", e.Expected, e.Actual)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error { return e.Cause }

// InvalidStateError signals a resume or cancel call against an instance in
// the wrong status.
type InvalidStateError struct {
	RunID    string
	Status   string
	Expected string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("run %v is %v, expected %v", e.RunID, e.Status, e.Expected)
}

// StepTimeoutError signals that a step body exceeded its allotted time. The
// engine treats it as a Fail.
type StepTimeoutError struct {
	StepID  string
	Timeout time.Duration
}

func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %v timed out after %s", e.StepID, e.Timeout)
}

// StepExecutionError wraps an uncaught error or panic raised inside a step
// body; it never propagates past the engine boundary as a crash.
type StepExecutionError struct {
	StepID string
	Cause  error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %v execution failed: %v", e.StepID, e.Cause)
}

func (e *StepExecutionError) Unwrap() error { return e.Cause }
