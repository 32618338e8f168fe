package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/stepflow/runtime/execution"
)

// Execution is the caller's handle on one run.
type Execution struct {
	runID  string
	engine *Service
}

// RunID returns the run identifier.
func (e *Execution) RunID() string {
	return e.runID
}

// IsAsync reports whether the run currently has background work in flight.
func (e *Execution) IsAsync(ctx context.Context) bool {
	instance, err := e.engine.Instance(ctx, e.runID)
	if err != nil {
		return false
	}
	return len(instance.AsyncStates) > 0
}

// State returns the run's current non-blocking snapshot.
func (e *Execution) State(ctx context.Context) (*RunState, error) {
	return e.engine.CurrentResult(ctx, e.runID)
}

// Wait polls until the run settles: completes, fails or suspends waiting
// for input. A run with background work in flight is still advancing and
// keeps Wait blocked until the completion is applied.
func (e *Execution) Wait(ctx context.Context, timeout time.Duration) (*execution.Instance, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		instance, err := e.engine.Instance(ctx, e.runID)
		if err != nil {
			return nil, err
		}
		switch instance.Status {
		case execution.StatusCompleted, execution.StatusFailed, execution.StatusCancelled:
			return instance, nil
		case execution.StatusSuspended:
			return instance, nil
		}
		if time.Now().After(deadline) {
			return instance, fmt.Errorf("run %v did not settle within %s", e.runID, timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Result waits for the run to settle and returns its final output; a
// suspended run reports an error naming the pending prompt.
func (e *Execution) Result(ctx context.Context, timeout time.Duration) (interface{}, error) {
	instance, err := e.Wait(ctx, timeout)
	if err != nil {
		return nil, err
	}
	switch instance.Status {
	case execution.StatusCompleted:
		return instance.Output, nil
	case execution.StatusFailed:
		if instance.Error != nil {
			return nil, fmt.Errorf("run %v failed at step %v: %v", e.runID, instance.Error.Step, instance.Error.Message)
		}
		return nil, fmt.Errorf("run %v failed", e.runID)
	case execution.StatusSuspended:
		prompt := ""
		if instance.Suspension != nil {
			prompt = instance.Suspension.Prompt
		}
		return nil, fmt.Errorf("run %v is suspended: %v", e.runID, prompt)
	}
	return nil, fmt.Errorf("run %v is %v", e.runID, instance.Status)
}
