package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/viant/stepflow/model/types"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/event"
	"github.com/viant/stepflow/tracing"
)

// Execute starts a new run of a registered workflow. The run is created in
// RUNNING status with the trigger data in its context; advancement happens
// on the worker pool, so the returned handle is available immediately.
func (s *Service) Execute(ctx context.Context, workflowID string, trigger interface{}) (ret *Execution, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Execute "+workflowID, "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	g, err := s.graphOf(workflowID)
	if err != nil {
		return nil, err
	}
	runID := workflowID + "/" + uuid.New().String()
	span.WithAttributes(map[string]string{"run.id": runID})

	instance := execution.NewInstance(runID, workflowID, trigger)
	instance.SetCurrentStep(g.EntryStepID)
	if err = s.instanceDAO.Save(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save run %v: %w", runID, err)
	}
	s.publish(ctx, event.TypeStarted, instance, g.EntryStepID)

	if err = s.queue.Publish(ctx, &advance{RunID: runID, StepID: g.EntryStepID, Input: trigger}); err != nil {
		return nil, fmt.Errorf("failed to schedule run %v: %w", runID, err)
	}
	return &Execution{runID: runID, engine: s}, nil
}

// Resume supplies the input a suspended run is waiting for and re-enters
// the loop at the recorded next step. It returns InvalidStateError unless
// the run is SUSPENDED, making a duplicate resume fail fast.
func (s *Service) Resume(ctx context.Context, runID string, input interface{}) (err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Resume "+runID, "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	mux := s.runLock(runID)
	mux.Lock()
	defer mux.Unlock()

	instance, err := s.instanceDAO.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %v: %w", runID, err)
	}
	if status := instance.GetStatus(); status != execution.StatusSuspended {
		return &types.InvalidStateError{RunID: runID, Status: status, Expected: execution.StatusSuspended}
	}
	suspension := instance.Suspension
	if suspension == nil {
		return fmt.Errorf("run %v is suspended without suspension data", runID)
	}

	if suspension.ExpectedInputType != "" {
		if err = s.schema.Validate(suspension.ExpectedInputType, input); err != nil {
			return err
		}
		if rType := s.actions.Types().TypeOf(suspension.ExpectedInputType); rType != nil {
			supplied := fmt.Sprintf("%T", input)
			if input, err = s.typedValue(rType, input); err != nil {
				return &types.TypeMismatchError{
					Expected: suspension.ExpectedInputType,
					Actual:   supplied,
					Cause:    err,
				}
			}
		}
	}

	// The resume input is the suspended step's output: the reply to its
	// prompt.
	instance.Context.Set(suspension.StepID, input)
	instance.ClearSuspension()
	instance.SetStatus(execution.StatusRunning)
	_ = s.suspensionDAO.Delete(ctx, runID)

	if suspension.NextStepID == "" {
		instance.Complete(input)
		s.publish(ctx, event.TypeCompleted, instance, suspension.StepID)
		return s.persist(ctx, instance)
	}
	if err = s.instanceDAO.Save(ctx, instance); err != nil {
		return fmt.Errorf("failed to save run %v: %w", runID, err)
	}
	s.publish(ctx, event.TypeResumed, instance, suspension.NextStepID)
	return s.queue.Publish(ctx, &advance{RunID: runID, StepID: suspension.NextStepID, Input: input})
}

// CancelAsyncOperation withdraws every in-flight background task of a run:
// async states are removed first, so a task that completes later finds no
// state and its result is discarded. The run status is untouched; the run
// remains advancable. Returns false when nothing was in flight.
func (s *Service) CancelAsyncOperation(ctx context.Context, runID string) (bool, error) {
	mux := s.runLock(runID)
	mux.Lock()
	defer mux.Unlock()

	instance, err := s.instanceDAO.Load(ctx, runID)
	if err != nil {
		return false, fmt.Errorf("failed to load run %v: %w", runID, err)
	}
	states := instance.ActiveAsyncStates()
	if len(states) == 0 {
		return false, nil
	}
	for _, state := range states {
		instance.RemoveAsyncState(state.AsyncID)
		_ = s.asyncDAO.Delete(ctx, state.Key())
		s.tracker.CancelTask(state.TaskID)
	}
	if err = s.instanceDAO.Save(ctx, instance); err != nil {
		return false, fmt.Errorf("failed to save run %v: %w", runID, err)
	}
	s.publish(ctx, event.TypeCancelled, instance, instance.CurrentStepID)
	return true, nil
}

// Instance returns a snapshot of a run safe for inspection.
func (s *Service) Instance(ctx context.Context, runID string) (*execution.Instance, error) {
	instance, err := s.instanceDAO.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	return instance.Clone(), nil
}

// RunState is the non-blocking answer to "where is this run now".
type RunState struct {
	RunID           string                  `json:"runId"`
	Status          string                  `json:"status"`
	CurrentStepID   string                  `json:"currentStepId,omitempty"`
	Output          interface{}             `json:"output,omitempty"`
	Error           *execution.ErrorInfo    `json:"error,omitempty"`
	Suspension      *execution.Suspension   `json:"suspension,omitempty"`
	AsyncOperations []*execution.AsyncState `json:"asyncOperations,omitempty"`
}

// CurrentResult reports the run's current status together with whichever
// payload is relevant: the final output, the failure, the suspension prompt
// or the initial data of in-flight async operations.
func (s *Service) CurrentResult(ctx context.Context, runID string) (*RunState, error) {
	instance, err := s.Instance(ctx, runID)
	if err != nil {
		return nil, err
	}
	ret := &RunState{
		RunID:         instance.ID,
		Status:        instance.Status,
		CurrentStepID: instance.CurrentStepID,
		Error:         instance.Error,
		Suspension:    instance.Suspension,
	}
	switch instance.Status {
	case execution.StatusCompleted:
		ret.Output = instance.Output
	case execution.StatusRunning:
		for _, state := range instance.AsyncStates {
			ret.AsyncOperations = append(ret.AsyncOperations, state)
		}
		if len(ret.AsyncOperations) == 1 {
			ret.Output = ret.AsyncOperations[0].InitialData
		}
	}
	return ret, nil
}
