package engine

import (
	"context"
	"fmt"

	"github.com/viant/stepflow/internal/clock"
	"github.com/viant/stepflow/model/graph"
	"github.com/viant/stepflow/model/types"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/event"
)

// processAdvance applies one advance message under the run lock: either a
// background task completion, or the state-machine loop entered at the
// message's step.
func (s *Service) processAdvance(ctx context.Context, msg *advance) error {
	mux := s.runLock(msg.RunID)
	mux.Lock()
	defer mux.Unlock()

	instance, err := s.instanceDAO.Load(ctx, msg.RunID)
	if err != nil {
		return fmt.Errorf("failed to load run %v: %w", msg.RunID, err)
	}
	status := instance.GetStatus()
	if execution.IsTerminal(status) {
		// The run already settled; drop the stale advance.
		s.pruneRunLock(msg.RunID)
		return nil
	}
	if status == execution.StatusSuspended && msg.Completion == nil {
		// A parked run advances only through Resume, which republishes
		// after flipping the status back to running; drop the replay.
		return nil
	}

	g, err := s.graphOf(instance.WorkflowID)
	if err != nil {
		return err
	}

	stepID, input := msg.StepID, msg.Input
	if msg.Completion != nil {
		result, ok := s.applyCompletion(ctx, instance, msg)
		if !ok {
			return nil
		}
		node := g.Node(msg.StepID)
		if node == nil {
			instance.Fail(msg.StepID, fmt.Errorf("step %v not found in workflow %v", msg.StepID, instance.WorkflowID))
			s.publish(ctx, event.TypeFailed, instance, msg.StepID)
			return s.persist(ctx, instance)
		}
		stepID, input, err = s.apply(ctx, g, instance, node, result)
		if err != nil {
			return err
		}
	}

	for stepID != "" {
		node := g.Node(stepID)
		if node == nil {
			instance.Fail(stepID, fmt.Errorf("step %v not found in workflow %v", stepID, instance.WorkflowID))
			s.publish(ctx, event.TypeFailed, instance, stepID)
			break
		}
		instance.SetCurrentStep(stepID)
		result := s.invoke(ctx, instance, node, input)
		stepID, input, err = s.apply(ctx, g, instance, node, result)
		if err != nil {
			return err
		}
	}
	return s.persist(ctx, instance)
}

// persist saves the instance, releasing the run lock entry once the run has
// reached a terminal status.
func (s *Service) persist(ctx context.Context, instance *execution.Instance) error {
	err := s.instanceDAO.Save(ctx, instance)
	if execution.IsTerminal(instance.GetStatus()) {
		s.pruneRunLock(instance.ID)
	}
	return err
}

// applyCompletion removes the async state gating the completion. The removal
// is the exactly-once barrier: a completion whose state is gone (already
// applied, or cancelled) reports ok=false and is discarded.
func (s *Service) applyCompletion(ctx context.Context, instance *execution.Instance, msg *advance) (*types.Result, bool) {
	state, ok := instance.RemoveAsyncState(msg.Completion.AsyncID)
	if !ok {
		return nil, false
	}
	_ = s.asyncDAO.Delete(ctx, state.Key())
	s.tracker.Finish(state.TaskID)

	result := normalize(msg.StepID, msg.Completion.Result, msg.Completion.Err)
	record := &execution.StepRecord{
		StepID:    msg.StepID,
		Input:     state.TaskArgs,
		Timestamp: clock.Now(),
	}
	if result.Kind != types.KindFail {
		record.Output = result.Data
	}
	instance.AppendRecord(record)
	return result, true
}

// apply interprets a step result and returns the next step id and its input;
// an empty id stops the loop.
func (s *Service) apply(ctx context.Context, g *graph.Graph, instance *execution.Instance, node *graph.Node, result *types.Result) (string, interface{}, error) {
	switch result.Kind {
	case types.KindFail:
		instance.Fail(node.ID, result.Err)
		s.publish(ctx, event.TypeFailed, instance, node.ID)
		return "", nil, nil

	case types.KindFinish:
		instance.Context.Set(node.ID, result.Data)
		instance.Complete(result.Data)
		s.publish(ctx, event.TypeCompleted, instance, node.ID)
		return "", nil, nil

	case types.KindSuspend:
		return "", nil, s.suspend(ctx, g, instance, node, result)

	case types.KindAsync:
		return "", nil, s.offload(ctx, instance, node, result)

	case types.KindContinue, types.KindBranch:
		instance.Context.Set(node.ID, result.Data)
		next, err := g.Next(node, result, instance.Context.State())
		if err != nil {
			instance.Fail(node.ID, err)
			s.publish(ctx, event.TypeFailed, instance, node.ID)
			return "", nil, nil
		}
		if next == "" {
			// A continue with no successor completes the run with the
			// payload as final output.
			instance.Complete(result.Data)
			s.publish(ctx, event.TypeCompleted, instance, node.ID)
			return "", nil, nil
		}
		return next, result.Data, nil

	default:
		instance.Fail(node.ID, fmt.Errorf("unknown result kind %v", result.Kind))
		s.publish(ctx, event.TypeFailed, instance, node.ID)
		return "", nil, nil
	}
}

// suspend parks the run durably: the suspension records where the run
// continues after resume and which input type resume expects.
func (s *Service) suspend(ctx context.Context, g *graph.Graph, instance *execution.Instance, node *graph.Node, result *types.Result) error {
	next, err := g.Next(node, nil, instance.Context.State())
	if err != nil {
		instance.Fail(node.ID, err)
		s.publish(ctx, event.TypeFailed, instance, node.ID)
		return nil
	}
	suspension := &execution.Suspension{
		RunID:             instance.ID,
		StepID:            node.ID,
		NextStepID:        next,
		Prompt:            result.Prompt,
		ExpectedInputType: result.ExpectedInputType,
		CreatedAt:         clock.Now(),
	}
	if result.ExpectedInputType != "" {
		if document, schemaErr := s.schema.Schema(result.ExpectedInputType); schemaErr == nil {
			suspension.InputSchema = document
		}
	}
	if err = s.suspensionDAO.Save(ctx, suspension); err != nil {
		return fmt.Errorf("failed to save suspension for run %v: %w", instance.ID, err)
	}
	instance.Park(suspension)
	s.publish(ctx, event.TypeSuspended, instance, node.ID)
	return nil
}

// offload registers a background task for an async result and schedules it
// on the async pool. The run stays RUNNING; the immediate payload is
// recorded as the step's output so callers polling the run can observe it.
func (s *Service) offload(ctx context.Context, instance *execution.Instance, node *graph.Node, result *types.Result) error {
	if node.Action == nil {
		instance.Fail(node.ID, fmt.Errorf("async result from step %v with no action", node.ID))
		s.publish(ctx, event.TypeFailed, instance, node.ID)
		return nil
	}
	task, err := s.actions.LookupTask(node.Action.Service, result.AsyncID)
	if err != nil {
		instance.Fail(node.ID, err)
		s.publish(ctx, event.TypeFailed, instance, node.ID)
		return nil
	}

	taskID := s.tracker.GenerateTaskID()
	taskCtx := s.tracker.Register(s.backgroundContext(), taskID, instance.ID)
	state := &execution.AsyncState{
		RunID:       instance.ID,
		AsyncID:     result.AsyncID,
		StepID:      node.ID,
		TaskID:      taskID,
		TaskArgs:    result.TaskArgs,
		InitialData: result.Data,
		StartedAt:   clock.Now(),
	}
	instance.AddAsyncState(state)
	instance.Context.Set(node.ID, result.Data)
	if err = s.asyncDAO.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save async state for run %v: %w", instance.ID, err)
	}
	s.publish(ctx, event.TypeAsyncScheduled, instance, node.ID)

	go s.runTask(taskCtx, task, state)
	return nil
}

// runTask executes a background task on the async pool and republishes its
// outcome as a completion advance. Publication is unconditional: the
// exactly-once gate lives at the applying side.
func (s *Service) runTask(taskCtx context.Context, task types.AsyncExecutable, state *execution.AsyncState) {
	select {
	case s.asyncSem <- struct{}{}:
		defer func() { <-s.asyncSem }()
	case <-taskCtx.Done():
		return
	}
	s.tracker.TrackExecution(state.TaskID, "task.started")

	result, err := func() (result *types.Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &types.StepExecutionError{StepID: state.StepID, Cause: fmt.Errorf("panic: %v", r)}
			}
		}()
		return task(taskCtx, state.TaskArgs)
	}()
	s.tracker.TrackExecution(state.TaskID, "task.finished")

	msg := &advance{
		RunID:  state.RunID,
		StepID: state.StepID,
		Completion: &completion{
			AsyncID: state.AsyncID,
			Result:  result,
			Err:     err,
		},
	}
	if pErr := s.queue.Publish(s.backgroundContext(), msg); pErr != nil {
		s.tracker.TrackExecution(state.TaskID, "completion.dropped")
	}
}

func (s *Service) backgroundContext() context.Context {
	if s.rootCtx != nil {
		return s.rootCtx
	}
	return context.Background()
}
