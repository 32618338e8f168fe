package stepflow

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/stepflow/model"
	"github.com/viant/stepflow/progress"
	"github.com/viant/stepflow/runtime/engine"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
	"github.com/viant/stepflow/service/declaration"
	"github.com/viant/stepflow/service/schema"
)

// Runtime is the run-facing API of the workflow engine.
type Runtime struct {
	engine      *engine.Service
	source      declaration.Source
	instanceDAO dao.Service[string, execution.Instance]
}

// Start launches the engine worker pool.
func (r *Runtime) Start(ctx context.Context) error {
	return r.engine.Start(ctx)
}

// Shutdown stops the worker pool and drains in-flight advances.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.engine.Shutdown()
	return nil
}

// Register validates a workflow declaration and makes it executable.
// Validation failure is reported as GraphValidationError and the workflow
// stays unregistered.
func (r *Runtime) Register(workflow *model.Workflow) error {
	return r.engine.Register(workflow)
}

// LoadWorkflow loads a declaration from the configured source and registers
// it.
func (r *Runtime) LoadWorkflow(ctx context.Context, location string) (*model.Workflow, error) {
	workflow, err := r.source.Workflow(ctx, location)
	if err != nil {
		return nil, err
	}
	if err = r.engine.Register(workflow); err != nil {
		return nil, err
	}
	return workflow, nil
}

// RefreshWorkflow discards any cached copy of the declaration at the given
// location; the next LoadWorkflow call reloads it from storage.
func (r *Runtime) RefreshWorkflow(location string) error {
	source, ok := r.source.(*declaration.YAML)
	if !ok {
		return fmt.Errorf("declaration source does not support refresh")
	}
	source.Refresh(location)
	return nil
}

// UpsertDefinition parses the supplied YAML bytes and stores the resulting
// declaration under the specified location. When data is nil the call falls
// back to RefreshWorkflow, causing a lazy reload on next use.
func (r *Runtime) UpsertDefinition(location string, data []byte) error {
	source, ok := r.source.(*declaration.YAML)
	if !ok {
		return fmt.Errorf("declaration source does not support upsert")
	}
	if data == nil {
		source.Refresh(location)
		return nil
	}
	workflow, err := source.DecodeYAML(data)
	if err != nil {
		return fmt.Errorf("failed to decode workflow YAML: %w", err)
	}
	if workflow.Source == nil {
		workflow.Source = &model.Source{URL: location}
	} else {
		workflow.Source.URL = location
	}
	source.Upsert(location, workflow)
	return nil
}

// Execute starts a new run of a registered workflow.
func (r *Runtime) Execute(ctx context.Context, workflowID string, trigger interface{}) (*engine.Execution, error) {
	return r.engine.Execute(ctx, workflowID, trigger)
}

// Resume supplies the input a suspended run waits for.
func (r *Runtime) Resume(ctx context.Context, runID string, input interface{}) error {
	return r.engine.Resume(ctx, runID, input)
}

// CancelAsyncOperation withdraws a run's in-flight background tasks; false
// means nothing was in flight.
func (r *Runtime) CancelAsyncOperation(ctx context.Context, runID string) (bool, error) {
	return r.engine.CancelAsyncOperation(ctx, runID)
}

// GetWorkflowInstance returns a snapshot of a run.
func (r *Runtime) GetWorkflowInstance(ctx context.Context, runID string) (*execution.Instance, error) {
	return r.engine.Instance(ctx, runID)
}

// CurrentResult reports the run's current status and relevant payload
// without blocking.
func (r *Runtime) CurrentResult(ctx context.Context, runID string) (*engine.RunState, error) {
	return r.engine.CurrentResult(ctx, runID)
}

// Instances lists run instances, optionally filtered (e.g. by status).
func (r *Runtime) Instances(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Instance, error) {
	return r.instanceDAO.List(ctx, parameters...)
}

// Tracker returns the background task progress tracker.
func (r *Runtime) Tracker() *progress.Tracker {
	return r.engine.Tracker()
}

// Schema returns the schema provider used for suspension input validation.
func (r *Runtime) Schema() *schema.Service {
	return r.engine.Schema()
}

// ExecuteAndWait starts a run and waits until it settles (completes, fails
// or suspends), returning the instance snapshot.
func (r *Runtime) ExecuteAndWait(ctx context.Context, workflowID string, trigger interface{}, timeout time.Duration) (*execution.Instance, error) {
	anExecution, err := r.engine.Execute(ctx, workflowID, trigger)
	if err != nil {
		return nil, err
	}
	return anExecution.Wait(ctx, timeout)
}
