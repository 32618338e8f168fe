package execution

import (
	"sync"
	"time"

	"github.com/viant/stepflow/internal/clock"
)

// Instance status constants
const (
	StatusRunning   = "running"
	StatusSuspended = "suspended"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type (
	// StepRecord is one entry of the append-only audit trail: one per step
	// invocation, never rewritten. A failed invocation records its input
	// but no output.
	StepRecord struct {
		StepID     string      `json:"stepId"`
		Input      interface{} `json:"input,omitempty"`
		Output     interface{} `json:"output,omitempty"`
		Timestamp  time.Time   `json:"timestamp"`
		DurationMs int64       `json:"durationMs"`
	}

	// Suspension is the durable payload of a parked run: what to ask the
	// user, what input type resume expects and where the run continues.
	Suspension struct {
		RunID             string                 `json:"runId"`
		StepID            string                 `json:"stepId"`
		NextStepID        string                 `json:"nextStepId,omitempty"`
		Prompt            string                 `json:"prompt,omitempty"`
		ExpectedInputType string                 `json:"expectedInputType,omitempty"`
		InputSchema       map[string]interface{} `json:"inputSchema,omitempty"`
		CreatedAt         time.Time              `json:"createdAt"`
	}

	// AsyncState tracks one in-flight background task tied to a run. It is
	// removed once the async step resolves (or is cancelled) and its
	// presence gates applying the task's eventual result.
	AsyncState struct {
		RunID       string                 `json:"runId"`
		AsyncID     string                 `json:"asyncId"`
		StepID      string                 `json:"stepId"`
		TaskID      string                 `json:"taskId"`
		TaskArgs    map[string]interface{} `json:"taskArgs,omitempty"`
		InitialData interface{}            `json:"initialData,omitempty"`
		StartedAt   time.Time              `json:"startedAt"`
	}

	// ErrorInfo captures a terminal failure.
	ErrorInfo struct {
		Step    string `json:"step"`
		Message string `json:"message"`
		Cause   string `json:"cause,omitempty"`
	}

	// Instance is the durable record of one run. A SUSPENDED or terminal
	// instance is immutable except for deletion/cleanup.
	Instance struct {
		ID            string                 `json:"id"`
		WorkflowID    string                 `json:"workflowId"`
		Status        string                 `json:"status"`
		CurrentStepID string                 `json:"currentStepId,omitempty"`
		History       []*StepRecord          `json:"history,omitempty"`
		Suspension    *Suspension            `json:"suspension,omitempty"`
		AsyncStates   map[string]*AsyncState `json:"asyncStates,omitempty"`
		Error         *ErrorInfo             `json:"error,omitempty"`
		Output        interface{}            `json:"output,omitempty"`
		Context       *Session               `json:"context,omitempty"`
		CreatedAt     time.Time              `json:"createdAt"`
		UpdatedAt     time.Time              `json:"updatedAt"`
		FinishedAt    *time.Time             `json:"finishedAt,omitempty"`
		mu            sync.RWMutex
	}
)

// Key returns the async-state repository key.
func (a *AsyncState) Key() string {
	return a.RunID + "/" + a.AsyncID
}

// NewInstance creates a RUNNING instance with a fresh session.
func NewInstance(id, workflowID string, trigger interface{}) *Instance {
	now := clock.Now()
	return &Instance{
		ID:         id,
		WorkflowID: workflowID,
		Status:     StatusRunning,
		Context:    NewSession(id, trigger),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// GetStatus returns the instance status.
func (i *Instance) GetStatus() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.Status
}

// SetStatus updates the instance status, stamping FinishedAt on terminal
// transitions.
func (i *Instance) SetStatus(status string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Status = status
	if IsTerminal(status) {
		now := clock.Now()
		i.FinishedAt = &now
	}
	i.UpdatedAt = clock.Now()
}

// AppendRecord appends one audit-trail entry.
func (i *Instance) AppendRecord(record *StepRecord) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.History = append(i.History, record)
	i.UpdatedAt = clock.Now()
}

// SetCurrentStep records the step the run is positioned at.
func (i *Instance) SetCurrentStep(stepID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.CurrentStepID = stepID
	if i.Context != nil {
		i.Context.CurrentStepID = stepID
	}
	i.UpdatedAt = clock.Now()
}

// AddAsyncState registers an in-flight background task.
func (i *Instance) AddAsyncState(state *AsyncState) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.AsyncStates == nil {
		i.AsyncStates = make(map[string]*AsyncState)
	}
	i.AsyncStates[state.AsyncID] = state
	i.UpdatedAt = clock.Now()
}

// RemoveAsyncState removes a background task registration; the second return
// value indicates it was present.
func (i *Instance) RemoveAsyncState(asyncID string) (*AsyncState, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	state, ok := i.AsyncStates[asyncID]
	if ok {
		delete(i.AsyncStates, asyncID)
		i.UpdatedAt = clock.Now()
	}
	return state, ok
}

// ActiveAsyncStates returns a snapshot of in-flight background tasks.
func (i *Instance) ActiveAsyncStates() []*AsyncState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]*AsyncState, 0, len(i.AsyncStates))
	for _, state := range i.AsyncStates {
		out = append(out, state)
	}
	return out
}

// Complete marks the run COMPLETED with its final output.
func (i *Instance) Complete(output interface{}) {
	i.mu.Lock()
	i.Output = output
	i.mu.Unlock()
	i.SetStatus(StatusCompleted)
}

// Fail marks the run FAILED with error info for the failing step.
func (i *Instance) Fail(stepID string, err error) {
	i.mu.Lock()
	info := &ErrorInfo{Step: stepID}
	if err != nil {
		info.Message = err.Error()
		if cause := unwrap(err); cause != nil {
			info.Cause = cause.Error()
		}
	}
	i.Error = info
	i.mu.Unlock()
	i.SetStatus(StatusFailed)
}

// Park marks the run SUSPENDED with its suspension payload.
func (i *Instance) Park(suspension *Suspension) {
	i.mu.Lock()
	i.Suspension = suspension
	i.mu.Unlock()
	i.SetStatus(StatusSuspended)
}

// ClearSuspension removes the suspension payload on resume.
func (i *Instance) ClearSuspension() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Suspension = nil
	i.UpdatedAt = clock.Now()
}

// Clone creates a deep copy safe for inspection outside the store. The
// history slice is copied; records themselves are append-only and shared.
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := &Instance{
		ID:            i.ID,
		WorkflowID:    i.WorkflowID,
		Status:        i.Status,
		CurrentStepID: i.CurrentStepID,
		Suspension:    i.Suspension,
		Error:         i.Error,
		Output:        i.Output,
		Context:       i.Context.Clone(),
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
		FinishedAt:    i.FinishedAt,
	}
	if len(i.History) > 0 {
		out.History = append([]*StepRecord(nil), i.History...)
	}
	if i.AsyncStates != nil {
		out.AsyncStates = make(map[string]*AsyncState, len(i.AsyncStates))
		for k, v := range i.AsyncStates {
			out.AsyncStates[k] = v
		}
	}
	return out
}

func unwrap(err error) error {
	type causer interface{ Unwrap() error }
	if wrapped, ok := err.(causer); ok {
		return wrapped.Unwrap()
	}
	return nil
}
