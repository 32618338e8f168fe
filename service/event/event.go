package event

import "time"

// Context identifies what a lifecycle event refers to.
type Context struct {
	RunID      string `json:"runId"`
	WorkflowID string `json:"workflowId,omitempty"`
	StepID     string `json:"stepId,omitempty"`
	EventType  string `json:"eventType"`
	Service    string `json:"service,omitempty"`
	Method     string `json:"method,omitempty"`
}

// Lifecycle event types published by the engine.
const (
	TypeStarted        = "run.started"
	TypeStepExecuted   = "step.executed"
	TypeSuspended      = "run.suspended"
	TypeResumed        = "run.resumed"
	TypeAsyncScheduled = "async.scheduled"
	TypeCompleted      = "run.completed"
	TypeFailed         = "run.failed"
	TypeCancelled      = "async.cancelled"
)

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
