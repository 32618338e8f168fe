// Package progress tracks background task execution for async step
// offloads: task id generation, execution events, percentage updates,
// polling and best-effort cancellation. The tracker is an explicit object
// owned by the engine, not a global registry.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/stepflow/internal/clock"
	"github.com/viant/stepflow/internal/idgen"
)

// Progress is a point-in-time snapshot of one tracked task.
type Progress struct {
	TaskID    string    `json:"taskId"`
	RunID     string    `json:"runId,omitempty"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message,omitempty"`
	Events    []string  `json:"events,omitempty"`
	Cancelled bool      `json:"cancelled"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type task struct {
	snapshot Progress
	cancel   context.CancelFunc
}

// Tracker keeps per-task progress state. It is safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	tasks    map[string]*task
	onChange func(Progress)
}

// NewTracker creates an empty tracker. The optional onChange callback is
// invoked with a snapshot copy after every update, outside the critical
// section so that slow consumers do not block engine internals.
func NewTracker(onChange func(Progress)) *Tracker {
	return &Tracker{
		tasks:    make(map[string]*task),
		onChange: onChange,
	}
}

// GenerateTaskID returns a fresh globally unique task identifier.
func (t *Tracker) GenerateTaskID() string {
	return idgen.New()
}

// Register starts tracking a task and returns the context its background
// work should run under; CancelTask cancels that context.
func (t *Tracker) Register(ctx context.Context, taskID, runID string) context.Context {
	taskCtx, cancel := context.WithCancel(ctx)
	now := clock.Now()
	t.mu.Lock()
	t.tasks[taskID] = &task{
		snapshot: Progress{TaskID: taskID, RunID: runID, StartedAt: now, UpdatedAt: now},
		cancel:   cancel,
	}
	t.mu.Unlock()
	return taskCtx
}

// TrackExecution appends an execution event to the task's trail.
func (t *Tracker) TrackExecution(taskID, event string) {
	t.update(taskID, func(p *Progress) {
		p.Events = append(p.Events, event)
	})
}

// UpdateProgress records a percentage and message for the task.
func (t *Tracker) UpdateProgress(taskID string, percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.update(taskID, func(p *Progress) {
		p.Percent = percent
		p.Message = message
	})
}

// Progress returns a snapshot of the task; ok is false for unknown ids.
func (t *Tracker) Progress(taskID string) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.tasks[taskID]
	if !ok {
		return Progress{}, false
	}
	return entry.snapshot, true
}

// CancelTask cancels the task's context. Cancellation is best-effort: the
// background computation may not stop immediately, but its eventual result
// must be discarded by the caller once cancelled. Returns false for unknown
// or already finished tasks.
func (t *Tracker) CancelTask(taskID string) bool {
	t.mu.Lock()
	entry, ok := t.tasks[taskID]
	if !ok || entry.snapshot.Cancelled {
		t.mu.Unlock()
		return false
	}
	entry.snapshot.Cancelled = true
	entry.snapshot.UpdatedAt = clock.Now()
	cancel := entry.cancel
	snapshot := entry.snapshot
	cb := t.onChange
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cb != nil {
		cb(snapshot)
	}
	return true
}

// Finish stops tracking a task and releases its cancel context.
func (t *Tracker) Finish(taskID string) {
	t.mu.Lock()
	entry, ok := t.tasks[taskID]
	if ok {
		delete(t.tasks, taskID)
	}
	t.mu.Unlock()
	if ok && entry.cancel != nil {
		entry.cancel()
	}
}

func (t *Tracker) update(taskID string, mutate func(*Progress)) {
	t.mu.Lock()
	entry, ok := t.tasks[taskID]
	if !ok {
		t.mu.Unlock()
		return
	}
	mutate(&entry.snapshot)
	entry.snapshot.UpdatedAt = clock.Now()
	snapshot := entry.snapshot
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}
