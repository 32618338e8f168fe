package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_Lifecycle(t *testing.T) {
	var mu sync.Mutex
	var updates []Progress
	tracker := NewTracker(func(p Progress) {
		mu.Lock()
		updates = append(updates, p)
		mu.Unlock()
	})

	taskID := tracker.GenerateTaskID()
	require.NotEmpty(t, taskID)
	ctx := tracker.Register(context.Background(), taskID, "run-1")
	require.NoError(t, ctx.Err())

	tracker.TrackExecution(taskID, "task.started")
	tracker.UpdateProgress(taskID, 42, "halfway-ish")
	tracker.UpdateProgress(taskID, 150, "over the top")

	snapshot, ok := tracker.Progress(taskID)
	require.True(t, ok)
	require.Equal(t, "run-1", snapshot.RunID)
	require.Equal(t, 100, snapshot.Percent)
	require.Equal(t, []string{"task.started"}, snapshot.Events)

	mu.Lock()
	require.Len(t, updates, 3)
	mu.Unlock()

	tracker.Finish(taskID)
	_, ok = tracker.Progress(taskID)
	require.False(t, ok)
}

func TestTracker_Cancel(t *testing.T) {
	tracker := NewTracker(nil)
	taskID := tracker.GenerateTaskID()
	ctx := tracker.Register(context.Background(), taskID, "run-1")

	require.True(t, tracker.CancelTask(taskID))
	require.Error(t, ctx.Err())

	snapshot, ok := tracker.Progress(taskID)
	require.True(t, ok)
	require.True(t, snapshot.Cancelled)

	// Cancelling twice or cancelling unknown tasks reports false.
	require.False(t, tracker.CancelTask(taskID))
	require.False(t, tracker.CancelTask("missing"))
}
