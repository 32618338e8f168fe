package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
)

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	service, err := New(t.TempDir())
	require.NoError(t, err)

	instance := execution.NewInstance("conversation/run-1", "conversation", map[string]interface{}{"text": "hello"})
	instance.SetCurrentStep("classify")
	instance.AppendRecord(&execution.StepRecord{StepID: "classify", Input: "hello", Output: "greeting"})
	require.NoError(t, service.Save(ctx, instance))

	loaded, err := service.Load(ctx, "conversation/run-1")
	require.NoError(t, err)
	require.Equal(t, instance.ID, loaded.ID)
	require.Equal(t, execution.StatusRunning, loaded.Status)
	require.Equal(t, "classify", loaded.CurrentStepID)
	require.Len(t, loaded.History, 1)
	require.NotNil(t, loaded.Context)
	require.EqualValues(t, map[string]interface{}{"text": "hello"}, loaded.Context.TriggerData)

	_, err = service.Load(ctx, "missing")
	require.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	service, err := New(t.TempDir())
	require.NoError(t, err)

	running := execution.NewInstance("run-1", "conversation", nil)
	done := execution.NewInstance("run-2", "conversation", nil)
	done.Complete("ok")
	require.NoError(t, service.Save(ctx, running))
	require.NoError(t, service.Save(ctx, done))

	all, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	completed, err := service.List(ctx, dao.NewParameter("Status", execution.StatusCompleted))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, "run-2", completed[0].ID)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	service, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, service.Save(ctx, execution.NewInstance("run-1", "conversation", nil)))
	require.NoError(t, service.Delete(ctx, "run-1"))
	require.ErrorIs(t, service.Delete(ctx, "run-1"), dao.ErrNotFound)
}
