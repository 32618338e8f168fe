package stepflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow"
	"github.com/viant/stepflow/model"
	"github.com/viant/stepflow/model/types"
	"github.com/viant/stepflow/runtime/execution"
)

type echoService struct{}

func (s *echoService) Name() string { return "echo" }

func (s *echoService) Methods() types.Signatures {
	return types.Signatures{{Name: "say"}}
}

func (s *echoService) Method(name string) (types.Executable, error) {
	if name != "say" {
		return nil, types.NewMethodNotFoundError(name)
	}
	return func(_ context.Context, input interface{}) (*types.Result, error) {
		return types.Finish(input), nil
	}, nil
}

func TestService_LoadWorkflow(t *testing.T) {
	srv, err := stepflow.New(stepflow.WithDeclarationsURL("testdata"))
	require.NoError(t, err)

	runtime := srv.Runtime()
	ctx := context.Background()
	workflow, err := runtime.LoadWorkflow(ctx, "conversation")
	assert.Nil(t, err)
	assert.NotNil(t, workflow)
	assert.Equal(t, "conversation", workflow.ID)
	assert.Len(t, workflow.Steps, 3)
}

func TestService_RegisterRejectsInvalidGraph(t *testing.T) {
	srv, err := stepflow.New()
	require.NoError(t, err)

	rt := srv.Runtime()
	invalid := mustWorkflow()
	invalid.Steps[0].Next = []string{"nowhere"}
	err = rt.Register(invalid)
	require.Error(t, err)
	_, ok := err.(*types.GraphValidationError)
	require.True(t, ok)
}

func TestService_ExecuteAndWait(t *testing.T) {
	srv, err := stepflow.New(stepflow.WithExtensionServices(&echoService{}))
	require.NoError(t, err)
	rt := srv.Runtime()
	ctx := context.Background()
	require.NoError(t, rt.Register(mustWorkflow()))
	require.NoError(t, rt.Start(ctx))
	defer rt.Shutdown(ctx)

	instance, err := rt.ExecuteAndWait(ctx, "echo", "hello", 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, execution.StatusCompleted, instance.Status)
	require.Equal(t, "hello", instance.Output)
}

func mustWorkflow() *model.Workflow {
	workflow := model.NewWorkflow("echo", "1.0")
	step := workflow.AddStep("say")
	step.Entry = true
	step.WithAction("echo", "say")
	return workflow
}
