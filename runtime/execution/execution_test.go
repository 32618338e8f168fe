package execution

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSession_Order(t *testing.T) {
	session := NewSession("run-1", map[string]interface{}{"text": "hello"})
	session.Set("classify", map[string]interface{}{"kind": "greeting"})
	session.Set("greet", "hi")
	session.Set("classify", map[string]interface{}{"kind": "question"})

	// Re-setting a key keeps its original position.
	require.Equal(t, []string{"classify", "greet"}, session.Keys())

	value, ok := session.Get("classify")
	require.True(t, ok)
	require.EqualValues(t, map[string]interface{}{"kind": "question"}, value)

	state := session.State()
	require.EqualValues(t, map[string]interface{}{"text": "hello"}, state["trigger"])
	require.Contains(t, state, "greet")
}

func TestSession_Clone(t *testing.T) {
	session := NewSession("run-1", "trigger")
	session.Set("a", 1)
	clone := session.Clone()
	clone.Set("b", 2)

	_, ok := session.Get("b")
	require.False(t, ok)
	_, ok = clone.Get("a")
	require.True(t, ok)
}

func TestInstance_Lifecycle(t *testing.T) {
	instance := NewInstance("run-1", "conversation", map[string]interface{}{"text": "hello"})
	require.Equal(t, StatusRunning, instance.GetStatus())
	require.Nil(t, instance.FinishedAt)

	instance.SetCurrentStep("classify")
	require.Equal(t, "classify", instance.CurrentStepID)
	require.Equal(t, "classify", instance.Context.CurrentStepID)

	instance.AppendRecord(&StepRecord{StepID: "classify", Input: "hello"})
	require.Len(t, instance.History, 1)

	instance.Complete("done")
	require.Equal(t, StatusCompleted, instance.GetStatus())
	require.Equal(t, "done", instance.Output)
	require.NotNil(t, instance.FinishedAt)
}

func TestInstance_Fail(t *testing.T) {
	instance := NewInstance("run-1", "conversation", nil)
	cause := fmt.Errorf("boom")
	instance.Fail("classify", fmt.Errorf("step classify execution failed: %w", cause))
	require.Equal(t, StatusFailed, instance.GetStatus())
	require.Equal(t, "classify", instance.Error.Step)
	require.Contains(t, instance.Error.Message, "boom")
	require.Equal(t, "boom", instance.Error.Cause)
}

func TestInstance_Suspension(t *testing.T) {
	instance := NewInstance("run-1", "conversation", nil)
	instance.Park(&Suspension{RunID: "run-1", StepID: "ask", NextStepID: "reply", Prompt: "?"})
	require.Equal(t, StatusSuspended, instance.GetStatus())
	require.NotNil(t, instance.Suspension)

	instance.ClearSuspension()
	require.Nil(t, instance.Suspension)
}

func TestInstance_AsyncStates(t *testing.T) {
	instance := NewInstance("run-1", "research", nil)
	state := &AsyncState{RunID: "run-1", AsyncID: "lookup", StepID: "search", TaskID: "t-1"}
	require.Equal(t, "run-1/lookup", state.Key())

	instance.AddAsyncState(state)
	require.Len(t, instance.ActiveAsyncStates(), 1)

	removed, ok := instance.RemoveAsyncState("lookup")
	require.True(t, ok)
	require.Equal(t, state, removed)

	_, ok = instance.RemoveAsyncState("lookup")
	require.False(t, ok)
	require.Empty(t, instance.ActiveAsyncStates())
}

func TestInstance_Clone(t *testing.T) {
	instance := NewInstance("run-1", "conversation", "trigger")
	instance.AppendRecord(&StepRecord{StepID: "a"})
	instance.AddAsyncState(&AsyncState{RunID: "run-1", AsyncID: "x"})

	clone := instance.Clone()
	clone.AppendRecord(&StepRecord{StepID: "b"})
	clone.AddAsyncState(&AsyncState{RunID: "run-1", AsyncID: "y"})

	require.Len(t, instance.History, 1)
	require.Len(t, instance.AsyncStates, 1)
	require.Len(t, clone.History, 2)
	require.Len(t, clone.AsyncStates, 2)
}
