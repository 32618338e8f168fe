package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow/model/types"
)

func validSteps() []*Step {
	classify := &Step{ID: "classify", Entry: true, Emits: []string{"greeting", "question"}}
	classify.WithAction("assistant", "classify")
	greet := &Step{ID: "greet", NextKinds: []string{"greeting"}, Next: []string{"final"}}
	answer := &Step{ID: "answer", NextKinds: []string{"question"}, Next: []string{"final"}}
	final := &Step{ID: "final"}
	return []*Step{classify, greet, answer, final}
}

func TestBuilder_Build(t *testing.T) {
	g, err := NewBuilder().Build("conversation", "1.0", "Query", "", validSteps())
	require.NoError(t, err)
	require.Equal(t, "classify", g.EntryStepID)
	require.Equal(t, []string{"classify", "greet", "answer", "final"}, g.Nodes())

	target, ok := g.BranchTarget("question")
	require.True(t, ok)
	require.Equal(t, "answer", target)
	_, ok = g.BranchTarget("unknown")
	require.False(t, ok)
}

func TestBuilder_Violations(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(steps []*Step) []*Step
		fragment string
	}{
		{
			name:     "empty declaration",
			mutate:   func([]*Step) []*Step { return nil },
			fragment: "no steps declared",
		},
		{
			name: "duplicate id",
			mutate: func(steps []*Step) []*Step {
				return append(steps, &Step{ID: "classify"})
			},
			fragment: "duplicate step id",
		},
		{
			name: "multiple entries",
			mutate: func(steps []*Step) []*Step {
				steps[1].Entry = true
				return steps
			},
			fragment: "multiple entry steps",
		},
		{
			name: "unknown next",
			mutate: func(steps []*Step) []*Step {
				steps[1].Next = []string{"nowhere"}
				return steps
			},
			fragment: "unknown next step",
		},
		{
			name: "ambiguous next",
			mutate: func(steps []*Step) []*Step {
				steps[1].Next = []string{"final", "answer"}
				return steps
			},
			fragment: "at most one allowed",
		},
		{
			name: "duplicate branch acceptor",
			mutate: func(steps []*Step) []*Step {
				steps[3].NextKinds = []string{"question"}
				return steps
			},
			fragment: "accepted by both",
		},
		{
			name: "emitted kind without acceptor",
			mutate: func(steps []*Step) []*Step {
				steps[0].Emits = append(steps[0].Emits, "smalltalk")
				return steps
			},
			fragment: "no accepting node",
		},
		{
			name: "conditional with no branches",
			mutate: func(steps []*Step) []*Step {
				steps[3].When = "classify.kind == 'question'"
				return steps
			},
			fragment: "omits both branches",
		},
		{
			name: "branches without condition",
			mutate: func(steps []*Step) []*Step {
				steps[3].OnTrue = "greet"
				return steps
			},
			fragment: "without a condition",
		},
		{
			name: "invalid condition",
			mutate: func(steps []*Step) []*Step {
				steps[3].When = "classify.kind =="
				steps[3].OnTrue = "greet"
				return steps
			},
			fragment: "invalid condition",
		},
		{
			name: "unreachable node",
			mutate: func(steps []*Step) []*Step {
				// Inserted between steps with explicit transitions, so no
				// declaration-order fallback reaches it.
				orphan := &Step{ID: "orphan", Next: []string{"final"}}
				return []*Step{steps[0], steps[1], steps[2], orphan, steps[3]}
			},
			fragment: "unreachable",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBuilder().Build("conversation", "1.0", "", "", tc.mutate(validSteps()))
			require.Error(t, err)
			var validation *types.GraphValidationError
			require.True(t, errors.As(err, &validation))
			require.Contains(t, err.Error(), tc.fragment)
		})
	}
}

func TestGraph_Next(t *testing.T) {
	steps := []*Step{
		{ID: "classify", Entry: true, Emits: []string{"greeting"}},
		{ID: "check", NextKinds: []string{"greeting"}, When: "classify.score > 0.5", OnTrue: "accept", OnFalse: "reject"},
		{ID: "accept", Next: []string{"final"}},
		{ID: "reject", Next: []string{"final"}},
		{ID: "final"},
	}
	g, err := NewBuilder().Build("flow", "1.0", "", "", steps)
	require.NoError(t, err)

	// Branch result routes through the kind table.
	next, err := g.Next(g.Node("classify"), types.Branch("greeting", nil), nil)
	require.NoError(t, err)
	require.Equal(t, "check", next)

	// Unknown branch kind is an error.
	_, err = g.Next(g.Node("classify"), types.Branch("smalltalk", nil), nil)
	require.Error(t, err)

	// Condition selects a branch from the run state.
	next, err = g.Next(g.Node("check"), types.Continue(nil), map[string]interface{}{
		"classify": map[string]interface{}{"score": 0.9},
	})
	require.NoError(t, err)
	require.Equal(t, "accept", next)

	next, err = g.Next(g.Node("check"), types.Continue(nil), map[string]interface{}{
		"classify": map[string]interface{}{"score": 0.1},
	})
	require.NoError(t, err)
	require.Equal(t, "reject", next)

	// Explicit next wins for plain continues.
	next, err = g.Next(g.Node("accept"), types.Continue(nil), nil)
	require.NoError(t, err)
	require.Equal(t, "final", next)

	// The trailing node has no successor.
	next, err = g.Next(g.Node("final"), types.Continue(nil), nil)
	require.NoError(t, err)
	require.Equal(t, "", next)
}
