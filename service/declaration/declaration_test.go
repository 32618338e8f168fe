package declaration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow/model"
)

const conversationYAML = `
id: conversation
version: "1.0"
input: Query
steps:
  - id: classify
    entry: true
    action:
      service: assistant
      method: classify
    emits: [greeting, question]
  - id: greet
    nextKinds: [greeting]
    next: [reply]
    action:
      service: assistant
      method: ask
  - id: reply
    nextKinds: [question]
    action:
      service: assistant
      method: reply
`

func TestYAML_Workflow(t *testing.T) {
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "conversation.yaml"), []byte(conversationYAML), 0o644))

	source := NewYAML(baseDir)
	ctx := context.Background()

	workflow, err := source.Workflow(ctx, "conversation")
	require.NoError(t, err)
	require.Equal(t, "conversation", workflow.ID)
	require.Equal(t, "Query", workflow.Input)
	require.Len(t, workflow.Steps, 3)
	require.Equal(t, "classify", workflow.Steps[0].ID)
	require.True(t, workflow.Steps[0].Entry)
	require.Equal(t, "assistant", workflow.Steps[0].Action.Service)
	require.Equal(t, []string{"greeting", "question"}, workflow.Steps[0].Emits)
	require.Equal(t, []string{"reply"}, workflow.Steps[1].Next)
	require.NotNil(t, workflow.Source)

	// The declaration builds a valid graph.
	g, err := workflow.Graph()
	require.NoError(t, err)
	require.Equal(t, "classify", g.EntryStepID)

	// Loads are cached until refreshed.
	require.NoError(t, os.Remove(filepath.Join(baseDir, "conversation.yaml")))
	cached, err := source.Workflow(ctx, "conversation")
	require.NoError(t, err)
	require.Equal(t, workflow, cached)

	source.Refresh("conversation")
	_, err = source.Workflow(ctx, "conversation")
	require.Error(t, err)
}

func TestYAML_Upsert(t *testing.T) {
	source := NewYAML("")
	workflow, err := source.DecodeYAML([]byte(conversationYAML))
	require.NoError(t, err)
	source.Upsert("conversation", workflow)

	loaded, err := source.Workflow(context.Background(), "conversation")
	require.NoError(t, err)
	require.Equal(t, workflow, loaded)
}

func TestStatic_Workflow(t *testing.T) {
	workflow := model.NewWorkflow("conversation", "1.0")
	source := NewStatic(workflow)

	loaded, err := source.Workflow(context.Background(), "conversation")
	require.NoError(t, err)
	require.Equal(t, workflow, loaded)

	_, err = source.Workflow(context.Background(), "missing")
	require.Error(t, err)
}
