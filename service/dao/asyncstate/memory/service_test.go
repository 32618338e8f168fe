package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
)

func TestService_ListByRun(t *testing.T) {
	ctx := context.Background()
	service := New()

	require.NoError(t, service.Save(ctx, &execution.AsyncState{RunID: "run-1", AsyncID: "lookup"}))
	require.NoError(t, service.Save(ctx, &execution.AsyncState{RunID: "run-1", AsyncID: "enrich"}))
	require.NoError(t, service.Save(ctx, &execution.AsyncState{RunID: "run-2", AsyncID: "lookup"}))

	all, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	scoped, err := service.List(ctx, dao.NewParameter("RunID", "run-1"))
	require.NoError(t, err)
	require.Len(t, scoped, 2)

	require.NoError(t, service.Delete(ctx, "run-1/lookup"))
	scoped, err = service.List(ctx, dao.NewParameter("RunID", "run-1"))
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "enrich", scoped[0].AsyncID)
}
