package engine

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow/extension"
	"github.com/viant/stepflow/model"
	"github.com/viant/stepflow/model/types"
	"github.com/viant/stepflow/runtime/execution"
	amemory "github.com/viant/stepflow/service/dao/asyncstate/memory"
	imemory "github.com/viant/stepflow/service/dao/instance/memory"
	smemory "github.com/viant/stepflow/service/dao/suspension/memory"
	"github.com/viant/x"
)

type searchInput struct {
	Term string `json:"term"`
}

// searchService offloads its single step to a background "fetch" task that
// blocks on gate until the test releases it.
type searchService struct {
	gate    chan struct{}
	started chan struct{}
}

func (s *searchService) Name() string { return "searcher" }

func (s *searchService) Methods() types.Signatures {
	return types.Signatures{
		{Name: "run", Input: reflect.TypeOf(searchInput{})},
		{Name: "confirm"},
	}
}

func (s *searchService) Method(name string) (types.Executable, error) {
	switch name {
	case "run":
		return func(_ context.Context, input interface{}) (*types.Result, error) {
			term := input.(*searchInput).Term
			return types.Async("fetch", time.Second,
				map[string]interface{}{"term": term},
				map[string]interface{}{"status": "pending"}), nil
		}, nil
	case "confirm":
		return func(_ context.Context, _ interface{}) (*types.Result, error) {
			return types.Suspend("proceed with the search?", "searchInput"), nil
		}, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

func (s *searchService) Task(name string) (types.AsyncExecutable, error) {
	if name != "fetch" {
		return nil, types.NewTaskNotFoundError(name)
	}
	return func(ctx context.Context, args map[string]interface{}) (*types.Result, error) {
		s.started <- struct{}{}
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return types.Finish(map[string]interface{}{"hits": args["term"]}), nil
	}, nil
}

func newTestEngine(t *testing.T) (*Service, *searchService) {
	t.Helper()
	searcher := &searchService{gate: make(chan struct{}), started: make(chan struct{}, 4)}
	actions := extension.NewActions(x.NewType(reflect.TypeOf(searchInput{}), x.WithName("searchInput")))
	actions.Register(searcher)
	engine, err := New(actions,
		WithInstanceDAO(imemory.New()),
		WithSuspensionDAO(smemory.New()),
		WithAsyncStateDAO(amemory.New()),
	)
	require.NoError(t, err)

	workflow := model.NewWorkflow("search", "1.0")
	step := workflow.AddStep("lookup")
	step.Entry = true
	step.WithAction("searcher", "run")
	require.NoError(t, engine.Register(workflow))

	review := model.NewWorkflow("review", "1.0")
	confirm := review.AddStep("confirm")
	confirm.Entry = true
	confirm.WithAction("searcher", "confirm")
	require.NoError(t, engine.Register(review))
	return engine, searcher
}

func TestEngine_CompletionAppliedOnce(t *testing.T) {
	engine, searcher := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Start(ctx))
	defer engine.Shutdown()

	run, err := engine.Execute(ctx, "search", &searchInput{Term: "go"})
	require.NoError(t, err)
	select {
	case <-searcher.started:
	case <-time.After(5 * time.Second):
		t.Fatal("background task never started")
	}
	close(searcher.gate)

	instance, err := run.Wait(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, execution.StatusCompleted, instance.Status)
	require.EqualValues(t, map[string]interface{}{"hits": "go"}, instance.Output)
	require.Len(t, instance.History, 2)

	// A duplicate completion finds no async state and is discarded: the
	// history and output stay untouched.
	require.NoError(t, engine.queue.Publish(ctx, &advance{
		RunID:  run.RunID(),
		StepID: "lookup",
		Completion: &completion{
			AsyncID: "fetch",
			Result:  types.Finish(map[string]interface{}{"hits": "duplicate"}),
		},
	}))
	time.Sleep(200 * time.Millisecond)
	instance, err = engine.Instance(ctx, run.RunID())
	require.NoError(t, err)
	require.EqualValues(t, map[string]interface{}{"hits": "go"}, instance.Output)
	require.Len(t, instance.History, 2)
}

func TestEngine_StaleAdvanceAgainstSettledRun(t *testing.T) {
	engine, searcher := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Start(ctx))
	defer engine.Shutdown()

	run, err := engine.Execute(ctx, "search", &searchInput{Term: "go"})
	require.NoError(t, err)
	<-searcher.started
	close(searcher.gate)
	instance, err := run.Wait(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, execution.StatusCompleted, instance.Status)

	// A stray advance against a settled run is dropped without effect.
	require.NoError(t, engine.queue.Publish(ctx, &advance{RunID: run.RunID(), StepID: "lookup", Input: &searchInput{Term: "again"}}))
	time.Sleep(200 * time.Millisecond)
	after, err := engine.Instance(ctx, run.RunID())
	require.NoError(t, err)
	require.Equal(t, instance.Output, after.Output)
	require.Len(t, after.History, len(instance.History))
}

func TestEngine_AdvanceAgainstSuspendedRunDropped(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Start(ctx))
	defer engine.Shutdown()

	run, err := engine.Execute(ctx, "review", &searchInput{Term: "go"})
	require.NoError(t, err)
	instance, err := run.Wait(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, execution.StatusSuspended, instance.Status)

	// A replayed advance must not re-execute steps on a parked run.
	require.NoError(t, engine.queue.Publish(ctx, &advance{RunID: run.RunID(), StepID: "confirm", Input: &searchInput{Term: "again"}}))
	time.Sleep(200 * time.Millisecond)
	after, err := engine.Instance(ctx, run.RunID())
	require.NoError(t, err)
	require.Equal(t, execution.StatusSuspended, after.Status)
	require.Len(t, after.History, len(instance.History))

	// Resume is still the only way forward.
	require.NoError(t, engine.Resume(ctx, run.RunID(), &searchInput{Term: "approved"}))
	after, err = engine.Instance(ctx, run.RunID())
	require.NoError(t, err)
	require.Equal(t, execution.StatusCompleted, after.Status)
}

func TestEngine_RunLockReleasedOnSettle(t *testing.T) {
	engine, searcher := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Start(ctx))
	defer engine.Shutdown()

	run, err := engine.Execute(ctx, "search", &searchInput{Term: "go"})
	require.NoError(t, err)
	<-searcher.started
	close(searcher.gate)
	instance, err := run.Wait(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, execution.StatusCompleted, instance.Status)

	// The settled run's lock entry is released, keeping the map bounded.
	require.Eventually(t, func() bool {
		engine.lockMux.Lock()
		defer engine.lockMux.Unlock()
		_, ok := engine.runLocks[run.RunID()]
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestEngine_ExecuteUnknownWorkflow(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.Execute(context.Background(), "missing", nil)
	require.Error(t, err)
}
