package memory

import (
	"context"

	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
	"github.com/viant/stepflow/service/dao/criteria"
	"github.com/viant/stepflow/service/dao/store"
)

// Service stores in-flight async step states keyed by runId/asyncId. The
// repository is the authoritative gate for applying a background task's
// result: a completion whose state has been removed is discarded.
type Service struct {
	*store.MemoryStore[string, execution.AsyncState]
}

var _ dao.Service[string, execution.AsyncState] = (*Service)(nil)

// List returns async states, optionally narrowed to one run via the RunID
// parameter.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.AsyncState, error) {
	all, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*execution.AsyncState, 0, len(all))
	for _, state := range all {
		if !criteria.FilterByKeyPrefix(state.Key(), parameters) {
			continue
		}
		out = append(out, state)
	}
	return out, nil
}

func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, execution.AsyncState](func(s *execution.AsyncState) string {
			return s.Key()
		}),
	}
}
