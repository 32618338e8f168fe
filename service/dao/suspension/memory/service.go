package memory

import (
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
	"github.com/viant/stepflow/service/dao/store"
)

// Service stores suspension payloads keyed by run id.
type Service struct {
	*store.MemoryStore[string, execution.Suspension]
}

var _ dao.Service[string, execution.Suspension] = (*Service)(nil)

func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, execution.Suspension](func(s *execution.Suspension) string {
			return s.RunID
		}),
	}
}
