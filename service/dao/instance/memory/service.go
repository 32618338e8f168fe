package memory

import (
	"context"
	"sync"

	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
	"github.com/viant/stepflow/service/dao/criteria"
)

// Service implements an in-memory, thread-safe workflow instance store.
type Service struct {
	instances map[string]*execution.Instance
	mux       sync.RWMutex
}

var _ dao.Service[string, execution.Instance] = (*Service)(nil)

func (s *Service) Save(_ context.Context, instance *execution.Instance) error {
	if instance == nil {
		return dao.ErrNilEntity
	}
	if instance.ID == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.instances[instance.ID] = instance
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*execution.Instance, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.RLock()
	instance, ok := s.instances[id]
	s.mux.RUnlock()
	if !ok {
		return nil, dao.ErrNotFound
	}
	return instance, nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.instances[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.instances, id)
	return nil
}

func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*execution.Instance, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make([]*execution.Instance, 0, len(s.instances))
	for _, instance := range s.instances {
		if !criteria.FilterByStatus(instance.GetStatus(), parameters) {
			continue
		}
		out = append(out, instance)
	}
	return out, nil
}

func New() *Service {
	return &Service{instances: map[string]*execution.Instance{}}
}
