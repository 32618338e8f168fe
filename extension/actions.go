package extension

import (
	"sync"

	"github.com/viant/stepflow/model/types"
	"github.com/viant/x"
)

// DataTypeIniter lets a service register the data types it works with when
// it is added to the registry.
type DataTypeIniter interface {
	InitTypes(types *Types)
}

// Actions is the registry of step action services. Workflow declarations
// reference step bodies as service.method pairs resolved here.
type Actions struct {
	types    *Types
	services map[string]types.Service
	mux      sync.RWMutex
}

func (s *Actions) Types() *Types {
	return s.types
}

// Lookup returns a service by name.
func (s *Actions) Lookup(name string) types.Service {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.services[name]
}

// LookupTask resolves a background task by service name and task name; the
// service must implement types.TaskProvider.
func (s *Actions) LookupTask(service, task string) (types.AsyncExecutable, error) {
	aService := s.Lookup(service)
	if aService == nil {
		return nil, types.NewTaskNotFoundError(service + "." + task)
	}
	provider, ok := aService.(types.TaskProvider)
	if !ok {
		return nil, types.NewTaskNotFoundError(service + "." + task)
	}
	return provider.Task(task)
}

// Register registers a service.
func (s *Actions) Register(service types.Service) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if typer, ok := service.(DataTypeIniter); ok {
		typer.InitTypes(s.types)
	}
	s.services[service.Name()] = service
}

// NewActions creates a new action service registry.
func NewActions(goTypes ...*x.Type) *Actions {
	ret := &Actions{
		types:    NewTypes(),
		services: make(map[string]types.Service),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
