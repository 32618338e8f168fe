package stepflow

import (
	"github.com/viant/stepflow/extension"
	"github.com/viant/stepflow/model/types"
	"github.com/viant/stepflow/progress"
	"github.com/viant/stepflow/runtime/engine"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
	amemory "github.com/viant/stepflow/service/dao/asyncstate/memory"
	imemory "github.com/viant/stepflow/service/dao/instance/memory"
	smemory "github.com/viant/stepflow/service/dao/suspension/memory"
	"github.com/viant/stepflow/service/declaration"
	"github.com/viant/stepflow/service/event"

	"github.com/viant/x"
)

// Service assembles the workflow engine with its repositories, registries
// and declaration sources.
type Service struct {
	runtime           *Runtime
	config            *Config
	actions           *extension.Actions
	extensionTypes    []*x.Type
	extensionServices []types.Service
	eventService      *event.Service
	tracker           *progress.Tracker
	declarationSource declaration.Source
	declarationsURL   string

	instanceDAO   dao.Service[string, execution.Instance]
	suspensionDAO dao.Service[string, execution.Suspension]
	asyncDAO      dao.Service[string, execution.AsyncState]
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	if err := s.config.Validate(); err != nil {
		return err
	}
	s.actions = extension.NewActions(s.extensionTypes...)
	for _, service := range s.extensionServices {
		s.actions.Register(service)
	}
	engineService, err := engine.New(s.actions,
		engine.WithConfig(s.config.engineConfig()),
		engine.WithInstanceDAO(s.instanceDAO),
		engine.WithSuspensionDAO(s.suspensionDAO),
		engine.WithAsyncStateDAO(s.asyncDAO),
		engine.WithEventService(s.eventService),
		engine.WithTracker(s.tracker),
	)
	if err != nil {
		return err
	}
	s.runtime.engine = engineService
	s.runtime.source = s.declarationSource
	s.runtime.instanceDAO = s.instanceDAO
	return nil
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.instanceDAO == nil {
		s.instanceDAO = imemory.New()
	}
	if s.suspensionDAO == nil {
		s.suspensionDAO = smemory.New()
	}
	if s.asyncDAO == nil {
		s.asyncDAO = amemory.New()
	}
	if s.tracker == nil {
		s.tracker = progress.NewTracker(nil)
	}
	if s.declarationSource == nil {
		if s.declarationsURL != "" {
			s.declarationSource = declaration.NewYAML(s.declarationsURL)
		} else {
			s.declarationSource = declaration.NewStatic()
		}
	}
}

// RegisterExtensionTypes registers Go types with the engine's type registry.
func (s *Service) RegisterExtensionTypes(types ...*x.Type) {
	for i := range types {
		s.actions.Types().Register(types[i])
	}
}

// RegisterExtensionServices registers step action services.
func (s *Service) RegisterExtensionServices(services ...types.Service) {
	for i := range services {
		s.actions.Register(services[i])
	}
}

// Actions returns the action service registry.
func (s *Service) Actions() *extension.Actions {
	return s.actions
}

// Runtime returns the run-facing API.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// New creates a service with the supplied options; memory-backed defaults
// are installed for every dependency left unset.
func New(options ...Option) (*Service, error) {
	ret := &Service{runtime: &Runtime{}}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
