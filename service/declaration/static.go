package declaration

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/stepflow/model"
)

// Static is an in-memory declaration source populated programmatically; the
// location is the workflow id.
type Static struct {
	mu        sync.RWMutex
	workflows map[string]*model.Workflow
}

// NewStatic creates a static source with the supplied workflows.
func NewStatic(workflows ...*model.Workflow) *Static {
	ret := &Static{workflows: make(map[string]*model.Workflow)}
	for _, workflow := range workflows {
		ret.Add(workflow)
	}
	return ret
}

// Add registers or replaces a workflow declaration.
func (s *Static) Add(workflow *model.Workflow) {
	if workflow == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[workflow.ID] = workflow
}

// Workflow returns the declaration registered under the workflow id.
func (s *Static) Workflow(_ context.Context, location string) (*model.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workflow, ok := s.workflows[location]
	if !ok {
		return nil, fmt.Errorf("workflow %q not found", location)
	}
	return workflow, nil
}
