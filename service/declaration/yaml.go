package declaration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/stepflow/model"
	"gopkg.in/yaml.v3"
)

// YAML loads workflow declarations from YAML documents via the abstract file
// system; decoded documents are cached per location until refreshed.
type YAML struct {
	fs      afs.Service
	baseURL string
	mu      sync.RWMutex
	cache   map[string]*model.Workflow
}

// NewYAML creates a YAML declaration source. baseURL may be empty, in which
// case locations are used verbatim.
func NewYAML(baseURL string) *YAML {
	return &YAML{
		fs:      afs.New(),
		baseURL: baseURL,
		cache:   make(map[string]*model.Workflow),
	}
}

// Workflow loads and caches the declaration at the supplied location.
func (s *YAML) Workflow(ctx context.Context, location string) (*model.Workflow, error) {
	s.mu.RLock()
	cached, ok := s.cache[location]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	URL := location
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	if s.baseURL != "" {
		URL = url.Join(s.baseURL, URL)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow from %s: %w", URL, err)
	}
	workflow, err := s.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow from %s: %w", URL, err)
	}
	if workflow.ID == "" {
		workflow.ID = workflowNameFromLocation(location)
	}
	workflow.Source = &model.Source{URL: URL}

	s.mu.Lock()
	s.cache[location] = workflow
	s.mu.Unlock()
	return workflow, nil
}

// DecodeYAML decodes a workflow declaration document.
func (s *YAML) DecodeYAML(encoded []byte) (*model.Workflow, error) {
	workflow := &model.Workflow{}
	if err := yaml.Unmarshal(encoded, workflow); err != nil {
		return nil, err
	}
	return workflow, nil
}

// Refresh discards the cached copy of the declaration at the given location;
// the next Workflow call reloads it from storage.
func (s *YAML) Refresh(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, location)
}

// Upsert stores a decoded declaration under the specified location for
// immediate availability.
func (s *YAML) Upsert(location string, workflow *model.Workflow) {
	if workflow == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[location] = workflow
}

func workflowNameFromLocation(location string) string {
	base := filepath.Base(location)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
