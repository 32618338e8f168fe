package model

import (
	"github.com/viant/stepflow/model/graph"
)

type (
	// Source describes where a workflow definition was loaded from.
	Source struct {
		URL string `json:"url,omitempty" yaml:"url,omitempty"`
	}

	// Workflow is the declaration document for one workflow version: an
	// ordered list of step declarations plus overall input/output types.
	// It is what declaration sources produce and what the graph builder
	// consumes.
	Workflow struct {
		ID      string        `json:"id,omitempty" yaml:"id,omitempty"`
		Version string        `json:"version,omitempty" yaml:"version,omitempty"`
		Input   string        `json:"input,omitempty" yaml:"input,omitempty"`
		Output  string        `json:"output,omitempty" yaml:"output,omitempty"`
		Steps   []*graph.Step `json:"steps,omitempty" yaml:"steps,omitempty"`
		Source  *Source       `json:"source,omitempty" yaml:"source,omitempty"`
	}
)

// NewWorkflow creates an empty workflow declaration.
func NewWorkflow(id, version string) *Workflow {
	return &Workflow{ID: id, Version: version}
}

// AddStep appends a step declaration and returns it for fluent setup.
func (w *Workflow) AddStep(id string) *graph.Step {
	step := &graph.Step{ID: id, Name: id}
	w.Steps = append(w.Steps, step)
	return step
}

// Graph validates the declaration and builds the immutable graph.
func (w *Workflow) Graph() (*graph.Graph, error) {
	return graph.NewBuilder().Build(w.ID, w.Version, w.Input, w.Output, w.Steps)
}
