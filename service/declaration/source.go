// Package declaration supplies workflow step declarations to the graph
// builder. Any implementation that returns a plain declaration document
// satisfies the contract: static registration, YAML definitions or generated
// code — no runtime introspection is required.
package declaration

import (
	"context"

	"github.com/viant/stepflow/model"
)

// Source produces workflow declaration documents by location.
type Source interface {
	// Workflow returns the declaration stored under the supplied location.
	Workflow(ctx context.Context, location string) (*model.Workflow, error)
}
