package graph

import (
	"fmt"

	"github.com/viant/stepflow/model/condition"
	"github.com/viant/stepflow/model/types"
)

type (
	// Node is a validated step inside a Graph, with its condition compiled
	// and its position in declaration order recorded.
	Node struct {
		*Step
		cond    *condition.Expr
		ordinal int
	}

	// Graph is the immutable description of one workflow version. It is
	// built once by the Builder, never mutated afterwards and shared across
	// concurrent runs.
	Graph struct {
		ID          string
		Version     string
		EntryStepID string
		InputType   string
		OutputType  string

		nodes         map[string]*Node
		order         []string
		branchTargets map[string]string // event kind -> step id
	}
)

// Node returns a node by step id.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns step ids in declaration order.
func (g *Graph) Nodes() []string {
	return g.order
}

// BranchTarget returns the step id accepting the supplied event kind.
func (g *Graph) BranchTarget(kind string) (string, bool) {
	id, ok := g.branchTargets[kind]
	return id, ok
}

// Next resolves the step following node for the supplied result, using the
// runtime precedence: branch-kind table for Branch results, then explicit
// next id, then condition, then declaration-order fallback. An empty id with
// nil error means the node is terminal for this run.
func (g *Graph) Next(node *Node, result *types.Result, state map[string]interface{}) (string, error) {
	if result != nil && result.Kind == types.KindBranch {
		target, ok := g.branchTargets[result.EventKind]
		if !ok {
			return "", fmt.Errorf("no node accepts branch event kind %q", result.EventKind)
		}
		return target, nil
	}
	if len(node.Step.Next) > 0 {
		return node.Step.Next[0], nil
	}
	if node.cond != nil {
		outcome, err := node.cond.Evaluate(state)
		if err != nil {
			return "", fmt.Errorf("failed to evaluate condition on step %v: %w", node.ID, err)
		}
		if outcome {
			return node.OnTrue, nil
		}
		return node.OnFalse, nil
	}
	// Declaration-order fallback: the single immediate successor, if any.
	if node.ordinal+1 < len(g.order) {
		return g.order[node.ordinal+1], nil
	}
	return "", nil
}
