package graph

import (
	"fmt"

	"github.com/viant/stepflow/model/condition"
	"github.com/viant/stepflow/model/types"
)

// Builder turns an ordered list of step declarations into a validated,
// immutable Graph. All violations are collected and reported together as a
// single GraphValidationError.
type Builder struct{}

// NewBuilder creates a graph builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build validates the declarations and assembles the graph.
func (b *Builder) Build(id, version string, inputType, outputType string, steps []*Step) (*Graph, error) {
	var violations []string
	if len(steps) == 0 {
		return nil, &types.GraphValidationError{Workflow: id, Violations: []string{"no steps declared"}}
	}

	ret := &Graph{
		ID:            id,
		Version:       version,
		InputType:     inputType,
		OutputType:    outputType,
		nodes:         make(map[string]*Node, len(steps)),
		order:         make([]string, 0, len(steps)),
		branchTargets: make(map[string]string),
	}

	for i, step := range steps {
		if step.ID == "" {
			violations = append(violations, fmt.Sprintf("step #%d has no id", i))
			continue
		}
		if _, exists := ret.nodes[step.ID]; exists {
			violations = append(violations, fmt.Sprintf("duplicate step id %q", step.ID))
			continue
		}
		node := &Node{Step: step.Clone(), ordinal: i}
		ret.nodes[step.ID] = node
		ret.order = append(ret.order, step.ID)
		if step.Entry {
			if ret.EntryStepID != "" {
				violations = append(violations, fmt.Sprintf("multiple entry steps: %q and %q", ret.EntryStepID, step.ID))
			} else {
				ret.EntryStepID = step.ID
			}
		}
	}
	if ret.EntryStepID == "" && len(ret.order) > 0 {
		ret.EntryStepID = ret.order[0]
	}

	// Branch target table: each accepted event kind maps to exactly one node.
	for _, id := range ret.order {
		node := ret.nodes[id]
		for _, kind := range node.NextKinds {
			if prev, exists := ret.branchTargets[kind]; exists {
				violations = append(violations, fmt.Sprintf("branch event kind %q accepted by both %q and %q", kind, prev, id))
				continue
			}
			ret.branchTargets[kind] = id
		}
	}

	for _, stepID := range ret.order {
		node := ret.nodes[stepID]
		violations = append(violations, b.validateNode(ret, node)...)
	}

	violations = append(violations, b.unreachable(ret)...)
	if len(violations) > 0 {
		return nil, &types.GraphValidationError{Workflow: id, Violations: violations}
	}
	return ret, nil
}

func (b *Builder) validateNode(g *Graph, node *Node) []string {
	var violations []string
	if len(node.Step.Next) > 1 {
		violations = append(violations, fmt.Sprintf("step %q declares %d unconditional next steps, at most one allowed", node.ID, len(node.Step.Next)))
	}
	for _, next := range node.Step.Next {
		if g.nodes[next] == nil {
			violations = append(violations, fmt.Sprintf("step %q references unknown next step %q", node.ID, next))
		}
	}
	if node.When != "" {
		if node.OnTrue == "" && node.OnFalse == "" {
			violations = append(violations, fmt.Sprintf("conditional step %q omits both branches", node.ID))
		}
		for _, branch := range []string{node.OnTrue, node.OnFalse} {
			if branch != "" && g.nodes[branch] == nil {
				violations = append(violations, fmt.Sprintf("step %q references unknown branch target %q", node.ID, branch))
			}
		}
		expr, err := condition.Parse(node.When)
		if err != nil {
			violations = append(violations, fmt.Sprintf("step %q has invalid condition %q: %v", node.ID, node.When, err))
		} else {
			node.cond = expr
		}
	} else if node.OnTrue != "" || node.OnFalse != "" {
		violations = append(violations, fmt.Sprintf("step %q declares branches without a condition", node.ID))
	}
	for _, kind := range node.Emits {
		if _, ok := g.branchTargets[kind]; !ok {
			violations = append(violations, fmt.Sprintf("step %q emits branch event kind %q with no accepting node", node.ID, kind))
		}
	}
	return violations
}

// unreachable walks every static edge from the entry step and reports nodes
// the walk never visits.
func (b *Builder) unreachable(g *Graph) []string {
	visited := make(map[string]bool, len(g.order))
	stack := []string{g.EntryStepID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == "" || visited[id] {
			continue
		}
		visited[id] = true
		node := g.nodes[id]
		if node == nil {
			continue
		}
		next := node.Step.Next
		if len(next) == 0 && node.When == "" && node.ordinal+1 < len(g.order) {
			next = []string{g.order[node.ordinal+1]}
		}
		stack = append(stack, next...)
		stack = append(stack, node.OnTrue, node.OnFalse)
		for _, kind := range node.Emits {
			if target, ok := g.branchTargets[kind]; ok {
				stack = append(stack, target)
			}
		}
	}
	var violations []string
	for _, id := range g.order {
		if !visited[id] {
			violations = append(violations, fmt.Sprintf("step %q is unreachable from entry %q", id, g.EntryStepID))
		}
	}
	return violations
}
