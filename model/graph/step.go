package graph

type (
	// Action references the step body: a method on a registered service.
	Action struct {
		Service string `json:"service,omitempty" yaml:"service,omitempty"`
		Method  string `json:"method,omitempty" yaml:"method,omitempty"`
	}

	// Step is a single step declaration as supplied by a declaration source.
	// The builder turns an ordered list of these into a validated Graph.
	Step struct {
		ID         string  `json:"id,omitempty" yaml:"id,omitempty"`
		Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
		Entry      bool    `json:"entry,omitempty" yaml:"entry,omitempty"`
		InputType  string  `json:"inputType,omitempty" yaml:"inputType,omitempty"`
		OutputType string  `json:"outputType,omitempty" yaml:"outputType,omitempty"`
		Action     *Action `json:"action,omitempty" yaml:"action,omitempty"`

		// Next holds explicit next-step ids; at most one may be
		// unconditional.
		Next []string `json:"next,omitempty" yaml:"next,omitempty"`

		// Emits lists branch event kinds this step may return; every kind
		// must have exactly one accepting node in the graph.
		Emits []string `json:"emits,omitempty" yaml:"emits,omitempty"`

		// NextKinds lists branch event kinds this node accepts as a target.
		NextKinds []string `json:"nextKinds,omitempty" yaml:"nextKinds,omitempty"`

		// When/OnTrue/OnFalse define a conditional transition evaluated
		// against the workflow context.
		When    string `json:"when,omitempty" yaml:"when,omitempty"`
		OnTrue  string `json:"onTrue,omitempty" yaml:"onTrue,omitempty"`
		OnFalse string `json:"onFalse,omitempty" yaml:"onFalse,omitempty"`

		Async   bool `json:"async,omitempty" yaml:"async,omitempty"`
		Suspend bool `json:"suspend,omitempty" yaml:"suspend,omitempty"`
	}
)

// WithAction sets the step body reference.
func (s *Step) WithAction(service, method string) *Step {
	s.Action = &Action{Service: service, Method: method}
	return s
}

// WithNext appends an explicit next-step id.
func (s *Step) WithNext(stepID string) *Step {
	s.Next = append(s.Next, stepID)
	return s
}

// WithEmits declares branch event kinds the step may emit.
func (s *Step) WithEmits(kinds ...string) *Step {
	s.Emits = append(s.Emits, kinds...)
	return s
}

// WithNextKinds declares branch event kinds this node accepts.
func (s *Step) WithNextKinds(kinds ...string) *Step {
	s.NextKinds = append(s.NextKinds, kinds...)
	return s
}

// WithCondition sets a conditional transition.
func (s *Step) WithCondition(when, onTrue, onFalse string) *Step {
	s.When = when
	s.OnTrue = onTrue
	s.OnFalse = onFalse
	return s
}

// WithAsync marks the step as an async offload point.
func (s *Step) WithAsync(async bool) *Step {
	s.Async = async
	return s
}

// Clone creates a deep copy of the step declaration.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Action != nil {
		action := *s.Action
		clone.Action = &action
	}
	clone.Next = append([]string(nil), s.Next...)
	clone.Emits = append([]string(nil), s.Emits...)
	clone.NextKinds = append([]string(nil), s.NextKinds...)
	return &clone
}
