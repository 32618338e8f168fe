package execution

import (
	"sync"
)

// Session is the per-run workflow context: trigger data plus step outputs in
// invocation order. It is exclusively owned by one in-flight execution,
// mutated only by the step currently executing, and rehydrated (not
// recreated) on resume.
type Session struct {
	RunID         string                 `json:"runId"`
	TriggerData   interface{}            `json:"triggerData,omitempty"`
	CurrentStepID string                 `json:"currentStepId,omitempty"`
	Outputs       map[string]interface{} `json:"outputs,omitempty"`
	Order         []string               `json:"order,omitempty"`
	mu            sync.RWMutex
}

// NewSession creates a session for a new run.
func NewSession(runID string, trigger interface{}) *Session {
	return &Session{
		RunID:       runID,
		TriggerData: trigger,
		Outputs:     make(map[string]interface{}),
	}
}

// Set records a step output under its key, preserving first-set order.
func (s *Session) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Outputs == nil {
		s.Outputs = make(map[string]interface{})
	}
	if _, exists := s.Outputs[key]; !exists {
		s.Order = append(s.Order, key)
	}
	s.Outputs[key] = value
}

// Get retrieves a step output.
func (s *Session) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.Outputs[key]
	return value, ok
}

// Keys returns output keys in first-set order.
func (s *Session) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.Order...)
}

// State returns the variable view used by condition evaluation: every step
// output keyed by step id, plus the trigger data under "trigger".
func (s *Session) State() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.Outputs)+1)
	for k, v := range s.Outputs {
		out[k] = v
	}
	out["trigger"] = s.TriggerData
	return out
}

// Clone creates a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		RunID:         s.RunID,
		TriggerData:   s.TriggerData,
		CurrentStepID: s.CurrentStepID,
		Outputs:       make(map[string]interface{}, len(s.Outputs)),
		Order:         append([]string(nil), s.Order...),
	}
	for k, v := range s.Outputs {
		clone.Outputs[k] = v
	}
	return clone
}
