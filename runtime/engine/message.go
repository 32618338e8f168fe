package engine

import (
	"github.com/viant/stepflow/model/types"
)

type (
	// advance instructs a worker to move a run forward. A regular advance
	// enters the loop at StepID with Input; an advance carrying a
	// completion applies a finished background task instead.
	advance struct {
		RunID  string
		StepID string
		Input  interface{}

		Completion *completion
	}

	// completion is the outcome of a background task, republished onto the
	// advance queue. It is applied only while the matching async state is
	// still registered; cancellation removes the state first, so a late
	// completion is discarded.
	completion struct {
		AsyncID string
		Result  *types.Result
		Err     error
	}
)
