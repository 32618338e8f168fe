package engine

import (
	"time"

	"github.com/viant/stepflow/service/messaging/memory"
)

// Config controls the engine's worker pools and per-step limits.
type Config struct {
	// WorkerCount is the number of workers consuming advance messages.
	WorkerCount int

	// AsyncWorkerCount bounds concurrently running background tasks.
	AsyncWorkerCount int

	// StepTimeout is the per-invocation limit for a step body.
	StepTimeout time.Duration

	// Queue configures the in-memory advance queue.
	Queue memory.Config
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount:      5,
		AsyncWorkerCount: 3,
		StepTimeout:      30 * time.Second,
		Queue:            memory.DefaultConfig(),
	}
}
