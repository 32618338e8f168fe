package stepflow

import (
	"fmt"
	"time"

	"github.com/viant/stepflow/runtime/engine"
	"github.com/viant/stepflow/service/messaging/memory"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; the zero-value is useful - all nested
// fields inherit their package defaults.
type Config struct {
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Queue  QueueConfig  `json:"queue" yaml:"queue"`
}

// EngineConfig controls the worker pools and per-step limits.
type EngineConfig struct {
	Workers      int           `json:"workers" yaml:"workers"`
	AsyncWorkers int           `json:"asyncWorkers" yaml:"asyncWorkers"`
	StepTimeout  time.Duration `json:"stepTimeout" yaml:"stepTimeout"`
}

// QueueConfig controls the in-memory advance queue.
type QueueConfig struct {
	Buffer     int           `json:"buffer" yaml:"buffer"`
	MaxRetries int           `json:"maxRetries" yaml:"maxRetries"`
	RetryDelay time.Duration `json:"retryDelay" yaml:"retryDelay"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	engineDefaults := engine.DefaultConfig()
	queueDefaults := memory.DefaultConfig()
	return &Config{
		Engine: EngineConfig{
			Workers:      engineDefaults.WorkerCount,
			AsyncWorkers: engineDefaults.AsyncWorkerCount,
			StepTimeout:  engineDefaults.StepTimeout,
		},
		Queue: QueueConfig{
			Buffer:     queueDefaults.QueueBuffer,
			MaxRetries: queueDefaults.MaxRetries,
			RetryDelay: queueDefaults.RetryDelay,
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Engine.Workers <= 0 {
		return fmt.Errorf("engine.workers must be > 0")
	}
	if c.Engine.AsyncWorkers <= 0 {
		return fmt.Errorf("engine.asyncWorkers must be > 0")
	}
	if c.Engine.StepTimeout <= 0 {
		return fmt.Errorf("engine.stepTimeout must be > 0")
	}
	return nil
}

func (c *Config) engineConfig() engine.Config {
	return engine.Config{
		WorkerCount:      c.Engine.Workers,
		AsyncWorkerCount: c.Engine.AsyncWorkers,
		StepTimeout:      c.Engine.StepTimeout,
		Queue: memory.Config{
			QueueBuffer: c.Queue.Buffer,
			MaxRetries:  c.Queue.MaxRetries,
			RetryDelay:  c.Queue.RetryDelay,
		},
	}
}
