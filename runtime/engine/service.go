// Package engine drives workflow runs: a bounded worker pool consumes
// advance messages from a queue and moves each run through its graph one
// step at a time, serialized per run. Suspension parks a run durably,
// async offload hands a step to a background task whose completion is
// republished as an advance and applied exactly once.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/viant/stepflow/extension"
	"github.com/viant/stepflow/model"
	"github.com/viant/stepflow/model/graph"
	"github.com/viant/stepflow/progress"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
	"github.com/viant/stepflow/service/event"
	"github.com/viant/stepflow/service/messaging"
	"github.com/viant/stepflow/service/messaging/memory"
	"github.com/viant/stepflow/service/schema"
	"github.com/viant/structology/conv"
)

// Service is the workflow engine.
type Service struct {
	config Config

	instanceDAO   dao.Service[string, execution.Instance]
	suspensionDAO dao.Service[string, execution.Suspension]
	asyncDAO      dao.Service[string, execution.AsyncState]

	queue     messaging.Queue[advance]
	actions   *extension.Actions
	schema    *schema.Service
	tracker   *progress.Tracker
	events    *event.Service
	converter *conv.Converter

	graphs    map[string]*graph.Graph
	workflows map[string]*model.Workflow
	graphMux  sync.RWMutex

	runLocks map[string]*sync.Mutex
	lockMux  sync.Mutex

	asyncSem chan struct{}

	rootCtx    context.Context
	workers    []*worker
	workerWg   sync.WaitGroup
	shutdownCh chan struct{}
	started    bool
	startMux   sync.Mutex
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// Option customises the engine.
type Option func(*Service)

// WithConfig overrides the engine configuration.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithInstanceDAO sets the run instance repository.
func WithInstanceDAO(service dao.Service[string, execution.Instance]) Option {
	return func(s *Service) {
		s.instanceDAO = service
	}
}

// WithSuspensionDAO sets the suspension repository.
func WithSuspensionDAO(service dao.Service[string, execution.Suspension]) Option {
	return func(s *Service) {
		s.suspensionDAO = service
	}
}

// WithAsyncStateDAO sets the async step state repository.
func WithAsyncStateDAO(service dao.Service[string, execution.AsyncState]) Option {
	return func(s *Service) {
		s.asyncDAO = service
	}
}

// WithQueue sets the advance message queue.
func WithQueue(queue messaging.Queue[advance]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithEventService sets the lifecycle event service.
func WithEventService(events *event.Service) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithTracker sets the background task progress tracker.
func WithTracker(tracker *progress.Tracker) Option {
	return func(s *Service) {
		s.tracker = tracker
	}
}

// New creates an engine over the supplied action registry.
func New(actions *extension.Actions, options ...Option) (*Service, error) {
	if actions == nil {
		return nil, fmt.Errorf("actions registry is required")
	}
	converterOptions := conv.DefaultOptions()
	converterOptions.ClonePointerData = true
	converterOptions.IgnoreUnmapped = true
	converterOptions.AccessUnexported = true

	s := &Service{
		config:     DefaultConfig(),
		actions:    actions,
		schema:     schema.New(actions.Types()),
		converter:  conv.NewConverter(converterOptions),
		graphs:     make(map[string]*graph.Graph),
		workflows:  make(map[string]*model.Workflow),
		runLocks:   make(map[string]*sync.Mutex),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.instanceDAO == nil {
		return nil, fmt.Errorf("instance repository is required")
	}
	if s.suspensionDAO == nil {
		return nil, fmt.Errorf("suspension repository is required")
	}
	if s.asyncDAO == nil {
		return nil, fmt.Errorf("async state repository is required")
	}
	if s.queue == nil {
		s.queue = memory.NewQueue[advance](s.config.Queue)
	}
	if s.tracker == nil {
		s.tracker = progress.NewTracker(nil)
	}
	s.asyncSem = make(chan struct{}, s.config.AsyncWorkerCount)
	return s, nil
}

// Schema exposes the schema provider used for suspension input validation.
func (s *Service) Schema() *schema.Service {
	return s.schema
}

// Tracker exposes the background task progress tracker.
func (s *Service) Tracker() *progress.Tracker {
	return s.tracker
}

// Register validates a workflow declaration, builds its graph and makes it
// executable. Validation failure is fatal to registration.
func (s *Service) Register(workflow *model.Workflow) error {
	if workflow == nil {
		return fmt.Errorf("workflow cannot be nil")
	}
	g, err := workflow.Graph()
	if err != nil {
		return err
	}
	s.graphMux.Lock()
	defer s.graphMux.Unlock()
	s.graphs[workflow.ID] = g
	s.workflows[workflow.ID] = workflow
	return nil
}

// Workflow returns a registered workflow declaration.
func (s *Service) Workflow(id string) *model.Workflow {
	s.graphMux.RLock()
	defer s.graphMux.RUnlock()
	return s.workflows[id]
}

func (s *Service) graphOf(workflowID string) (*graph.Graph, error) {
	s.graphMux.RLock()
	defer s.graphMux.RUnlock()
	g, ok := s.graphs[workflowID]
	if !ok {
		return nil, fmt.Errorf("workflow %v not registered", workflowID)
	}
	return g, nil
}

// runLock returns the mutex serializing advancement, resume and cancel for
// a run.
func (s *Service) runLock(runID string) *sync.Mutex {
	s.lockMux.Lock()
	defer s.lockMux.Unlock()
	mux, ok := s.runLocks[runID]
	if !ok {
		mux = &sync.Mutex{}
		s.runLocks[runID] = mux
	}
	return mux
}

// pruneRunLock drops a settled run's lock entry so the map does not grow
// unbounded over the engine's lifetime.
func (s *Service) pruneRunLock(runID string) {
	s.lockMux.Lock()
	delete(s.runLocks, runID)
	s.lockMux.Unlock()
}

// Start launches the worker pool. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.startMux.Lock()
	defer s.startMux.Unlock()
	if s.started {
		return nil
	}
	s.rootCtx = ctx
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{id: i, service: s, ctx: workerCtx, cancelFn: cancel}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	s.started = true
	return nil
}

// Shutdown stops the worker pool and waits for in-flight advances to drain.
func (s *Service) Shutdown() {
	s.startMux.Lock()
	defer s.startMux.Unlock()
	if !s.started {
		return
	}
	close(s.shutdownCh)
	for _, w := range s.workers {
		w.cancelFn()
	}
	s.workerWg.Wait()
	s.workers = nil
	s.started = false
}

// run consumes advance messages until the worker context is cancelled.
func (w *worker) run() {
	defer w.service.workerWg.Done()
	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if msg == nil {
			continue
		}
		if pErr := w.service.processAdvance(w.ctx, msg.T()); pErr != nil {
			log.Printf("engine worker %d: %v", w.id, pErr)
			_ = msg.Nack(pErr)
			continue
		}
		_ = msg.Ack()
	}
}

// publish emits a lifecycle event carrying an instance snapshot. A missing
// event service makes it a no-op.
func (s *Service) publish(ctx context.Context, eventType string, instance *execution.Instance, stepID string) {
	if s.events == nil || instance == nil {
		return
	}
	publisher, err := event.PublisherOf[*execution.Instance](s.events)
	if err != nil {
		return
	}
	eventContext := &event.Context{
		RunID:      instance.ID,
		WorkflowID: instance.WorkflowID,
		StepID:     stepID,
		EventType:  eventType,
	}
	_ = publisher.Publish(ctx, event.NewEvent(eventContext, instance.Clone()))
}
