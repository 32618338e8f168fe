package stepflow

import (
	"github.com/viant/stepflow/model/types"
	"github.com/viant/stepflow/progress"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/dao"
	"github.com/viant/stepflow/service/declaration"
	"github.com/viant/stepflow/service/event"
	"github.com/viant/stepflow/tracing"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service.
type Option func(s *Service)

// WithConfig overrides the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithExtensionTypes sets the extension types.
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = types
	}
}

// WithExtensionServices sets the step action services.
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = services
	}
}

// WithEventService sets the lifecycle event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithTracker sets the background task progress tracker.
func WithTracker(tracker *progress.Tracker) Option {
	return func(s *Service) {
		s.tracker = tracker
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

// WithDeclarationSource sets the workflow declaration source.
func WithDeclarationSource(source declaration.Source) Option {
	return func(s *Service) {
		s.declarationSource = source
	}
}

// WithDeclarationsURL installs a YAML declaration source rooted at the
// supplied base URL.
func WithDeclarationsURL(baseURL string) Option {
	return func(s *Service) {
		s.declarationsURL = baseURL
	}
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file
// path. The first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter (OTLP, Jaeger, Zipkin, ...). The first successful
// initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
