package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/viant/stepflow/internal/clock"
	"github.com/viant/stepflow/model/graph"
	"github.com/viant/stepflow/model/types"
	"github.com/viant/stepflow/runtime/execution"
	"github.com/viant/stepflow/service/event"
	"github.com/viant/stepflow/tracing"
)

// invoke runs one step body and returns its result. Failures of any origin
// (unresolved action, input type mismatch, timeout, panic, returned error)
// come back as a Fail result; invoke never returns an error that would crash
// the loop. The audit record is appended here: input always, output only
// when the invocation did not fail.
func (s *Service) invoke(ctx context.Context, instance *execution.Instance, node *graph.Node, input interface{}) *types.Result {
	started := clock.Now()
	ctx, span := tracing.StartSpan(ctx, "step.run "+node.ID, "INTERNAL")
	span.WithAttributes(map[string]string{"run.id": instance.ID, "step.id": node.ID})

	typedInput, result := s.typedInput(node, input)
	if result == nil {
		result = s.execute(ctx, node, typedInput)
	}

	record := &execution.StepRecord{
		StepID:     node.ID,
		Input:      typedInput,
		Timestamp:  started,
		DurationMs: clock.Now().Sub(started).Milliseconds(),
	}
	if result.Kind != types.KindFail {
		record.Output = result.Data
	}
	instance.AppendRecord(record)

	tracing.EndSpan(span, result.Err)
	s.publish(ctx, event.TypeStepExecuted, instance, node.ID)
	return result
}

// typedInput converts the raw step input to the declared input type. The
// declaration's registry type name wins over the method signature. A failed
// conversion is reported as Fail(TypeMismatchError); the second return is
// non-nil only on failure.
func (s *Service) typedInput(node *graph.Node, input interface{}) (interface{}, *types.Result) {
	targetType := s.inputType(node)
	if targetType == nil || input == nil {
		return input, nil
	}
	if reflect.TypeOf(input) == targetType {
		return input, nil
	}
	typed, err := s.typedValue(targetType, input)
	if err != nil {
		return input, types.Fail(&types.TypeMismatchError{
			Expected: targetType.String(),
			Actual:   fmt.Sprintf("%T", input),
			Cause:    err,
		})
	}
	return typed, nil
}

func (s *Service) inputType(node *graph.Node) reflect.Type {
	if node.InputType != "" {
		if rType := s.actions.Types().TypeOf(node.InputType); rType != nil {
			return rType
		}
	}
	if node.Action == nil {
		return nil
	}
	service := s.actions.Lookup(node.Action.Service)
	if service == nil {
		return nil
	}
	if signature := service.Methods().Lookup(node.Action.Method); signature != nil {
		return signature.Input
	}
	return nil
}

// typedValue converts a value to the supplied type through the converter.
func (s *Service) typedValue(rType reflect.Type, value interface{}) (interface{}, error) {
	instance := newInstancePtr(rType)
	err := s.converter.Convert(value, instance)
	if rType.Kind() == reflect.Slice {
		instance = reflect.ValueOf(instance).Elem().Interface()
	}
	return instance, err
}

func newInstancePtr(t reflect.Type) interface{} {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}

// execute resolves and runs the action body under the per-step timeout,
// recovering panics. A step with no action passes its input through.
func (s *Service) execute(ctx context.Context, node *graph.Node, input interface{}) *types.Result {
	if node.Action == nil {
		return types.Continue(input)
	}
	service := s.actions.Lookup(node.Action.Service)
	if service == nil {
		return types.Fail(&types.StepExecutionError{
			StepID: node.ID,
			Cause:  fmt.Errorf("service %v not found", node.Action.Service),
		})
	}
	method, err := service.Method(node.Action.Method)
	if err != nil {
		return types.Fail(&types.StepExecutionError{StepID: node.ID, Cause: err})
	}

	timeout := s.config.StepTimeout
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *types.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &types.StepExecutionError{
					StepID: node.ID,
					Cause:  fmt.Errorf("panic: %v", r),
				}}
			}
		}()
		result, methodErr := method(stepCtx, input)
		done <- outcome{result: result, err: methodErr}
	}()

	select {
	case <-stepCtx.Done():
		if ctx.Err() != nil {
			return types.Fail(&types.StepExecutionError{StepID: node.ID, Cause: ctx.Err()})
		}
		return types.Fail(&types.StepTimeoutError{StepID: node.ID, Timeout: timeout})
	case out := <-done:
		return normalize(node.ID, out.result, out.err)
	}
}

// normalize folds a returned error into Fail and guards against a nil
// result, so that the loop only ever dispatches on a populated kind.
func normalize(stepID string, result *types.Result, err error) *types.Result {
	if err != nil {
		switch err.(type) {
		case *types.StepExecutionError, *types.StepTimeoutError, *types.TypeMismatchError:
			return types.Fail(err)
		}
		return types.Fail(&types.StepExecutionError{StepID: stepID, Cause: err})
	}
	if result == nil {
		return types.Continue(nil)
	}
	if result.Kind == types.KindFail && result.Err == nil {
		result.Err = &types.StepExecutionError{StepID: stepID, Cause: fmt.Errorf("step failed")}
	}
	return result
}
