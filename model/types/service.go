package types

import (
	"context"
	"reflect"
)

// Executable is a step body: invoked with the typed input, it returns a step
// result. Returning a plain error is equivalent to returning Fail(err).
type Executable func(ctx context.Context, input interface{}) (*Result, error)

// AsyncExecutable is a background task body launched by an Async result. Its
// returned result is applied to the run through the async completion path.
type AsyncExecutable func(ctx context.Context, args map[string]interface{}) (*Result, error)

// Signature describes a step method: its name and declared input/output
// types, used for build-time wiring and runtime input conversion.
type Signature struct {
	Name   string
	Input  reflect.Type
	Output reflect.Type
}

type Signatures []Signature

func (s Signatures) Lookup(name string) *Signature {
	for i := range s {
		sig := &s[i]
		if sig.Name == name {
			return sig
		}
	}
	return nil
}

// Service groups related step methods under a name; workflow declarations
// reference them as service.method pairs.
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}

// TaskProvider is implemented by services that also expose background tasks
// referenced by Async results.
type TaskProvider interface {
	Task(name string) (AsyncExecutable, error)
}
