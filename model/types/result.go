package types

import "time"

// ResultKind discriminates the step result variants. The engine loop
// dispatches on the kind only; payload fields are interpreted per kind.
type ResultKind string

const (
	KindContinue ResultKind = "continue"
	KindSuspend  ResultKind = "suspend"
	KindFinish   ResultKind = "finish"
	KindFail     ResultKind = "fail"
	KindBranch   ResultKind = "branch"
	KindAsync    ResultKind = "async"
)

// Result represents the outcome of a single step invocation. It is a tagged
// union: only the fields relevant to Kind are populated. Steps build results
// through the constructor helpers below rather than struct literals.
type Result struct {
	Kind ResultKind `json:"kind"`

	// Continue, Finish, Branch payload; for Async the immediate value
	// returned to the caller while the background task keeps running.
	Data interface{} `json:"data,omitempty"`

	// Branch event kind tag, resolved against node NextKinds.
	EventKind string `json:"eventKind,omitempty"`

	// Suspend fields.
	Prompt            string `json:"prompt,omitempty"`
	ExpectedInputType string `json:"expectedInputType,omitempty"`

	// Async fields.
	AsyncID           string                 `json:"asyncId,omitempty"`
	EstimatedDuration time.Duration          `json:"estimatedDuration,omitempty"`
	TaskArgs          map[string]interface{} `json:"taskArgs,omitempty"`

	// Fail cause.
	Err error `json:"-"`
}

// Continue advances the run to the next step; data becomes the next step's
// input and is recorded under the current step's key.
func Continue(data interface{}) *Result {
	return &Result{Kind: KindContinue, Data: data}
}

// Finish terminates the run successfully with the supplied final output.
func Finish(output interface{}) *Result {
	return &Result{Kind: KindFinish, Data: output}
}

// Fail terminates the run with an error.
func Fail(err error) *Result {
	return &Result{Kind: KindFail, Err: err}
}

// Suspend durably parks the run until resume supplies an input of the
// expected registered type.
func Suspend(prompt, expectedInputType string) *Result {
	return &Result{Kind: KindSuspend, Prompt: prompt, ExpectedInputType: expectedInputType}
}

// Branch routes dynamically: eventKind is matched against nodes declaring it
// in their NextKinds; event becomes the matched node's input.
func Branch(eventKind string, event interface{}) *Result {
	return &Result{Kind: KindBranch, EventKind: eventKind, Data: event}
}

// Async hands the step's work to the background task registered under
// asyncID; immediate is returned to the caller right away as a non-terminal
// response.
func Async(asyncID string, estimated time.Duration, taskArgs map[string]interface{}, immediate interface{}) *Result {
	return &Result{
		Kind:              KindAsync,
		AsyncID:           asyncID,
		EstimatedDuration: estimated,
		TaskArgs:          taskArgs,
		Data:              immediate,
	}
}

// IsTerminal reports whether the result ends the run.
func (r *Result) IsTerminal() bool {
	return r != nil && (r.Kind == KindFinish || r.Kind == KindFail)
}
