// Package extension provides run-time registries that allow stepflow to work
// with user-defined Go types (step inputs, outputs and branch event
// payloads) and with the action services that implement step bodies.
//
// The registries are normally populated through the public APIs under the
// root stepflow package, therefore most applications do not need to import
// this package directly.
package extension
