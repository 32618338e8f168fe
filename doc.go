// Package stepflow provides a graph-based workflow step orchestrator.
//
// Workflows are declared as ordered step lists (programmatically or in
// YAML), validated into an immutable graph and executed by a queue-driven
// engine. Each step returns one of six results - continue, suspend, finish,
// fail, branch or async - and the engine advances the run accordingly:
// suspension parks the run durably until matching input arrives, async
// offloads the step to a background task whose completion is applied
// exactly once.
//
// End-users typically interact with the engine via the Service façade
// exposed by the root package:
//
//	srv, _ := stepflow.New(stepflow.WithExtensionServices(chat.New()))
//	rt := srv.Runtime()
//	_ = rt.Register(workflow)
//	_ = rt.Start(ctx)
//	run, _ := rt.Execute(ctx, "chat", trigger)
//	instance, _ := run.Wait(ctx, time.Minute)
//
// See the individual sub-packages for details.
package stepflow
