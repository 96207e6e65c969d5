// Package rpc implements procedure registration and dispatch.
//
// A Registry collects (service, procedure) → handler bindings during startup
// and is frozen into an immutable Table by Build. A Dispatcher resolves each
// incoming Call against the Table and drives it through a fixed sequence of
// states:
//
//	RESOLVING → AUTHORIZING → BINDING → EXECUTING → COMPLETE
//
// Resolution and authorization are purely decisional: they read the Table
// and the caller's Session and touch nothing else. Parameter binding happens
// inside the handler body through package params; a parameter error returned
// by the handler is reported as PARAMETER. Any other error, or a panic, is
// classified by envelope.Wrap. Every path ends with exactly one envelope.
//
// The Table is never mutated after Build, so any number of goroutines may
// dispatch concurrently without locking.
package rpc
