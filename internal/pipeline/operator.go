// Package pipeline implements the operator graph and its scheduler: a
// small, explicit replacement for the duck-typed Holoscan operator
// framework the original pipeline is built on. Operators implement a
// {setup, initialize, compute} interface with typed ports left implicit in
// Go (ports are internal/queue FIFOs wired by whoever constructs the graph);
// fan-out edges such as channelizer-to-N-chains are explicit in how the
// caller wires queues between operators, not in framework magic.
package pipeline

import "context"

// Operator is one node in the graph. Setup is called once to validate
// configuration, Initialize once more to allocate per-operator state (FIR
// taps, shift tables), and Compute repeatedly — once per scheduler tick —
// to do one unit of work.
//
// Compute reports whether it produced output this tick (progressed) so the
// scheduler's deadlock watchdog can distinguish "legitimately idle,
// upstream has no data yet" from "stuck". Errors are logged by the caller
// and downgrade only the current tick; they never stop the graph.
type Operator interface {
	Name() string
	Setup() error
	Initialize() error
	Compute(ctx context.Context) (progressed bool, err error)
}
