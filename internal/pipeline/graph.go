package pipeline

// Graph is an explicit collection of operators. It has no edge bookkeeping
// of its own: operators are wired to each other by the queues their
// constructors are given, the same way the per-channel chains are wired to
// the channelizer's fan-out in cmd/sdrpipeline.
type Graph struct {
	operators []Operator
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add registers an operator with the graph. Order is preserved for sharding
// across the scheduler's worker pool.
func (g *Graph) Add(op Operator) {
	g.operators = append(g.operators, op)
}

// Operators returns the registered operators in registration order.
func (g *Graph) Operators() []Operator {
	return g.operators
}
