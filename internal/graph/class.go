package graph

import (
	"fmt"

	"github.com/roach88/choreo/internal/ir"
)

// GatewayKind distinguishes gateway semantics.
type GatewayKind int

const (
	Exclusive GatewayKind = iota + 1
	Parallel
	Inclusive
)

// String returns the short form used in diagnostics.
func (k GatewayKind) String() string {
	switch k {
	case Exclusive:
		return "EX"
	case Parallel:
		return "PAR"
	case Inclusive:
		return "INC"
	default:
		return fmt.Sprintf("GatewayKind(%d)", int(k))
	}
}

func gatewayKind(t ir.NodeType) (GatewayKind, bool) {
	switch t {
	case ir.NodeExclusiveGateway:
		return Exclusive, true
	case ir.NodeParallelGateway:
		return Parallel, true
	case ir.NodeInclusiveGateway:
		return Inclusive, true
	}
	return 0, false
}

// Class is the shape of a node as seen by the graph compiler. The set of
// implementations is closed: Start, End, Task, GatewayOpen, GatewayClose and
// Other.
type Class interface {
	fmt.Stringer
	class()
}

// Start is a start event.
type Start struct{}

// End is an end event.
type End struct{}

// Task is a choreography task.
type Task struct{}

// GatewayOpen is a gateway with one incoming and several outgoing flows.
type GatewayOpen struct {
	Kind    GatewayKind
	In, Out int
}

// GatewayClose is a gateway with several incoming flows and one outgoing flow.
type GatewayClose struct {
	Kind    GatewayKind
	In, Out int
}

// Other is any node the compiler cannot handle: a gateway whose degrees
// match neither the open nor the close shape, or an unknown node type.
type Other struct {
	Type    ir.NodeType
	Kind    GatewayKind
	In, Out int
}

func (Start) class()        {}
func (End) class()          {}
func (Task) class()         {}
func (GatewayOpen) class()  {}
func (GatewayClose) class() {}
func (Other) class()        {}

func (Start) String() string { return "START" }
func (End) String() string   { return "END" }
func (Task) String() string  { return "TASK" }

func (c GatewayOpen) String() string  { return fmt.Sprintf("GW_%s_OPEN", c.Kind) }
func (c GatewayClose) String() string { return fmt.Sprintf("GW_%s_CLOSE", c.Kind) }

func (c Other) String() string {
	if c.Kind != 0 {
		return fmt.Sprintf("GW_%s(%d,%d)", c.Kind, c.In, c.Out)
	}
	return fmt.Sprintf("%s(%d,%d)", c.Type, c.In, c.Out)
}

// Classify decides the shape of n from its type and observed degrees.
func (g *Graph) Classify(n *ir.Node) Class {
	in, out := len(g.incoming[n.ID]), len(g.outgoing[n.ID])

	switch n.Type {
	case ir.NodeStartEvent:
		return Start{}
	case ir.NodeEndEvent:
		return End{}
	case ir.NodeTask:
		return Task{}
	}

	kind, ok := gatewayKind(n.Type)
	if !ok {
		return Other{Type: n.Type, In: in, Out: out}
	}
	switch {
	case in == 1 && out > 1:
		return GatewayOpen{Kind: kind, In: in, Out: out}
	case in > 1 && out == 1:
		return GatewayClose{Kind: kind, In: in, Out: out}
	default:
		return Other{Type: n.Type, Kind: kind, In: in, Out: out}
	}
}
