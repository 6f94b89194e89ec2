// Package graph is the access layer over a choreography definition.
//
// It resolves sequence flows into successor and predecessor lists, classifies
// every node once into a closed set of shapes (see Class) and exposes the
// participants and messages attached to tasks. The graph compiler consumes
// only this package, never the raw definition.
package graph

import (
	"errors"
	"fmt"

	"github.com/roach88/choreo/internal/ir"
)

var (
	// ErrUnknownNode is returned when a node id cannot be resolved.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnresolvedTarget is returned by Next and Prev when a flow references
	// a node that does not exist.
	ErrUnresolvedTarget = errors.New("unresolved flow target")

	// ErrUnknownParticipant is returned when a task references an undefined participant.
	ErrUnknownParticipant = errors.New("unknown participant")

	// ErrUnknownMessage is returned when a task references an undefined message.
	ErrUnknownMessage = errors.New("unknown message")

	// ErrStartEvents is returned by Start when the definition does not have
	// exactly one start event.
	ErrStartEvents = errors.New("expected exactly one start event")
)

// Graph is a read-only indexed view of a choreography.
// Safe for concurrent readers once built.
type Graph struct {
	def      *ir.Choreography
	nodes    map[string]*ir.Node
	outgoing map[string][]ir.Flow
	incoming map[string][]ir.Flow
}

// New indexes a choreography. Duplicate node ids are rejected; dangling flow
// references are kept and reported lazily by Next and Prev.
func New(def *ir.Choreography) (*Graph, error) {
	g := &Graph{
		def:      def,
		nodes:    make(map[string]*ir.Node, len(def.Nodes)),
		outgoing: make(map[string][]ir.Flow),
		incoming: make(map[string][]ir.Flow),
	}
	for i := range def.Nodes {
		n := &def.Nodes[i]
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		g.nodes[n.ID] = n
	}
	for _, f := range def.Flows {
		g.outgoing[f.Source] = append(g.outgoing[f.Source], f)
		g.incoming[f.Target] = append(g.incoming[f.Target], f)
	}
	return g, nil
}

// Definition returns the underlying choreography.
func (g *Graph) Definition() *ir.Choreography {
	return g.def
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*ir.Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return n, nil
}

// Nodes returns every node in declaration order.
func (g *Graph) Nodes() []*ir.Node {
	out := make([]*ir.Node, len(g.def.Nodes))
	for i := range g.def.Nodes {
		out[i] = &g.def.Nodes[i]
	}
	return out
}

// Outgoing returns the flows leaving n in declaration order.
func (g *Graph) Outgoing(n *ir.Node) []ir.Flow {
	return g.outgoing[n.ID]
}

// Incoming returns the flows entering n in declaration order.
func (g *Graph) Incoming(n *ir.Node) []ir.Flow {
	return g.incoming[n.ID]
}

// Next returns the direct successors of n.
func (g *Graph) Next(n *ir.Node) ([]*ir.Node, error) {
	flows := g.outgoing[n.ID]
	out := make([]*ir.Node, 0, len(flows))
	for _, f := range flows {
		t, ok := g.nodes[f.Target]
		if !ok {
			return nil, fmt.Errorf("%w: flow %s -> %q", ErrUnresolvedTarget, n.ID, f.Target)
		}
		out = append(out, t)
	}
	return out, nil
}

// Prev returns the direct predecessors of n.
func (g *Graph) Prev(n *ir.Node) ([]*ir.Node, error) {
	flows := g.incoming[n.ID]
	out := make([]*ir.Node, 0, len(flows))
	for _, f := range flows {
		s, ok := g.nodes[f.Source]
		if !ok {
			return nil, fmt.Errorf("%w: flow %q -> %s", ErrUnresolvedTarget, f.Source, n.ID)
		}
		out = append(out, s)
	}
	return out, nil
}

// StartEvents returns every start event in declaration order.
func (g *Graph) StartEvents() []*ir.Node {
	return g.ofType(ir.NodeStartEvent)
}

// Start returns the unique start event.
func (g *Graph) Start() (*ir.Node, error) {
	starts := g.StartEvents()
	if len(starts) != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrStartEvents, len(starts))
	}
	return starts[0], nil
}

// Ends returns every end event in declaration order.
func (g *Graph) Ends() []*ir.Node {
	return g.ofType(ir.NodeEndEvent)
}

func (g *Graph) ofType(t ir.NodeType) []*ir.Node {
	var out []*ir.Node
	for i := range g.def.Nodes {
		if g.def.Nodes[i].Type == t {
			out = append(out, &g.def.Nodes[i])
		}
	}
	return out
}

// Participants returns the participants of a task with the initiator first,
// followed by the others in reference order.
func (g *Graph) Participants(n *ir.Node) ([]ir.Participant, error) {
	var initiator *ir.Participant
	others := make([]ir.Participant, 0, len(n.Participants))
	for _, ref := range n.Participants {
		p, ok := g.def.Participant(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q in node %s", ErrUnknownParticipant, ref, n.ID)
		}
		if ref == n.Initiator {
			initiator = p
			continue
		}
		others = append(others, *p)
	}
	if initiator == nil && n.Initiator != "" {
		p, ok := g.def.Participant(n.Initiator)
		if !ok {
			return nil, fmt.Errorf("%w: initiator %q in node %s", ErrUnknownParticipant, n.Initiator, n.ID)
		}
		initiator = p
	}
	if initiator == nil {
		return others, nil
	}
	return append([]ir.Participant{*initiator}, others...), nil
}

// Initiator returns the initiating participant of a task, if any.
func (g *Graph) Initiator(n *ir.Node) (ir.Participant, bool, error) {
	if n.Initiator == "" {
		return ir.Participant{}, false, nil
	}
	ps, err := g.Participants(n)
	if err != nil {
		return ir.Participant{}, false, err
	}
	return ps[0], true, nil
}

// Recipients returns every participant of a task except the initiator.
func (g *Graph) Recipients(n *ir.Node) ([]ir.Participant, error) {
	ps, err := g.Participants(n)
	if err != nil {
		return nil, err
	}
	if n.Initiator == "" {
		return ps, nil
	}
	return ps[1:], nil
}

// Messages returns the messages exchanged by a task in flow order.
func (g *Graph) Messages(n *ir.Node) ([]ir.Message, error) {
	out := make([]ir.Message, 0, len(n.Messages))
	for _, ref := range n.Messages {
		m, ok := g.def.Message(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q in node %s", ErrUnknownMessage, ref, n.ID)
		}
		out = append(out, *m)
	}
	return out, nil
}

// Reachable returns the ids of every node reachable from n, n included,
// in breadth-first order. Unresolved targets are skipped.
func (g *Graph) Reachable(n *ir.Node) []string {
	seen := map[string]bool{n.ID: true}
	order := []string{n.ID}
	for i := 0; i < len(order); i++ {
		for _, f := range g.outgoing[order[i]] {
			if _, ok := g.nodes[f.Target]; !ok || seen[f.Target] {
				continue
			}
			seen[f.Target] = true
			order = append(order, f.Target)
		}
	}
	return order
}
