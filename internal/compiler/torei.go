package compiler

import (
	"errors"

	"github.com/roach88/choreo/internal/graph"
	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/rei"
)

// REIOptions configures ToREIWith.
type REIOptions struct {
	// Render converts task nodes; nil selects RenderName.
	Render TaskRenderer

	// StrictInclusive requires at least one branch of an inclusive gateway
	// to occur. By default every branch is optional, so taking none of them
	// is accepted.
	StrictInclusive bool
}

// ToREI translates a choreography graph into an expression anchored by Start
// and, on every terminating path, End.
//
// The walk starts at the unique start event and descends through tasks and
// gateways. Each open gateway compiles its branches recursively; a branch
// stops at an end event (contributing End inside the gateway term) or at a
// close gateway, which is handed back so the open gateway can check that all
// of its branches meet at the same close of the same kind before the walk
// continues past it.
func ToREI(g *graph.Graph, render TaskRenderer) (rei.Term, error) {
	return ToREIWith(g, REIOptions{Render: render})
}

// ToREIWith is ToREI with explicit options.
func ToREIWith(g *graph.Graph, opts REIOptions) (rei.Term, error) {
	if opts.Render == nil {
		opts.Render = RenderName
	}

	start, err := g.Start()
	if err != nil {
		return nil, structural(ErrStartEventCount, "", err, "%v", err)
	}

	w := &walker{g: g, opts: opts, onPath: make(map[string]bool)}
	w.onPath[start.ID] = true

	rest, closing, err := w.after(start)
	if err != nil {
		return nil, err
	}
	if closing != nil {
		return nil, structural(ErrGatewayMismatch, closing.ID, nil, "close gateway %s has no matching open gateway", closing.ID)
	}
	return rei.MustConc(rei.Start{}, rest), nil
}

type walker struct {
	g      *graph.Graph
	opts   REIOptions
	onPath map[string]bool
}

// after compiles what follows a start event, a task or a close gateway.
func (w *walker) after(n *ir.Node) (rei.Term, *ir.Node, error) {
	next, err := w.g.Next(n)
	if err != nil {
		return nil, nil, structural(ErrUnresolvedTarget, n.ID, err, "%v", err)
	}
	switch len(next) {
	case 0:
		return rei.End{}, nil, nil
	case 1:
		return w.visit(next[0])
	default:
		return nil, nil, structural(ErrTooManySuccessors, n.ID, nil, "%d successors, expected zero or one", len(next))
	}
}

// visit compiles the subgraph starting at n. A nil term means n is a close
// gateway, which is returned as the second value.
func (w *walker) visit(n *ir.Node) (rei.Term, *ir.Node, error) {
	if w.onPath[n.ID] {
		return nil, nil, structural(ErrLoop, n.ID, nil, "node %s is reached again from itself; loops are not supported", n.ID)
	}
	w.onPath[n.ID] = true
	defer delete(w.onPath, n.ID)

	switch c := w.g.Classify(n).(type) {
	case graph.End:
		return rei.End{}, nil, nil

	case graph.Task:
		head, err := w.opts.Render(w.g, n)
		if err != nil {
			return nil, nil, structural(ErrTaskRender, n.ID, err, "render task: %v", err)
		}
		rest, closing, err := w.after(n)
		if err != nil {
			return nil, nil, err
		}
		return seq(head, rest), closing, nil

	case graph.GatewayClose:
		return nil, n, nil

	case graph.GatewayOpen:
		return w.gateway(n, c)

	case graph.Other:
		return nil, nil, structural(ErrUnsupportedShape, n.ID, nil, "unsupported node shape %s", c)

	case graph.Start:
		return nil, nil, structural(ErrUnexpectedNodeType, n.ID, nil, "start event inside the diagram")

	default:
		return nil, nil, structural(ErrUnexpectedNodeType, n.ID, nil, "unhandled node class %s", c)
	}
}

func (w *walker) gateway(n *ir.Node, open graph.GatewayOpen) (rei.Term, *ir.Node, error) {
	next, err := w.g.Next(n)
	if err != nil {
		return nil, nil, structural(ErrUnresolvedTarget, n.ID, err, "%v", err)
	}

	var (
		branches []rei.Term
		closing  *ir.Node
	)
	// Branches ending in $ have no close; the others must share one.
	for _, b := range next {
		term, cl, err := w.visit(b)
		if err != nil {
			return nil, nil, err
		}
		if cl != nil {
			if closing != nil && !sameNode(closing, cl) {
				return nil, nil, structural(ErrGatewayMismatch, n.ID, nil,
					"branches of %s close at %s and %s", n.ID, closing.ID, cl.ID)
			}
			closing = cl
		}
		if term == nil {
			term = rei.Epsilon{}
		}
		branches = append(branches, term)
	}

	if closing != nil {
		cc, ok := w.g.Classify(closing).(graph.GatewayClose)
		if !ok || cc.Kind != open.Kind {
			return nil, nil, structural(ErrGatewayMismatch, n.ID, nil,
				"%s closed by %s (%s)", open, closing.ID, w.g.Classify(closing))
		}
	}

	head := w.combine(open.Kind, branches)
	if closing == nil {
		return head, nil, nil
	}

	rest, outer, err := w.after(closing)
	if err != nil {
		return nil, nil, err
	}
	return seq(head, rest), outer, nil
}

func (w *walker) combine(kind graph.GatewayKind, branches []rei.Term) rei.Term {
	switch kind {
	case graph.Exclusive:
		return rei.NewUnion(branches...)
	case graph.Parallel:
		return rei.NewPar(branches...)
	}

	optional := make([]rei.Term, len(branches))
	for i, b := range branches {
		optional[i] = rei.NewUnion(rei.Epsilon{}, b)
	}
	if !w.opts.StrictInclusive {
		return rei.NewPar(optional...)
	}

	// One alternative per branch forced to occur, the others optional.
	alts := make([]rei.Term, len(branches))
	for i := range branches {
		items := make([]rei.Term, len(branches))
		copy(items, optional)
		items[i] = branches[i]
		alts[i] = rei.NewPar(items...)
	}
	return rei.NewUnion(alts...)
}

func seq(head, rest rei.Term) rei.Term {
	if rest == nil {
		return head
	}
	return rei.MustConc(head, rest)
}

func sameNode(a, b *ir.Node) bool {
	return a == b || a.ID == b.ID
}

// IsStructural reports whether err carries a StructuralError with the given
// code. An empty code matches any structural error.
func IsStructural(err error, code string) bool {
	var se *StructuralError
	if !errors.As(err, &se) {
		return false
	}
	return code == "" || se.Code == code
}
