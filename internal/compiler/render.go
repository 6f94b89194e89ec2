package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/choreo/internal/graph"
	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/rei"
)

// TaskRenderer turns a task node into the expression that stands for it.
type TaskRenderer func(g *graph.Graph, n *ir.Node) (rei.Term, error)

// Renderers by the names accepted on the command line and in config files.
var Renderers = map[string]TaskRenderer{
	"name":    RenderName,
	"receive": RenderReceive,
}

// LookupRenderer returns the renderer registered under name. An empty name
// selects RenderName.
func LookupRenderer(name string) (TaskRenderer, error) {
	if name == "" {
		return RenderName, nil
	}
	r, ok := Renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown renderer %q (want name or receive)", name)
	}
	return r, nil
}

// RenderName renders a task as a symbol carrying its name, or its id when
// the name is blank.
func RenderName(_ *graph.Graph, n *ir.Node) (rei.Term, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		name = n.ID
	}
	return rei.Symbol{Text: norm.NFC.String(name)}, nil
}

// RenderReceive renders a task as the receive events it causes.
//
// A one-message task becomes recipient?request. A two-message task becomes
// recipient?request followed by initiator?response. A task without messages
// falls back to its id. Spaces in participant and message names are replaced
// by underscores so that every event is a single token.
func RenderReceive(g *graph.Graph, n *ir.Node) (rei.Term, error) {
	msgs, err := g.Messages(n)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return rei.Symbol{Text: n.ID}, nil
	}
	if len(msgs) > 2 {
		return nil, fmt.Errorf("task %s has %d messages, at most 2 are supported", n.ID, len(msgs))
	}

	recipients, err := g.Recipients(n)
	if err != nil {
		return nil, err
	}
	if len(recipients) != 1 {
		return nil, fmt.Errorf("task %s has %d recipients, exactly 1 is supported", n.ID, len(recipients))
	}
	target := eventName(recipients[0].DisplayName())
	request := receive(target, msgs[0].DisplayName())

	if len(msgs) == 1 {
		return request, nil
	}

	initiator, ok, err := g.Initiator(n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("task %s has a response message but no initiator", n.ID)
	}
	return rei.MustConc(request, receive(eventName(initiator.DisplayName()), msgs[1].DisplayName())), nil
}

func receive(actor, message string) rei.Symbol {
	return rei.Symbol{Text: actor + "?" + eventName(message)}
}

func eventName(s string) string {
	return strings.ReplaceAll(norm.NFC.String(strings.TrimSpace(s)), " ", "_")
}
