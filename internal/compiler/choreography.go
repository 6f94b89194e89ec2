package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/choreo/internal/ir"
)

// CompileChoreography parses a CUE value into a Choreography.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the choreography struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`choreography: delivery: { ... }`)
//	def, err := CompileChoreography(v.LookupPath(cue.ParsePath("choreography.delivery")))
//
// The struct carries participants and messages as id: name maps, and nodes
// and flows as lists whose order is significant:
//
//	participants: {customer: "Customer", place: "Pizza Place"}
//	messages: {m_order: "pizza order"}
//	nodes: [
//		{id: "start", type: "startEvent"},
//		{id: "t1", type: "choreographyTask", name: "order pizza",
//		 initiator: "customer", participants: ["customer", "place"], messages: ["m_order"]},
//		{id: "end", type: "endEvent"},
//	]
//	flows: [{source: "start", target: "t1"}, {source: "t1", target: "end"}]
func CompileChoreography(v cue.Value) (*ir.Choreography, error) {
	def, _, err := compileChoreography(v)
	return def, err
}

func compileChoreography(v cue.Value) (*ir.Choreography, map[string]int, error) {
	if err := v.Err(); err != nil {
		return nil, nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, nil, &CompileError{Field: "choreography", Message: "value does not exist", Pos: v.Pos()}
	}

	def := &ir.Choreography{}
	lines := make(map[string]int)

	// Name from the struct label, overridable by an explicit name field.
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}
	if name, ok, err := optionalString(v, "name"); err != nil {
		return nil, nil, err
	} else if ok {
		def.Name = name
	}

	var err error
	def.Participants, err = parseNamed(v, "participants", lines, func(id, name string) ir.Participant {
		return ir.Participant{ID: id, Name: name}
	})
	if err != nil {
		return nil, nil, err
	}
	def.Messages, err = parseNamed(v, "messages", lines, func(id, name string) ir.Message {
		return ir.Message{ID: id, Name: name}
	})
	if err != nil {
		return nil, nil, err
	}

	if def.Nodes, err = parseNodes(v, lines); err != nil {
		return nil, nil, err
	}
	if len(def.Nodes) == 0 {
		return nil, nil, &CompileError{
			Field:   "nodes",
			Message: "at least one node is required",
			Pos:     v.Pos(),
		}
	}

	if def.Flows, err = parseFlows(v, lines); err != nil {
		return nil, nil, err
	}

	return def, lines, nil
}

// parseNamed reads an id: name struct in declaration order.
func parseNamed[T any](v cue.Value, field string, lines map[string]int, mk func(id, name string) T) ([]T, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return nil, nil
	}

	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []T
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.%s", field, iter.Label()),
				Message: "display name must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		lines[fmt.Sprintf("%s[%d]", field, len(out))] = iter.Value().Pos().Line()
		out = append(out, mk(iter.Label(), name))
	}
	return out, nil
}

func parseNodes(v cue.Value, lines map[string]int) ([]ir.Node, error) {
	val := v.LookupPath(cue.ParsePath("nodes"))
	if !val.Exists() {
		return nil, nil
	}

	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var nodes []ir.Node
	for iter.Next() {
		nv := iter.Value()
		field := fmt.Sprintf("nodes[%d]", len(nodes))

		id, err := requiredString(nv, field, "id")
		if err != nil {
			return nil, err
		}
		typ, err := requiredString(nv, field, "type")
		if err != nil {
			return nil, err
		}

		n := ir.Node{ID: id, Type: ir.NodeType(typ)}
		if n.Name, _, err = optionalString(nv, "name"); err != nil {
			return nil, err
		}
		if n.Initiator, _, err = optionalString(nv, "initiator"); err != nil {
			return nil, err
		}
		if n.Participants, err = optionalStrings(nv, "participants"); err != nil {
			return nil, err
		}
		if n.Messages, err = optionalStrings(nv, "messages"); err != nil {
			return nil, err
		}

		lines[field] = nv.Pos().Line()
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseFlows(v cue.Value, lines map[string]int) ([]ir.Flow, error) {
	val := v.LookupPath(cue.ParsePath("flows"))
	if !val.Exists() {
		return nil, nil
	}

	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var flows []ir.Flow
	for iter.Next() {
		fv := iter.Value()
		field := fmt.Sprintf("flows[%d]", len(flows))

		f := ir.Flow{}
		if f.Source, err = requiredString(fv, field, "source"); err != nil {
			return nil, err
		}
		if f.Target, err = requiredString(fv, field, "target"); err != nil {
			return nil, err
		}
		id, ok, err := optionalString(fv, "id")
		if err != nil {
			return nil, err
		}
		if !ok {
			id = fmt.Sprintf("flow_%d", len(flows)+1)
		}
		f.ID = id

		lines[field] = fv.Pos().Line()
		flows = append(flows, f)
	}
	return flows, nil
}

func requiredString(v cue.Value, field, name string) (string, error) {
	s, ok, err := optionalString(v, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optionalStrings(v cue.Value, name string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
