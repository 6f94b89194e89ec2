package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/choreo/internal/graph"
	"github.com/roach88/choreo/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyName          = "E101" // choreography name is required
	ErrNoStartEvent       = "E102" // exactly one start event required
	ErrDuplicateID        = "E103" // duplicate or empty node/participant/message id
	ErrDanglingFlow       = "E104" // flow endpoint is not a node
	ErrUnknownParticipant = "E105" // task references an undefined participant
	ErrUnknownMessage     = "E106" // task references an undefined message
	ErrCycle              = "E107" // loops are not supported
	ErrInvalidNodeType    = "E108" // unknown node type
	ErrTaskShape          = "E109" // too many messages or recipients on a task
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a choreography definition before compilation.
// Returns all errors found (does not fail-fast).
func Validate(def *ir.Choreography) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required and must be non-empty",
			Code:    ErrEmptyName,
		})
	}

	errs = append(errs, uniqueIDs("participants", len(def.Participants), func(i int) string { return def.Participants[i].ID })...)
	errs = append(errs, uniqueIDs("messages", len(def.Messages), func(i int) string { return def.Messages[i].ID })...)
	nodeErrs := uniqueIDs("nodes", len(def.Nodes), func(i int) string { return def.Nodes[i].ID })
	errs = append(errs, nodeErrs...)

	starts := 0
	for i, n := range def.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)

		// E108: known node type
		if !slices.Contains(ir.KnownNodeTypes, n.Type) {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("invalid node type %q for node %q", n.Type, n.ID),
				Code:    ErrInvalidNodeType,
			})
		}
		if n.Type == ir.NodeStartEvent {
			starts++
		}
		if n.Type == ir.NodeTask {
			errs = append(errs, validateTask(def, field, n)...)
		}
	}

	// E102: exactly one start event
	if starts != 1 {
		errs = append(errs, ValidationError{
			Field:   "nodes",
			Message: fmt.Sprintf("exactly one start event is required, found %d", starts),
			Code:    ErrNoStartEvent,
		})
	}

	// E104: flows must reference existing nodes
	dangling := false
	for i, f := range def.Flows {
		for _, end := range []struct{ name, id string }{{"source", f.Source}, {"target", f.Target}} {
			if _, ok := def.Node(end.id); !ok {
				dangling = true
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("flows[%d].%s", i, end.name),
					Message: fmt.Sprintf("flow %q references unknown node %q", f.ID, end.id),
					Code:    ErrDanglingFlow,
				})
			}
		}
	}

	// E107: cycles, only meaningful on a well-formed graph
	if len(nodeErrs) == 0 && !dangling {
		g, err := graph.New(def)
		if err == nil {
			for _, cycle := range g.Cycles() {
				errs = append(errs, ValidationError{
					Field:   "flows",
					Message: fmt.Sprintf("cycle detected: %s", strings.Join(cycle, " -> ")),
					Code:    ErrCycle,
				})
			}
		}
	}

	return errs
}

func validateTask(def *ir.Choreography, field string, n ir.Node) []ValidationError {
	var errs []ValidationError

	// E105: participants must be declared
	refs := n.Participants
	if n.Initiator != "" && !slices.Contains(refs, n.Initiator) {
		refs = append(slices.Clone(refs), n.Initiator)
	}
	for _, ref := range refs {
		if _, ok := def.Participant(ref); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".participants",
				Message: fmt.Sprintf("task %q references unknown participant %q", n.ID, ref),
				Code:    ErrUnknownParticipant,
			})
		}
	}

	// E106: messages must be declared
	for _, ref := range n.Messages {
		if _, ok := def.Message(ref); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".messages",
				Message: fmt.Sprintf("task %q references unknown message %q", n.ID, ref),
				Code:    ErrUnknownMessage,
			})
		}
	}

	// E109: at most a request and a response, exchanged with one recipient
	if len(n.Messages) > 2 {
		errs = append(errs, ValidationError{
			Field:   field + ".messages",
			Message: fmt.Sprintf("task %q has %d messages, at most 2 are supported", n.ID, len(n.Messages)),
			Code:    ErrTaskShape,
		})
	}
	if len(n.Messages) > 0 {
		recipients := 0
		for _, ref := range n.Participants {
			if ref != n.Initiator {
				recipients++
			}
		}
		if recipients != 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".participants",
				Message: fmt.Sprintf("task %q has %d recipients, exactly 1 is supported", n.ID, recipients),
				Code:    ErrTaskShape,
			})
		}
		if len(n.Messages) == 2 && n.Initiator == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".initiator",
				Message: fmt.Sprintf("task %q has a response message but no initiator", n.ID),
				Code:    ErrTaskShape,
			})
		}
	}

	return errs
}

// uniqueIDs reports empty and duplicate ids in one collection (E103).
func uniqueIDs(field string, n int, id func(int) string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		v := id(i)
		switch {
		case strings.TrimSpace(v) == "":
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].id", field, i),
				Message: "id is required",
				Code:    ErrDuplicateID,
			})
		case seen[v]:
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].id", field, i),
				Message: fmt.Sprintf("duplicate id %q", v),
				Code:    ErrDuplicateID,
			})
		}
		seen[v] = true
	}
	return errs
}

// WithLines fills in source lines for errors whose field names a node,
// participant, message or flow present in lines (keyed by field prefix such
// as "nodes[2]").
func WithLines(errs []ValidationError, lines map[string]int) []ValidationError {
	if len(lines) == 0 {
		return errs
	}
	out := make([]ValidationError, len(errs))
	for i, e := range errs {
		if prefix, _, ok := strings.Cut(e.Field, "."); ok {
			if line, found := lines[prefix]; found && e.Line == 0 {
				e.Line = line
			}
		}
		out[i] = e
	}
	return out
}
