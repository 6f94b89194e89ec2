package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Structural error codes (E200-E299). All of them abort the compilation;
// there is no partial expression.
const (
	ErrUnresolvedTarget   = "E201" // flow references a missing node
	ErrGatewayMismatch    = "E202" // branches close at different gateways or at the wrong kind
	ErrUnsupportedShape   = "E203" // gateway degree matches neither open nor close
	ErrTooManySuccessors  = "E204" // non-gateway node with more than one successor
	ErrStartEventCount    = "E205" // not exactly one start event
	ErrTaskRender         = "E206" // task renderer failed
	ErrLoop               = "E207" // node revisited on the current path
	ErrUnexpectedNodeType = "E208" // node kind not valid at this position
)

// StructuralError reports a choreography the graph compiler cannot
// translate.
type StructuralError struct {
	Code    string
	Node    string
	Message string
	Err     error
}

func (e *StructuralError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structural(code, node string, err error, format string, args ...any) *StructuralError {
	return &StructuralError{Code: code, Node: node, Message: fmt.Sprintf(format, args...), Err: err}
}

// CompileError represents a definition error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// First error with position info
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
