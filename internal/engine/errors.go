package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a condition detected while an engine processes
// events.
//
// Runtime errors include:
//   - No usable message: no buffered message is enabled by the current states
//   - Malformed event: the text is neither a send nor a receive
//   - Invariant broken: an enabled receive reached no state
//   - Buffer underflow: a buffered copy was released twice
//
// The first two are expected during normal operation. Engines log them and
// keep running; they never surface to the host as failures.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Instance identifies the running instance, when known.
	Instance string

	// Event is the event text being processed, when there is one.
	Event string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoUsableMessage indicates no buffered message can be consumed.
	ErrCodeNoUsableMessage RuntimeErrorCode = "NO_USABLE_MESSAGE"

	// ErrCodeMalformedEvent indicates event text matching neither shape.
	ErrCodeMalformedEvent RuntimeErrorCode = "MALFORMED_EVENT"

	// ErrCodeInvariantBroken indicates an enabled event reached no state.
	ErrCodeInvariantBroken RuntimeErrorCode = "INVARIANT_BROKEN"

	// ErrCodeBufferUnderflow indicates a release with no pending copy.
	ErrCodeBufferUnderflow RuntimeErrorCode = "BUFFER_UNDERFLOW"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Instance != "" && e.Event != "" {
		return fmt.Sprintf("%s: %s (instance=%s, event=%s)", e.Code, e.Message, e.Instance, e.Event)
	}
	if e.Event != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.Event)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match a RuntimeError against ErrBufferUnderflow.
func (e *RuntimeError) Is(target error) bool {
	return target == ErrBufferUnderflow && e.Code == ErrCodeBufferUnderflow
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsNoUsableMessage returns true if err reports an empty or blocked buffer.
// Uses errors.As to handle wrapped errors.
func IsNoUsableMessage(err error) bool {
	return hasCode(err, ErrCodeNoUsableMessage)
}

// IsMalformedEvent returns true if err reports unparsable event text.
func IsMalformedEvent(err error) bool {
	return hasCode(err, ErrCodeMalformedEvent)
}

// IsInvariantBroken returns true if err reports an internal contradiction.
func IsInvariantBroken(err error) bool {
	return hasCode(err, ErrCodeInvariantBroken)
}

// NewNoUsableMessageError creates a RuntimeError for an unproductive check.
func NewNoUsableMessageError(pending int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNoUsableMessage,
		Message: "no usable message found",
		Details: map[string]string{"pending": fmt.Sprintf("%d", pending)},
	}
}

// NewMalformedEventError creates a RuntimeError for unparsable event text.
func NewMalformedEventError(event string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMalformedEvent,
		Message: "no matching condition",
		Event:   event,
	}
}

// NewInvariantError creates a RuntimeError for an enabled event that
// reached no state.
func NewInvariantError(event string, states int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvariantBroken,
		Message: "enabled event reached no state",
		Event:   event,
		Details: map[string]string{"states": fmt.Sprintf("%d", states)},
	}
}
