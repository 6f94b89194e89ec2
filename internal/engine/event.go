package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// EventKind distinguishes the shapes of observed events.
type EventKind int

const (
	// EventMalformed is text matching neither shape.
	EventMalformed EventKind = iota
	// EventSend is an outgoing message, "actor!message".
	EventSend
	// EventReceive is an incoming message, "actor?message".
	EventReceive
)

// String returns the lower-case kind name.
func (k EventKind) String() string {
	switch k {
	case EventSend:
		return "send"
	case EventReceive:
		return "receive"
	default:
		return "malformed"
	}
}

var (
	sendPattern    = regexp.MustCompile(`^[^?!]+![^!?]+$`)
	receivePattern = regexp.MustCompile(`^[^!?]+\?[^!?]+$`)
)

// Event is one parsed observation.
type Event struct {
	Kind    EventKind
	Actor   string
	Message string
	Text    string
}

// ParseEvent classifies text. The text is NFC-normalised first so that it
// compares equal to automaton labels built from the same names.
func ParseEvent(text string) Event {
	text = norm.NFC.String(text)
	switch {
	case sendPattern.MatchString(text):
		actor, msg, _ := strings.Cut(text, "!")
		return Event{Kind: EventSend, Actor: actor, Message: msg, Text: text}
	case receivePattern.MatchString(text):
		actor, msg, _ := strings.Cut(text, "?")
		return Event{Kind: EventReceive, Actor: actor, Message: msg, Text: text}
	default:
		return Event{Kind: EventMalformed, Text: text}
	}
}

// Item returns the buffer key of a receive event.
func (e Event) Item() BufferItem {
	return BufferItem{Actor: e.Actor, Message: e.Message}
}
