package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		text    string
		kind    EventKind
		actor   string
		message string
	}{
		{"Customer?pizza", EventReceive, "Customer", "pizza"},
		{"Customer!pizza", EventSend, "Customer", "pizza"},
		{"Pizza Place?pizza order", EventReceive, "Pizza Place", "pizza order"},
		{"pizza", EventMalformed, "", ""},
		{"?pizza", EventMalformed, "", ""},
		{"Customer?", EventMalformed, "", ""},
		{"a?b?c", EventMalformed, "", ""},
		{"a!b?c", EventMalformed, "", ""},
		{"", EventMalformed, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ev := ParseEvent(tt.text)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.actor, ev.Actor)
			assert.Equal(t, tt.message, ev.Message)
		})
	}
}

func TestParseEventNormalises(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	ev := ParseEvent("Cafe\u0301?order")
	assert.Equal(t, "Caf\u00e9", ev.Actor)
	assert.Equal(t, BufferItem{Actor: "Caf\u00e9", Message: "order"}, ev.Item())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "send", EventSend.String())
	assert.Equal(t, "receive", EventReceive.String())
	assert.Equal(t, "malformed", EventMalformed.String())
}
