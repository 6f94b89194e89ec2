package engine

import "errors"

// ErrBufferUnderflow is returned when removing a message with no pending copy.
var ErrBufferUnderflow = errors.New("buffer underflow")

// BufferItem identifies a delayed receive: the receiving actor and the
// message it was sent.
type BufferItem struct {
	Actor   string `json:"actor"`
	Message string `json:"message"`
}

// Event returns the receive event text "actor?message".
func (i BufferItem) Event() string {
	return i.Actor + "?" + i.Message
}

// String implements fmt.Stringer.
func (i BufferItem) String() string {
	return i.Event()
}

// Buffer is a multiset of delayed receives.
//
// Iteration follows first-buffered order: actors in the order they were
// first buffered, and within an actor, messages in the order they were
// first buffered. An entry whose count drops to zero keeps its position.
// A missing entry has count zero.
//
// Buffer is not safe for concurrent use; each engine owns one.
type Buffer struct {
	actors  []string
	byActor map[string]*actorBuffer
}

type actorBuffer struct {
	messages []string
	counts   map[string]int
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{byActor: make(map[string]*actorBuffer)}
}

// Add increments the count of item.
func (b *Buffer) Add(item BufferItem) {
	ab, ok := b.byActor[item.Actor]
	if !ok {
		ab = &actorBuffer{counts: make(map[string]int)}
		b.byActor[item.Actor] = ab
		b.actors = append(b.actors, item.Actor)
	}
	if _, seen := ab.counts[item.Message]; !seen {
		ab.messages = append(ab.messages, item.Message)
	}
	ab.counts[item.Message]++
}

// Remove decrements the count of item, failing with ErrBufferUnderflow
// when none is pending.
func (b *Buffer) Remove(item BufferItem) error {
	if b.Count(item) <= 0 {
		return &RuntimeError{
			Code:    ErrCodeBufferUnderflow,
			Message: "no pending copy to remove",
			Event:   item.Event(),
		}
	}
	b.byActor[item.Actor].counts[item.Message]--
	return nil
}

// Count returns the pending copies of item.
func (b *Buffer) Count(item BufferItem) int {
	ab, ok := b.byActor[item.Actor]
	if !ok {
		return 0
	}
	return ab.counts[item.Message]
}

// Len returns the total number of pending copies.
func (b *Buffer) Len() int {
	n := 0
	for _, ab := range b.byActor {
		for _, c := range ab.counts {
			n += c
		}
	}
	return n
}

// Pending returns each distinct item with a positive count, in
// first-buffered order.
func (b *Buffer) Pending() []BufferItem {
	var out []BufferItem
	b.each(func(item BufferItem, count int) {
		if count > 0 {
			out = append(out, item)
		}
	})
	return out
}

// Items expands the multiset: each item appears once per pending copy.
func (b *Buffer) Items() []BufferItem {
	var out []BufferItem
	b.each(func(item BufferItem, count int) {
		for range count {
			out = append(out, item)
		}
	})
	return out
}

func (b *Buffer) each(fn func(BufferItem, int)) {
	for _, actor := range b.actors {
		ab := b.byActor[actor]
		for _, msg := range ab.messages {
			fn(BufferItem{Actor: actor, Message: msg}, ab.counts[msg])
		}
	}
}
