package engine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/choreo/internal/compiler"
	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/nfa"
	"github.com/roach88/choreo/internal/testutil"
)

const (
	order    = "Pizza_Place?pizza_order"
	handover = "Delivery_Boy?Message_1mi4idx"
	deliver  = "Customer?pizza"
	refuse   = "Customer?refusal"
)

func compileReceive(t *testing.T, def *ir.Choreography) *nfa.NFA {
	t.Helper()
	c, err := compiler.Compile(def, compiler.REIOptions{Render: compiler.RenderReceive})
	require.NoError(t, err)
	return c.NFA
}

func deliveryNFA(t *testing.T) *nfa.NFA {
	return compileReceive(t, testutil.DeliveryChoreography())
}

func newOffChain(t *testing.T, a *nfa.NFA, opts ...OffChainOption) *OffChain {
	t.Helper()
	e, err := NewOffChain(a, opts...)
	require.NoError(t, err)
	return e
}

// captureLogger returns a debug-level logger writing to buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestOffChain_New(t *testing.T) {
	a := deliveryNFA(t)
	e := newOffChain(t, a)

	init, _ := a.Initial()
	assert.True(t, e.States().Has(init))
	assert.False(t, e.Ended())
	assert.Empty(t, e.BufferItems())
	assert.Len(t, e.AllStates(), a.Len())
	assert.True(t, e.IsCurrent(a.Name(init)))
	assert.Same(t, a, e.NFA())

	_, err := NewOffChain(nfa.New())
	assert.ErrorIs(t, err, nfa.ErrNoInitialState)
}

func TestOffChain_ReceiveNow(t *testing.T) {
	e := newOffChain(t, deliveryNFA(t))

	out, ok := e.ProcessInput(order)
	require.True(t, ok)
	assert.Equal(t, order, out)

	out, ok = e.ProcessInput(refuse)
	require.True(t, ok)
	assert.Equal(t, refuse, out)
	assert.True(t, e.Ended())
}

func TestOffChain_SendPassesThrough(t *testing.T) {
	e := newOffChain(t, deliveryNFA(t))
	before := e.CurrentStates()

	out, outcome, err := e.Step("Customer!pizza_order")
	require.NoError(t, err)
	assert.Equal(t, OutcomePassed, outcome)
	assert.Equal(t, "Customer!pizza_order", out)
	assert.Equal(t, before, e.CurrentStates(), "sends never change state")
}

func TestOffChain_ReceiveDelayed(t *testing.T) {
	e := newOffChain(t, deliveryNFA(t))
	before := e.CurrentStates()

	out, ok := e.ProcessInput(handover)
	assert.False(t, ok)
	assert.Empty(t, out)
	assert.Equal(t, before, e.CurrentStates())
	assert.Equal(t, []BufferItem{{"Delivery_Boy", "Message_1mi4idx"}}, e.BufferItems())

	// Nothing is usable until the order has been received.
	_, ok = e.ProcessCheck()
	assert.False(t, ok)

	_, ok = e.ProcessInput(order)
	require.True(t, ok)

	out, ok = e.ProcessCheck()
	require.True(t, ok)
	assert.Equal(t, handover, out)
	assert.Empty(t, e.BufferItems())

	_, ok = e.ProcessInput(deliver)
	require.True(t, ok)
	assert.True(t, e.Ended())
}

func TestOffChain_CheckConsumesOneCopy(t *testing.T) {
	e := newOffChain(t, deliveryNFA(t))

	e.ProcessInput(handover)
	e.ProcessInput(handover)
	require.Equal(t, 2, e.Buffer().Count(BufferItem{"Delivery_Boy", "Message_1mi4idx"}))

	e.ProcessInput(order)
	out, ok := e.ProcessCheck()
	require.True(t, ok)
	assert.Equal(t, handover, out)
	assert.Equal(t, 1, e.Buffer().Count(BufferItem{"Delivery_Boy", "Message_1mi4idx"}))

	_, err := e.Check()
	assert.True(t, IsNoUsableMessage(err), "the second copy is not enabled any more")
}

func TestOffChain_CheckFirstBufferedOrder(t *testing.T) {
	e := newOffChain(t, compileReceive(t, testutil.RequestResponseChoreography()))

	for _, ev := range []string{"Courier?pickup", "Shop?payment", "Shop?quote_request", "Buyer?quote"} {
		e.ProcessInput(ev)
	}

	out, ok := e.ProcessCheck()
	require.True(t, ok)
	assert.Equal(t, "Courier?pickup", out)

	out, ok = e.ProcessCheck()
	require.True(t, ok)
	assert.Equal(t, "Shop?payment", out)

	assert.True(t, e.Ended())
}

func TestOffChain_MalformedEvent(t *testing.T) {
	var buf bytes.Buffer
	e := newOffChain(t, deliveryNFA(t), WithLogger(captureLogger(&buf)))
	before := e.CurrentStates()

	_, _, err := e.Step("hello")
	assert.True(t, IsMalformedEvent(err))

	out, ok := e.ProcessInput("hello")
	assert.False(t, ok)
	assert.Empty(t, out)
	assert.Equal(t, before, e.CurrentStates())
	assert.Empty(t, e.BufferItems())
	assert.Contains(t, buf.String(), "no matching condition")
}

func TestOffChain_LogMessages(t *testing.T) {
	var buf bytes.Buffer
	e := newOffChain(t, deliveryNFA(t), WithLogger(captureLogger(&buf)))

	e.ProcessInput(handover)
	e.ProcessCheck()
	e.ProcessInput(order)

	logs := buf.String()
	assert.Contains(t, logs, `msg="event buffered"`)
	assert.Contains(t, logs, `msg="no usable message"`)
	assert.Contains(t, logs, `msg="event accepted"`)
}

func TestOffChain_SharedAutomaton(t *testing.T) {
	a := deliveryNFA(t)
	e1 := newOffChain(t, a)
	e2 := newOffChain(t, a)

	e1.ProcessInput(order)
	e1.ProcessInput(refuse)

	assert.True(t, e1.Ended())
	assert.False(t, e2.Ended(), "engines over one automaton are independent")
	_, ok := e2.ProcessInput(order)
	assert.True(t, ok)
}

func TestStepOutcomeString(t *testing.T) {
	assert.Equal(t, "ignored", OutcomeIgnored.String())
	assert.Equal(t, "passed", OutcomePassed.String())
	assert.Equal(t, "accepted", OutcomeAccepted.String())
	assert.Equal(t, "buffered", OutcomeBuffered.String())
}

func TestRuntimeErrorFormat(t *testing.T) {
	err := NewMalformedEventError("hello")
	assert.Equal(t, "MALFORMED_EVENT: no matching condition (event=hello)", err.Error())

	err.Instance = "run-1"
	assert.Equal(t, "MALFORMED_EVENT: no matching condition (instance=run-1, event=hello)", err.Error())

	assert.Equal(t, "NO_USABLE_MESSAGE: no usable message found", NewNoUsableMessageError(0).Error())
	assert.True(t, IsInvariantBroken(NewInvariantError("a?b", 2)))
	assert.False(t, IsInvariantBroken(nil))
}
