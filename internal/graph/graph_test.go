package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/testutil"
)

func mustGraph(t *testing.T, c *ir.Choreography) *Graph {
	t.Helper()
	g, err := New(c)
	require.NoError(t, err)
	return g
}

func node(t *testing.T, g *Graph, id string) *ir.Node {
	t.Helper()
	n, err := g.Node(id)
	require.NoError(t, err)
	return n
}

func TestNew_RejectsDuplicateNodes(t *testing.T) {
	c := testutil.NewChoreography("dup").Start("a").End("a").Build()
	_, err := New(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate node id "a"`)
}

func TestClassify(t *testing.T) {
	g := mustGraph(t, testutil.NestedChoreography())

	tests := []struct {
		id   string
		want Class
		str  string
	}{
		{"start", Start{}, "START"},
		{"end", End{}, "END"},
		{"t1", Task{}, "TASK"},
		{"go", GatewayOpen{Kind: Exclusive, In: 1, Out: 2}, "GW_EX_OPEN"},
		{"gc", GatewayClose{Kind: Exclusive, In: 2, Out: 1}, "GW_EX_CLOSE"},
		{"po", GatewayOpen{Kind: Parallel, In: 1, Out: 2}, "GW_PAR_OPEN"},
		{"pc", GatewayClose{Kind: Parallel, In: 2, Out: 1}, "GW_PAR_CLOSE"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := g.Classify(node(t, g, tt.id))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestClassify_UnsupportedShapes(t *testing.T) {
	g := mustGraph(t, testutil.BadDegreeChoreography())
	got := g.Classify(node(t, g, "g"))
	assert.Equal(t, Other{Type: ir.NodeParallelGateway, Kind: Parallel, In: 1, Out: 1}, got)
	assert.Equal(t, "GW_PAR(1,1)", got.String())

	c := testutil.NewChoreography("odd").Node("x", ir.NodeType("timerEvent"), "").Build()
	g = mustGraph(t, c)
	assert.Equal(t, "timerEvent(0,0)", g.Classify(node(t, g, "x")).String())
}

func TestNext_ResolvesInFlowOrder(t *testing.T) {
	g := mustGraph(t, testutil.GatewaysChoreography())

	next, err := g.Next(node(t, g, "xo"))
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, "t2", next[0].ID)
	assert.Equal(t, "t3", next[1].ID)

	prev, err := g.Prev(node(t, g, "xc"))
	require.NoError(t, err)
	require.Len(t, prev, 2)
	assert.Equal(t, "t2", prev[0].ID)
	assert.Equal(t, "t4", prev[1].ID)
}

func TestNext_UnresolvedTarget(t *testing.T) {
	c := testutil.NewChoreography("broken").Start("start").Flow("start", "ghost").Build()
	g := mustGraph(t, c)

	_, err := g.Next(node(t, g, "start"))
	require.ErrorIs(t, err, ErrUnresolvedTarget)
	assert.Contains(t, err.Error(), "ghost")
}

func TestStart(t *testing.T) {
	g := mustGraph(t, testutil.SimpleChoreography())
	s, err := g.Start()
	require.NoError(t, err)
	assert.Equal(t, "start", s.ID)
	assert.Len(t, g.Ends(), 1)

	g = mustGraph(t, testutil.NewChoreography("two").Start("a").Start("b").Build())
	_, err = g.Start()
	assert.ErrorIs(t, err, ErrStartEvents)

	g = mustGraph(t, testutil.NewChoreography("none").End("e").Build())
	_, err = g.Start()
	assert.ErrorIs(t, err, ErrStartEvents)
}

func TestParticipants_InitiatorFirst(t *testing.T) {
	c := testutil.DeliveryChoreography()
	// Put the recipient first in the reference list.
	n, _ := c.Node("t1")
	n.Participants = []string{"place", "customer"}
	g := mustGraph(t, c)

	ps, err := g.Participants(node(t, g, "t1"))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Customer", ps[0].Name)
	assert.Equal(t, "Pizza Place", ps[1].Name)

	init, ok, err := g.Initiator(node(t, g, "t1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "customer", init.ID)

	rs, err := g.Recipients(node(t, g, "t1"))
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "place", rs[0].ID)
}

func TestParticipants_Unknown(t *testing.T) {
	c := testutil.NewChoreography("x").Exchange("t", "t", "nobody", "ghost", "m").Build()
	g := mustGraph(t, c)

	_, err := g.Participants(node(t, g, "t"))
	assert.ErrorIs(t, err, ErrUnknownParticipant)

	_, err = g.Messages(node(t, g, "t"))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestMessages_FlowOrder(t *testing.T) {
	g := mustGraph(t, testutil.RequestResponseChoreography())
	ms, err := g.Messages(node(t, g, "t1"))
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "quote request", ms[0].DisplayName())
	assert.Equal(t, "quote", ms[1].DisplayName())
}

func TestReachable(t *testing.T) {
	g := mustGraph(t, testutil.GatewaysChoreography())
	got := g.Reachable(node(t, g, "xo"))
	assert.Equal(t, []string{"xo", "t2", "t3", "xc", "t4", "end"}, got)
}

func TestCycles(t *testing.T) {
	t.Run("dag has none", func(t *testing.T) {
		g := mustGraph(t, testutil.NestedChoreography())
		assert.Empty(t, g.Cycles())
	})

	t.Run("loop is reported", func(t *testing.T) {
		g := mustGraph(t, testutil.LoopChoreography())
		cycles := g.Cycles()
		require.Len(t, cycles, 1)
		assert.Equal(t, []string{"t1", "xo", "t1"}, cycles[0])
	})

	t.Run("self loop", func(t *testing.T) {
		c := testutil.NewChoreography("self").Task("t", "t").Flow("t", "t").Build()
		g := mustGraph(t, c)
		assert.Equal(t, [][]string{{"t", "t"}}, g.Cycles())
	})
}
