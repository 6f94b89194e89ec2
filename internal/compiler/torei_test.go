package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/choreo/internal/graph"
	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/testutil"
)

func mustGraph(t *testing.T, def *ir.Choreography) *graph.Graph {
	t.Helper()
	g, err := graph.New(def)
	require.NoError(t, err)
	return g
}

func TestToREIFixtures(t *testing.T) {
	nested := "'hand over pizza' 'deliver pizza' (Something 'Something else' & 'Another task')"

	tests := []struct {
		name   string
		def    *ir.Choreography
		render TaskRenderer
		want   string
	}{
		{"minimal", testutil.MinimalChoreography(), RenderName, "^$"},
		{"simple", testutil.SimpleChoreography(), RenderName,
			"^'order pizza' 'hand over pizza' 'deliver pizza'$"},
		{"gateways", testutil.GatewaysChoreography(), RenderName,
			"^'order pizza' ('New Activity' | 'hand over pizza' 'deliver pizza')$"},
		{"dangling", testutil.DanglingChoreography(), RenderName,
			"^'order pizza' ('New Activity'$ | 'hand over pizza' 'deliver pizza'$)"},
		{"nested", testutil.NestedChoreography(), RenderName,
			"^'order pizza' ('New Activity' | " + nested + ")$"},
		{"inclusive", testutil.InclusiveChoreography(), RenderName,
			"^'order pizza' (('' | 'New Activity') & ('' | " + nested + "))$"},
		{"intermediate", testutil.IntermediateChoreography(), RenderName,
			"^'order pizza' ('New Activity' | " + nested + " Intermediate)$"},
		{"delivery receive", testutil.DeliveryChoreography(), RenderReceive,
			"^Pizza_Place?pizza_order (Delivery_Boy?Message_1mi4idx Customer?pizza$ | Customer?refusal$)"},
		{"delivery names", testutil.DeliveryChoreography(), nil,
			"^'order pizza' ('hand over pizza' 'deliver pizza'$ | 'refuse order'$)"},
		{"request response", testutil.RequestResponseChoreography(), RenderReceive,
			"^Shop?quote_request Buyer?quote (Shop?payment & Courier?pickup)$"},
		{"dangling and closing branches mixed", testutil.MixedBranchesChoreography(), RenderName,
			"^(c$ | a | b) z$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, err := ToREI(mustGraph(t, tt.def), tt.render)
			require.NoError(t, err)
			assert.Equal(t, tt.want, term.String())
		})
	}
}

func TestToREIStrictInclusive(t *testing.T) {
	g := mustGraph(t, testutil.InclusiveChoreography())
	term, err := ToREIWith(g, REIOptions{StrictInclusive: true})
	require.NoError(t, err)

	b := "'hand over pizza' 'deliver pizza' (Something 'Something else' & 'Another task')"
	want := "^'order pizza' (('New Activity' & ('' | " + b + ")) | (('' | 'New Activity') & " + b + "))$"
	assert.Equal(t, want, term.String())
}

func TestToREIEmptyBranch(t *testing.T) {
	def := testutil.NewChoreography("skip").
		Start("start").
		Gateway("xo", ir.NodeExclusiveGateway).
		Task("t1", "work").
		Gateway("xc", ir.NodeExclusiveGateway).
		End("end").
		Flow("start", "xo", "xc").
		Flow("xo", "t1", "xc").
		Flow("xc", "end").
		Build()

	term, err := ToREI(mustGraph(t, def), RenderName)
	require.NoError(t, err)
	assert.Equal(t, "^('' | work)$", term.String())
}

func TestToREIStructuralErrors(t *testing.T) {
	noStart := testutil.NewChoreography("no-start").
		Task("t1", "a").End("end").
		Flow("t1", "end").
		Build()

	unresolved := testutil.NewChoreography("unresolved").
		Start("start").Task("t1", "a").
		Flow("start", "t1", "ghost").
		Build()

	wrongKind := testutil.NewChoreography("wrong-kind").
		Start("start").
		Gateway("xo", ir.NodeExclusiveGateway).
		Task("a", "a").Task("b", "b").
		Gateway("pc", ir.NodeParallelGateway).
		End("end").
		Flow("start", "xo").
		Flow("xo", "a", "pc").
		Flow("xo", "b", "pc").
		Flow("pc", "end").
		Build()

	strayClose := testutil.NewChoreography("stray-close").
		Start("start").
		Task("a", "a").Task("b", "b").
		Gateway("xc", ir.NodeExclusiveGateway).
		End("end").
		Flow("start", "a", "xc").
		Flow("b", "xc").
		Flow("xc", "end").
		Build()

	tests := []struct {
		name string
		def  *ir.Choreography
		code string
		node string
	}{
		{"no start event", noStart, ErrStartEventCount, ""},
		{"unresolved target", unresolved, ErrUnresolvedTarget, "t1"},
		{"branches close at different gateways", testutil.MismatchChoreography(), ErrGatewayMismatch, "xo"},
		{"close of another kind", wrongKind, ErrGatewayMismatch, "xo"},
		{"close without open", strayClose, ErrGatewayMismatch, "xc"},
		{"too many successors", testutil.TooManySuccessorsChoreography(), ErrTooManySuccessors, "t1"},
		{"unsupported degree", testutil.BadDegreeChoreography(), ErrUnsupportedShape, "g"},
		{"loop", testutil.LoopChoreography(), ErrLoop, "t1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToREI(mustGraph(t, tt.def), RenderName)
			require.Error(t, err)

			var se *StructuralError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.node, se.Node)
			assert.True(t, IsStructural(err, tt.code))
			assert.Contains(t, err.Error(), "["+tt.code+"]")
		})
	}
}

func TestToREIRenderError(t *testing.T) {
	def := testutil.NewChoreography("bad-task").
		Participant("a", "A").Participant("b", "B").Participant("c", "C").
		Message("m", "m").
		Start("start").
		Node("t1", ir.NodeTask, "broadcast").
		End("end").
		Flow("start", "t1", "end").
		Build()
	def.Nodes[1].Initiator = "a"
	def.Nodes[1].Participants = []string{"a", "b", "c"}
	def.Nodes[1].Messages = []string{"m"}

	_, err := ToREI(mustGraph(t, def), RenderReceive)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrTaskRender, se.Code)
	assert.Contains(t, se.Message, "2 recipients")
}

func TestStructuralErrorUnwrap(t *testing.T) {
	def := testutil.NewChoreography("unresolved").
		Start("start").
		Flow("start", "ghost").
		Build()

	_, err := ToREI(mustGraph(t, def), nil)
	assert.ErrorIs(t, err, graph.ErrUnresolvedTarget)
}

func TestRenderReceive(t *testing.T) {
	def := testutil.DeliveryChoreography()
	g := mustGraph(t, def)

	tests := []struct {
		node string
		want string
	}{
		{"t1", "Pizza_Place?pizza_order"},
		{"t2", "Delivery_Boy?Message_1mi4idx"},
		{"t4", "Customer?refusal"},
	}
	for _, tt := range tests {
		t.Run(tt.node, func(t *testing.T) {
			n, err := g.Node(tt.node)
			require.NoError(t, err)
			term, err := RenderReceive(g, n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, term.String())
		})
	}
}

func TestRenderReceiveWithoutMessages(t *testing.T) {
	def := testutil.SimpleChoreography()
	g := mustGraph(t, def)
	n, err := g.Node("t2")
	require.NoError(t, err)

	term, err := RenderReceive(g, n)
	require.NoError(t, err)
	assert.Equal(t, "t2", term.String())
}

func TestRenderNameFallsBackToID(t *testing.T) {
	n := &ir.Node{ID: "Task_0x1", Type: ir.NodeTask, Name: "  "}
	term, err := RenderName(nil, n)
	require.NoError(t, err)
	assert.Equal(t, "Task_0x1", term.String())
}

func TestLookupRenderer(t *testing.T) {
	for _, name := range []string{"", "name", "receive"} {
		r, err := LookupRenderer(name)
		require.NoError(t, err)
		assert.NotNil(t, r)
	}
	_, err := LookupRenderer("xml")
	assert.Error(t, err)
}
