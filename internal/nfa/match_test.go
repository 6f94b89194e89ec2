package nfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// single accepts exactly "foo".
func single(t *testing.T) *NFA {
	t.Helper()
	a := New()
	q0, q1 := a.AddState("q0"), a.AddState("q1")
	require.NoError(t, a.AddTransition(q0, q1, "foo"))
	require.NoError(t, a.SetInitial(q0))
	require.NoError(t, a.AddFinal(q1))
	return a
}

// branching reads "a" into two states, one continuing with "b" and the
// other with "c d".
func branching(t *testing.T) *NFA {
	t.Helper()
	a := New()
	s0, s1, s2, s3 := a.AddState("s0"), a.AddState("s1"), a.AddState("s2"), a.AddState("s3")
	f1, f2 := a.AddState("f1"), a.AddState("f2")
	require.NoError(t, a.AddTransition(s0, s1, "a"))
	require.NoError(t, a.AddTransition(s0, s2, "a"))
	require.NoError(t, a.AddTransition(s1, f1, "b"))
	require.NoError(t, a.AddTransition(s2, s3, "c"))
	require.NoError(t, a.AddTransition(s3, f2, "d"))
	require.NoError(t, a.SetInitial(s0))
	require.NoError(t, a.AddFinal(f1))
	require.NoError(t, a.AddFinal(f2))
	return a
}

func TestReadString_Single(t *testing.T) {
	a := single(t)

	tests := []struct {
		input     string
		accepted  bool
		states    []string
		remaining string
	}{
		{"foo", true, []string{"q1"}, ""},
		{"fie", false, []string{"q0"}, "fie"},
		{"foo fie", false, []string{"q1"}, "fie"},
		{"", false, []string{"q0"}, ""},
		{"  foo", true, []string{"q1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := a.ReadString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.accepted, m.Accepted)
			assert.Equal(t, tt.states, a.Names(m.States))
			assert.Equal(t, tt.remaining, m.Remaining)
		})
	}
}

func TestReadString_Loop(t *testing.T) {
	a := New()
	q0, q1 := a.AddState("q0"), a.AddState("q1")
	require.NoError(t, a.AddTransition(q0, q1, "foo"))
	require.NoError(t, a.AddTransition(q1, q0, "fie"))
	require.NoError(t, a.SetInitial(q0))
	require.NoError(t, a.AddFinal(q0))

	m, err := a.ReadString("")
	require.NoError(t, err)
	assert.True(t, m.Accepted)

	m, err = a.ReadString("foo fie foo fie")
	require.NoError(t, err)
	assert.True(t, m.Accepted)

	m, err = a.ReadString("foo fie foo")
	require.NoError(t, err)
	assert.False(t, m.Accepted)
	assert.Empty(t, m.Remaining)
	assert.Equal(t, []string{"q1"}, a.Names(m.States))
}

func TestReadString_Branching(t *testing.T) {
	a := branching(t)

	t.Run("first branch accepts", func(t *testing.T) {
		m, err := a.ReadString("a b")
		require.NoError(t, err)
		assert.True(t, m.Accepted)
		assert.Equal(t, []string{"f1"}, a.Names(m.States))
	})

	t.Run("second branch accepts", func(t *testing.T) {
		m, err := a.ReadString("a c d")
		require.NoError(t, err)
		assert.True(t, m.Accepted)
		assert.Equal(t, []string{"f2"}, a.Names(m.States))
	})

	t.Run("furthest branch wins", func(t *testing.T) {
		m, err := a.ReadString("a c x")
		require.NoError(t, err)
		assert.False(t, m.Accepted)
		assert.Equal(t, "x", m.Remaining)
		assert.Equal(t, []string{"s3"}, a.Names(m.States))
	})

	t.Run("tied branches unite", func(t *testing.T) {
		m, err := a.ReadString("a z")
		require.NoError(t, err)
		assert.False(t, m.Accepted)
		assert.Equal(t, "z", m.Remaining)
		assert.Equal(t, []string{"s1", "s2"}, a.Names(m.States))
	})
}

func TestReadString_ExtensionState(t *testing.T) {
	a := New()
	q0, q1, q2 := a.AddState("q0"), a.AddState("q1"), a.AddState("q2")
	require.NoError(t, a.AddTransition(q0, q1, "a"))
	require.NoError(t, a.AddTransition(q1, q2, Epsilon))
	require.NoError(t, a.SetInitial(q0))
	require.NoError(t, a.AddFinal(q2))

	// The rejected token leaves the matcher at the accepting state reachable
	// from q1 through epsilon moves.
	m, err := a.ReadString("a b")
	require.NoError(t, err)
	assert.False(t, m.Accepted)
	assert.Equal(t, "b", m.Remaining)
	assert.Equal(t, []string{"q2"}, a.Names(m.States))
}

func TestReadString_Errors(t *testing.T) {
	_, err := New().ReadString("x")
	assert.ErrorIs(t, err, ErrNoInitialState)

	_, err = single(t).ReadString("'foo")
	assert.ErrorIs(t, err, ErrUnterminatedQuote)

	_, err = single(t).ReadStringFrom(99, "foo")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestReadStringFrom(t *testing.T) {
	a := branching(t)
	s3, ok := a.State("s3")
	require.True(t, ok)

	m, err := a.ReadStringFrom(s3, "d")
	require.NoError(t, err)
	assert.True(t, m.Accepted)
}
