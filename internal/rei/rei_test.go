package rei

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sym(s string) Symbol { return Symbol{Text: s} }

func TestNewConc_Flattens(t *testing.T) {
	a, b, c := sym("a"), sym("b"), sym("c")

	got, err := NewConc(a, MustConc(b, c))
	require.NoError(t, err)
	assert.Equal(t, []Term{a, b, c}, got.Items())

	got = MustConc(MustConc(a, b), MustConc(c))
	assert.Equal(t, []Term{a, b, c}, got.Items())
}

func TestNewConc_Empty(t *testing.T) {
	_, err := NewConc()
	assert.ErrorIs(t, err, ErrEmptyConc)

	assert.Panics(t, func() { MustConc() })
}

func TestConstructors_CopyItems(t *testing.T) {
	items := []Term{sym("a"), sym("b")}
	u := NewUnion(items...)
	items[0] = sym("z")
	assert.Equal(t, "(a | b)", u.String())

	got := u.Items()
	got[1] = sym("y")
	assert.Equal(t, "(a | b)", u.String())
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"symbol", sym("foo"), "foo"},
		{"symbol with space", sym("order pizza"), "'order pizza'"},
		{"empty symbol", sym(""), "''"},
		{"epsilon", Epsilon{}, "''"},
		{"start end", MustConc(Start{}, End{}), "^$"},
		{"sequence", MustConc(Start{}, sym("a"), sym("b c"), End{}), "^a 'b c'$"},
		{"union", NewUnion(sym("a"), MustConc(sym("b"), sym("c"))), "(a | b c)"},
		{"par", NewPar(sym("a"), sym("b")), "(a & b)"},
		{"star atom", NewStar(sym("a")), "a*"},
		{"star composite", NewStar(MustConc(sym("a"), sym("b"))), "(a b)*"},
		{"dangling end inside union", NewUnion(MustConc(sym("x"), End{}), sym("y")), "(x$ | y)"},
		{"no space after end", MustConc(sym("x"), End{}, sym("y")), "x$y"},
		{
			"inclusive shape",
			NewPar(NewUnion(Epsilon{}, sym("New Activity")), NewUnion(Epsilon{}, sym("b"))),
			"(('' | 'New Activity') & ('' | b))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.String())
		})
	}
}

func TestSymbols(t *testing.T) {
	term := MustConc(Start{}, sym("b"), NewPar(sym("a"), NewStar(sym("b"))), Epsilon{}, End{})
	assert.Equal(t, []string{"a", "b"}, Symbols(term))
}

func TestWalk_PreOrder(t *testing.T) {
	var seen []string
	Walk(NewUnion(sym("a"), NewStar(sym("b"))), func(t Term) {
		seen = append(seen, t.String())
	})
	assert.Equal(t, []string{"(a | b*)", "a", "b*", "b"}, seen)
}

func TestPretty(t *testing.T) {
	got := Pretty(MustConc(Start{}, NewUnion(sym("a"), sym("b")), End{}))
	assert.Equal(t, "CONC\n  ^\n  UNION\n    a\n    b\n  $\n", got)
}

func TestLatex(t *testing.T) {
	term := MustConc(Start{}, NewPar(sym("a_b"), NewStar(sym("c"))), NewUnion(Epsilon{}, sym("d")), End{})
	assert.Equal(t,
		`\hat{} \cdot (\textit{a\_b} \& {\textit{c}}^\star) \cdot (\epsilon \vert \textit{d}) \cdot \$`,
		Latex(term))
}
