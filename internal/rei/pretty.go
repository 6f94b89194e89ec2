package rei

import (
	"fmt"
	"strings"
)

// Pretty renders t as an indented tree, one operator or symbol per line.
// It is meant for diagnostics; the layout is not stable.
func Pretty(t Term) string {
	var b strings.Builder
	pretty(&b, t, 0)
	return b.String()
}

func pretty(b *strings.Builder, t Term, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := t.(type) {
	case Conc:
		fmt.Fprintf(b, "%sCONC\n", indent)
		for _, it := range v.items {
			pretty(b, it, depth+1)
		}
	case Union:
		fmt.Fprintf(b, "%sUNION\n", indent)
		for _, it := range v.items {
			pretty(b, it, depth+1)
		}
	case Par:
		fmt.Fprintf(b, "%sPAR\n", indent)
		for _, it := range v.items {
			pretty(b, it, depth+1)
		}
	case Star:
		fmt.Fprintf(b, "%sSTAR\n", indent)
		pretty(b, v.Inner, depth+1)
	default:
		fmt.Fprintf(b, "%s%s\n", indent, t)
	}
}

// Latex renders t in LaTeX math notation.
func Latex(t Term) string {
	switch v := t.(type) {
	case Start:
		return `\hat{}`
	case End:
		return `\$`
	case Epsilon:
		return `\epsilon`
	case Symbol:
		return `\textit{` + latexEscape(v.Text) + `}`
	case Star:
		if isAtom(v.Inner) {
			return "{" + Latex(v.Inner) + `}^\star`
		}
		return "(" + Latex(v.Inner) + `)^\star`
	case Conc:
		return latexJoin(v.items, ` \cdot `, false)
	case Union:
		return latexJoin(v.items, ` \vert `, true)
	case Par:
		return latexJoin(v.items, ` \& `, true)
	default:
		return ""
	}
}

func latexJoin(items []Term, sep string, paren bool) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = Latex(it)
	}
	s := strings.Join(parts, sep)
	if paren {
		return "(" + s + ")"
	}
	return s
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`_`, `\_`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`{`, `\{`,
	`}`, `\}`,
)

func latexEscape(s string) string {
	return latexReplacer.Replace(s)
}
