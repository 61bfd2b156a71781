package ir

import (
	"fmt"
	"strings"
)

// TermTag is the closed sum of contract-term shapes: quantifier-free atoms
// over last-values, component-call results, and boolean/arithmetic
// connectives. The core never evaluates these, only threads them through
// (spec.md §9 "Contracts as pass-through annotations").
type TermTag uint8

const (
	TermExpr TermTag = iota // a plain boolean/arithmetic Expr
	TermLast                // `last x`
	TermCall                // quantifier-free component-call atom
	TermNot
	TermAnd
	TermOr
	TermImplies
)

// Term is one contract clause.
type Term struct {
	Tag  TermTag
	Expr *Expr // TermExpr
	// TermLast
	Signal ID
	// TermCall
	Callee ID
	Args   []*Expr
	Output string
	// TermAnd / TermOr / TermImplies; TermNot uses Lhs only
	Lhs, Rhs *Term
}

// Signals returns every signal id a term mentions directly, used to build
// the pairwise Contract edges the DepGraph Builder adds (spec.md §4.1
// "Contract edges").
func (t *Term) Signals(out map[ID]bool) {
	if t == nil {
		return
	}
	switch t.Tag {
	case TermExpr:
		for _, d := range t.Expr.Deps {
			out[d.Signal] = true
		}
	case TermLast:
		out[t.Signal] = true
	case TermCall:
		for _, a := range t.Args {
			for _, d := range a.Deps {
				out[d.Signal] = true
			}
		}
	case TermNot:
		t.Lhs.Signals(out)
	case TermAnd, TermOr, TermImplies:
		t.Lhs.Signals(out)
		t.Rhs.Signals(out)
	}
}

// Contract is the three term vectors attached to a component.
type Contract struct {
	Requires  []*Term
	Ensures   []*Term
	Invariant []*Term
}

// AllTerms returns every term across the three vectors, the form most
// Contract-edge and ghost-cell code wants to iterate.
func (c Contract) AllTerms() []*Term {
	out := make([]*Term, 0, len(c.Requires)+len(c.Ensures)+len(c.Invariant))
	out = append(out, c.Requires...)
	out = append(out, c.Ensures...)
	out = append(out, c.Invariant...)
	return out
}

// Render produces the human-readable contract text threaded into IR2's
// pass-through annotation (SPEC_FULL.md §10 "ported contracts"); the core
// never evaluates this text, only carries it. nameOf resolves a signal id
// to its declared name.
func (c Contract) Render(nameOf func(ID) string) string {
	var b strings.Builder
	renderGroup(&b, "requires", c.Requires, nameOf)
	renderGroup(&b, "ensures", c.Ensures, nameOf)
	renderGroup(&b, "invariant", c.Invariant, nameOf)
	return strings.TrimRight(b.String(), "\n")
}

func renderGroup(b *strings.Builder, label string, terms []*Term, nameOf func(ID) string) {
	for _, t := range terms {
		fmt.Fprintf(b, "%s %s\n", label, renderTerm(t, nameOf))
	}
}

func renderTerm(t *Term, nameOf func(ID) string) string {
	if t == nil {
		return ""
	}
	switch t.Tag {
	case TermExpr:
		return renderExprRef(t.Expr, nameOf)
	case TermLast:
		return "last " + nameOf(t.Signal)
	case TermCall:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = renderExprRef(a, nameOf)
		}
		return t.Output + " = call(" + strings.Join(args, ", ") + ")"
	case TermNot:
		return "!(" + renderTerm(t.Lhs, nameOf) + ")"
	case TermAnd:
		return "(" + renderTerm(t.Lhs, nameOf) + " && " + renderTerm(t.Rhs, nameOf) + ")"
	case TermOr:
		return "(" + renderTerm(t.Lhs, nameOf) + " || " + renderTerm(t.Rhs, nameOf) + ")"
	case TermImplies:
		return "(" + renderTerm(t.Lhs, nameOf) + " => " + renderTerm(t.Rhs, nameOf) + ")"
	default:
		return ""
	}
}

// renderExprRef renders a term's boolean/arithmetic expression by its
// mentioned signals, since this repository carries no expression printer:
// the full expression text is a frontend concern, only the referenced
// signals are stable across lowering.
func renderExprRef(e *Expr, nameOf func(ID) string) string {
	if e == nil {
		return ""
	}
	names := make([]string, 0, len(e.Deps))
	seen := map[ID]bool{}
	for _, d := range e.Deps {
		if seen[d.Signal] {
			continue
		}
		seen[d.Signal] = true
		names = append(names, nameOf(d.Signal))
	}
	if len(names) == 0 {
		return "<expr>"
	}
	return "<expr over " + strings.Join(names, ", ") + ">"
}
