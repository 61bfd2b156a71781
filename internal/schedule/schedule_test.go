package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/langrust/grust-sub010/internal/ir"
)

func ident(id ir.ID) *ir.Expr { return &ir.Expr{Tag: ir.ExIdentifier, Ident: id, Deps: ir.DepSet{{Signal: id, Depth: 0}}} }

func TestOrderTopologicallySortsDependencies(t *testing.T) {
	const (
		in ir.ID = iota + 1
		out
		a
		b
	)

	// declared out of dependency order: a depends on out, b and out are
	// both independent of everything but in.
	node := &ir.UnitaryNode{
		Equations: []ir.Equation{
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: a}, Expr: ident(out)},
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: out}, Expr: ident(in)},
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: b}, Expr: ident(in)},
		},
	}

	Order(node)

	var boundOrder []ir.ID
	for _, eq := range node.Equations {
		boundOrder = append(boundOrder, eq.Pattern.Ident)
	}

	outPos, aPos := -1, -1
	for i, id := range boundOrder {
		if id == out {
			outPos = i
		}
		if id == a {
			aPos = i
		}
	}
	assert.True(t, outPos < aPos, "out must be scheduled before a, which reads it")
}

func TestOrderBreaksTiesBySourceOrder(t *testing.T) {
	const (
		x ir.ID = iota + 1
		y
	)
	node := &ir.UnitaryNode{
		Equations: []ir.Equation{
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: y}, Expr: &ir.Expr{Tag: ir.ExConstant, Deps: nil}},
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: x}, Expr: &ir.Expr{Tag: ir.ExConstant, Deps: nil}},
		},
	}

	Order(node)

	assert.Equal(t, y, node.Equations[0].Pattern.Ident)
	assert.Equal(t, x, node.Equations[1].Pattern.Ident)
}

func TestOrderIgnoresShiftedDependencies(t *testing.T) {
	const (
		a ir.ID = iota + 1
		b
	)
	// b = fby(a) at depth 1: not a weight-0 edge, so ordering is untouched
	// even though a textually follows b.
	node := &ir.UnitaryNode{
		Equations: []ir.Equation{
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: b}, Expr: &ir.Expr{Tag: ir.ExFollowedBy, Deps: ir.DepSet{{Signal: a, Depth: 1}}}},
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: a}, Expr: &ir.Expr{Tag: ir.ExConstant}},
		},
	}

	Order(node)

	assert.Equal(t, b, node.Equations[0].Pattern.Ident)
	assert.Equal(t, a, node.Equations[1].Pattern.Ident)
}

func TestOrderEmptyIsNoop(t *testing.T) {
	node := &ir.UnitaryNode{}
	Order(node)
	assert.Empty(t, node.Equations)
}
