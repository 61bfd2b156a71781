package inline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langrust/grust-sub010/internal/depgraph"
	"github.com/langrust/grust-sub010/internal/diag"
	"github.com/langrust/grust-sub010/internal/ir"
	"github.com/langrust/grust-sub010/internal/symtab"
)

func ident(id ir.ID) *ir.Expr { return &ir.Expr{Tag: ir.ExIdentifier, Ident: id} }

// negateComponent is a one-equation callee: out = -in.
func negateComponent(reg symtab.Registry) *ir.Component {
	in := ir.SigSignal{ID: reg.InsertSignal("global", "negate_in", ir.Type{}), Name: "in"}
	out := ir.SigSignal{ID: reg.InsertSignal("global", "negate_out", ir.Type{}), Name: "out"}
	comp := &ir.Component{
		ID:          reg.InsertNode("negate"),
		Name:        "negate",
		Inputs:      []ir.SigSignal{in},
		OutputOrder: []string{"out"},
		Outputs:     map[string]ir.SigSignal{"out": out},
		Equations: []ir.Equation{
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: out.ID}, Expr: &ir.Expr{Tag: ir.ExUnop, Op: "-", Sub: ident(in.ID)}},
		},
	}
	comp.Index()
	return comp
}

func TestInlineSubstitutesCallSiteAndRebindsOutput(t *testing.T) {
	reg := symtab.NewTable()
	bag := diag.NewBag()
	builder := depgraph.NewBuilder(reg, bag)

	callee := negateComponent(reg)

	x := reg.InsertSignal("global", "x", ir.Type{})
	y := reg.InsertSignal("global", "y", ir.Type{})
	downstream := reg.InsertSignal("global", "downstream", ir.Type{})

	byID := map[ir.ID]*ir.Component{callee.ID: callee}
	reach := func(id ir.ID) *ir.Component { return byID[id] }

	node := &ir.UnitaryNode{
		Equations: []ir.Equation{
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: y}, Expr: &ir.Expr{Tag: ir.ExApplication, Callee: callee.ID, Args: []*ir.Expr{ident(x)}}},
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: downstream}, Expr: ident(y)},
		},
		Memory: ir.NewMemory(),
	}

	in := New(builder, bag)
	in.Inline(node, map[ir.ID]bool{y: true}, reach)

	require.Len(t, node.Equations, 2)

	inlined := node.Equations[0]
	assert.Equal(t, y, inlined.Pattern.Ident, "callee output must be rebound to the original call-site signal")
	require.Equal(t, ir.ExUnop, inlined.Expr.Tag)
	require.Equal(t, ir.ExIdentifier, inlined.Expr.Sub.Tag)
	assert.Equal(t, x, inlined.Expr.Sub.Ident, "formal input must be substituted by the actual argument")

	// the downstream equation, which already reads y, must still resolve.
	assert.Equal(t, y, node.Equations[1].Expr.Ident)
}

func TestInlineLeavesNonTargetedEquationsUntouched(t *testing.T) {
	reg := symtab.NewTable()
	bag := diag.NewBag()
	builder := depgraph.NewBuilder(reg, bag)

	callee := negateComponent(reg)
	x := reg.InsertSignal("global", "x", ir.Type{})
	y := reg.InsertSignal("global", "y", ir.Type{})
	z := reg.InsertSignal("global", "z", ir.Type{})

	byID := map[ir.ID]*ir.Component{callee.ID: callee}
	reach := func(id ir.ID) *ir.Component { return byID[id] }

	call := ir.Equation{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: y}, Expr: &ir.Expr{Tag: ir.ExApplication, Callee: callee.ID, Args: []*ir.Expr{ident(x)}}}
	plain := ir.Equation{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: z}, Expr: ident(x)}

	node := &ir.UnitaryNode{
		Equations: []ir.Equation{call, plain},
		Memory:    ir.NewMemory(),
	}

	in := New(builder, bag)
	in.Inline(node, map[ir.ID]bool{}, reach)

	require.Len(t, node.Equations, 2)
	assert.Equal(t, call.Expr, node.Equations[0].Expr)
	assert.Equal(t, plain.Expr, node.Equations[1].Expr)
}

// TestInlineRejectsRecursiveCallGraph exercises the fingerprint-backed
// recursion guard (SPEC_FULL.md §9): a second must-inline call site with
// the same callee reduced graph, seen by the same Inliner instance, must be
// rejected with a causality diagnostic instead of being inlined again.
func TestInlineRejectsRecursiveCallGraph(t *testing.T) {
	reg := symtab.NewTable()
	bag := diag.NewBag()
	builder := depgraph.NewBuilder(reg, bag)

	callee := negateComponent(reg)
	byID := map[ir.ID]*ir.Component{callee.ID: callee}
	reach := func(id ir.ID) *ir.Component { return byID[id] }

	x1 := reg.InsertSignal("global", "x1", ir.Type{})
	y1 := reg.InsertSignal("global", "y1", ir.Type{})
	x2 := reg.InsertSignal("global", "x2", ir.Type{})
	y2 := reg.InsertSignal("global", "y2", ir.Type{})

	in := New(builder, bag)

	node1 := &ir.UnitaryNode{
		Equations: []ir.Equation{
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: y1}, Expr: &ir.Expr{Tag: ir.ExApplication, Callee: callee.ID, Args: []*ir.Expr{ident(x1)}}},
		},
		Memory: ir.NewMemory(),
	}
	in.Inline(node1, map[ir.ID]bool{y1: true}, reach)
	require.Equal(t, ir.ExUnop, node1.Equations[0].Expr.Tag, "first call site must inline normally")
	assert.True(t, bag.Empty())

	node2 := &ir.UnitaryNode{
		Equations: []ir.Equation{
			{Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: y2}, Expr: &ir.Expr{Tag: ir.ExApplication, Callee: callee.ID, Args: []*ir.Expr{ident(x2)}}},
		},
		Memory: ir.NewMemory(),
	}
	in.Inline(node2, map[ir.ID]bool{y2: true}, reach)

	require.Equal(t, ir.ExApplication, node2.Equations[0].Expr.Tag, "second call site must be left as a call, not inlined again")
	require.False(t, bag.Empty())
	assert.Equal(t, diag.KindCausality, bag.All()[0].Kind)
}
