// Package depgraph implements the DepGraph Builder (spec.md §4.1): it
// populates each stream-expression's dependency set and assembles a
// component's dependency graph, grounded on analyzer/node.go's per-node-kind
// walk and analyzer/touchpoint.go's transitive-closure pass in the teacher.
package depgraph

import (
	"github.com/langrust/grust-sub010/internal/diag"
	"github.com/langrust/grust-sub010/internal/ir"
	"github.com/langrust/grust-sub010/internal/symtab"
)

// Builder computes dependency sets and graphs for a Component.
type Builder struct {
	reg  symtab.Registry
	bag  *diag.Bag
	comp *ir.Component

	// color tracks DFS visitation state per signal id while walking
	// equations, the standard white/grey/black cycle-detection machinery
	// spec.md §4.1 "Errors" relies on.
	color map[ir.ID]color
	// reduced caches reduced graphs per component id, since a call site may
	// reference the same callee's reduced graph many times.
	reduced map[ir.ID]*ReducedGraph
}

type color uint8

const (
	white color = iota
	grey
	black
)

// ReachCallee resolves another component by id, used to fetch the callee's
// reduced graph when computing a component-call's dependencies. The caller
// (the pipeline) supplies this once all components have had their own
// reduced graphs computed, bottom-up over the (acyclic, per spec.md §4.4)
// call graph.
type ReachCallee func(id ir.ID) *ir.Component

// NewBuilder returns a Builder reporting diagnostics into bag.
func NewBuilder(reg symtab.Registry, bag *diag.Bag) *Builder {
	return &Builder{reg: reg, bag: bag, color: map[ir.ID]color{}, reduced: map[ir.ID]*ReducedGraph{}}
}

// Build populates comp.Graph and every equation's expression Deps field,
// resolving component-call dependencies through reach. It must be called
// in callee-before-caller order across a file's components (spec.md §4.4
// notes the call graph is checked acyclic separately).
func (b *Builder) Build(comp *ir.Component, reach ReachCallee) {
	b.comp = comp
	comp.Graph = ir.NewGraph()
	b.color = map[ir.ID]color{}

	for i := range comp.Equations {
		eq := &comp.Equations[i]
		bound := map[ir.ID]bool{}
		eq.Pattern.BoundIDs(bound)

		b.markGrey(bound)
		eq.Expr.Deps = b.depsOf(eq.Expr, reach)
		// only a depth-0 dependency on a grey signal is a cycle; one reached
		// through an fby (or a shifting call) reads the previous instant.
		for _, dep := range eq.Expr.Deps {
			if dep.Depth == 0 && b.color[dep.Signal] == grey {
				b.bag.Add(diag.KindCausality, eq.Expr.Loc, "causality cycle on signal "+b.reg.GetName(dep.Signal), nil)
				break
			}
		}
		b.markBlack(bound)

		for id := range bound {
			for _, dep := range eq.Expr.Deps {
				comp.Graph.AddEdge(id, dep.Signal, ir.LabelWeight, dep.Depth)
			}
		}
	}

	b.addContractEdges(comp)
}

func (b *Builder) markGrey(ids map[ir.ID]bool) {
	for id := range ids {
		b.color[id] = grey
	}
}

func (b *Builder) markBlack(ids map[ir.ID]bool) {
	for id := range ids {
		b.color[id] = black
	}
}

// depsOf computes dep(e) compositionally per spec.md §4.1's table.
func (b *Builder) depsOf(e *ir.Expr, reach ReachCallee) ir.DepSet {
	if e == nil {
		return nil
	}
	switch e.Tag {
	case ir.ExConstant, ir.ExEnumeration:
		return nil
	case ir.ExIdentifier:
		if b.reg.IsFunction(e.Ident) {
			return nil
		}
		return ir.DepSet{{Signal: e.Ident, Depth: 0}}
	case ir.ExUnop, ir.ExFieldAccess, ir.ExTupleElementAccess:
		return b.depsOf(e.Sub, reach)
	case ir.ExMap, ir.ExSort:
		return b.depsOf(e.Sub, reach)
	case ir.ExBinop:
		return b.depsOf(e.Lhs, reach).Union(b.depsOf(e.Rhs, reach))
	case ir.ExIfThenElse:
		return b.depsOf(e.Cond, reach).Union(b.depsOf(e.Then, reach), b.depsOf(e.Else, reach))
	case ir.ExZip:
		var all ir.DepSet
		for _, el := range e.Elems {
			all = all.Union(b.depsOf(el, reach))
		}
		return all
	case ir.ExStructure:
		var all ir.DepSet
		for _, f := range e.Fields {
			all = all.Union(b.depsOf(f, reach))
		}
		return all
	case ir.ExArray, ir.ExTuple:
		var all ir.DepSet
		for _, el := range e.Elems {
			all = all.Union(b.depsOf(el, reach))
		}
		return all
	case ir.ExFold:
		all := b.depsOf(e.InitExpr, reach)
		for _, el := range e.Elems {
			all = all.Union(b.depsOf(el, reach))
		}
		return all
	case ir.ExApplication:
		return b.applicationDeps(e, reach)
	case ir.ExMatch:
		all := b.depsOf(e.Scrutinee, reach)
		for _, arm := range e.Arms {
			bound := map[ir.ID]bool{}
			arm.Pattern.BoundIDs(bound)
			var armDeps ir.DepSet
			for i := range arm.Body {
				armDeps = armDeps.Union(arm.Body[i].Expr.Deps)
			}
			armDeps = armDeps.Union(b.depsOf(arm.Result, reach))
			all = all.Union(armDeps.Without(bound))
		}
		return all
	case ir.ExWhen:
		all := b.depsOf(e.InitArm, reach)
		for _, br := range e.Branches {
			bound := map[ir.ID]bool{}
			br.Pattern.BoundIDs(bound)
			all = all.Union(b.depsOf(br.Branch, reach).Without(bound))
		}
		return all
	case ir.ExFollowedBy:
		return b.depsOf(e.Sub, reach).Shift()
	default:
		return nil
	}
}

// applicationDeps handles both plain function application (union of
// argument deps, no weight contribution) and component calls, which
// consult the callee's reduced graph for the per-argument weight (spec.md
// §4.1's ComponentCall row).
func (b *Builder) applicationDeps(e *ir.Expr, reach ReachCallee) ir.DepSet {
	if b.reg.IsFunction(e.Callee) {
		var all ir.DepSet
		for _, a := range e.Args {
			all = all.Union(b.depsOf(a, reach))
		}
		return all
	}

	callee := reach(e.Callee)
	var rg *ReducedGraph
	if callee != nil {
		rg = b.ReducedGraphFor(callee, reach)
	}

	var all ir.DepSet
	for j, a := range e.Args {
		argDeps := b.depsOf(a, reach)
		w := 0
		if rg != nil && j < len(callee.Inputs) {
			w = rg.Weight(e.OutputName, callee.Inputs[j].ID)
		}
		if w == 0 {
			all = all.Union(argDeps)
			continue
		}
		shifted := make(ir.DepSet, len(argDeps))
		for i, d := range argDeps {
			shifted[i] = ir.Dep{Signal: d.Signal, Depth: d.Depth + w}
		}
		all = all.Union(shifted)
	}
	return all
}

func (b *Builder) addContractEdges(comp *ir.Component) {
	for _, t := range comp.Contract.AllTerms() {
		mentioned := map[ir.ID]bool{}
		t.Signals(mentioned)
		ids := make([]ir.ID, 0, len(mentioned))
		for id := range mentioned {
			ids = append(ids, id)
		}
		for i := 0; i < len(ids); i++ {
			for j := 0; j < len(ids); j++ {
				if i == j {
					continue
				}
				comp.Graph.AddEdge(ids[i], ids[j], ir.LabelContract, 0)
			}
		}
	}
}
