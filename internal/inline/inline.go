// Package inline implements the Inliner (spec.md §4.4): substitute
// must-inline call sites with the callee's unitary-node body, alpha-renamed
// and with formal inputs substituted by actual arguments. Grounded on the
// teacher's call-site alias/substitution handling in golang_analyzer.go.
package inline

import (
	"github.com/langrust/grust-sub010/internal/depgraph"
	"github.com/langrust/grust-sub010/internal/diag"
	"github.com/langrust/grust-sub010/internal/ir"
)

// Inliner substitutes must-inline call sites in place.
type Inliner struct {
	builder *depgraph.Builder
	bag     *diag.Bag
	fresh   int
	seen    map[uint64]bool
}

// New returns an Inliner that uses builder's reduced-graph fingerprints to
// reject recursive inlining cheaply (SPEC_FULL.md §9).
func New(builder *depgraph.Builder, bag *diag.Bag) *Inliner {
	return &Inliner{builder: builder, bag: bag, seen: map[uint64]bool{}}
}

// Inline rewrites node in place, substituting every equation whose bound
// signal is in mustInline with the callee's body (spec.md §4.4 steps 1-5).
func (in *Inliner) Inline(node *ir.UnitaryNode, mustInline map[ir.ID]bool, reach depgraph.ReachCallee) {
	if len(mustInline) == 0 {
		return
	}

	var rewritten []ir.Equation
	for _, eq := range node.Equations {
		bound := map[ir.ID]bool{}
		eq.Pattern.BoundIDs(bound)

		shouldInline := false
		for id := range bound {
			if mustInline[id] {
				shouldInline = true
				break
			}
		}
		if !shouldInline || eq.Expr.Tag != ir.ExApplication {
			rewritten = append(rewritten, eq)
			continue
		}

		callee := reach(eq.Expr.Callee)
		if callee == nil {
			rewritten = append(rewritten, eq)
			continue
		}
		if rg := in.builder.ReducedGraphFor(callee, reach); rg != nil {
			if fp, err := rg.Fingerprint(); err == nil {
				if in.seen[fp] {
					in.bag.Add(diag.KindCausality, eq.Loc, "recursive inlining detected for "+callee.Name, nil)
					rewritten = append(rewritten, eq)
					continue
				}
				in.seen[fp] = true
			}
		}

		callSite := firstBoundID(bound)
		body := in.cloneCalleeBody(callee, eq.Expr, callSite)
		rewritten = append(rewritten, body...)

		for name, cell := range node.Memory.CalledNodes {
			if cell.CallSite == callSite {
				delete(node.Memory.CalledNodes, name)
			}
		}
	}
	node.Equations = rewritten
}

func firstBoundID(bound map[ir.ID]bool) ir.ID {
	for id := range bound {
		return id
	}
	return ir.Invalid
}

// cloneCalleeBody clones every equation of callee (not only those the
// targeted output needs), alpha-renames each signal it binds or reads to a
// fresh id built from the original id and a per-Inliner counter, and
// substitutes formal inputs by the call's actual argument expressions
// (spec.md §4.4 steps 2-3). The callee's own output signal is bound back to
// callSite rather than renamed fresh, so equations elsewhere that already
// read the call's result keep resolving to the same id after inlining.
func (in *Inliner) cloneCalleeBody(callee *ir.Component, call *ir.Expr, callSite ir.ID) []ir.Equation {
	subst := map[ir.ID]*ir.Expr{}
	for i, formal := range callee.Inputs {
		if i < len(call.Args) {
			subst[formal.ID] = call.Args[i]
		}
	}

	rename := map[ir.ID]ir.ID{}
	if out, ok := callee.Outputs[call.OutputName]; ok {
		rename[out.ID] = callSite
	} else if len(callee.OutputOrder) == 1 {
		rename[callee.Outputs[callee.OutputOrder[0]].ID] = callSite
	}
	renameID := func(id ir.ID) ir.ID {
		if r, ok := rename[id]; ok {
			return r
		}
		in.fresh++
		fresh := ir.ID(uint64(id)<<20 | uint64(in.fresh))
		rename[id] = fresh
		return fresh
	}

	var out []ir.Equation
	for _, eq := range callee.Equations {
		out = append(out, ir.Equation{
			Pattern: renamePattern(eq.Pattern, renameID),
			Type:    eq.Type,
			Expr:    substituteAndRename(eq.Expr, subst, renameID),
			Loc:     eq.Loc,
		})
	}
	return out
}

func renamePattern(p ir.Pattern, renameID func(ir.ID) ir.ID) ir.Pattern {
	out := p
	switch p.Tag {
	case ir.PatIdentifier, ir.PatTyped:
		if p.Ident != ir.Invalid {
			out.Ident = renameID(p.Ident)
		}
	case ir.PatStructure:
		out.Fields = map[string]ir.Pattern{}
		for k, v := range p.Fields {
			out.Fields[k] = renamePattern(v, renameID)
		}
	case ir.PatTuple:
		out.Elems = make([]ir.Pattern, len(p.Elems))
		for i, v := range p.Elems {
			out.Elems[i] = renamePattern(v, renameID)
		}
	case ir.PatEnumeration, ir.PatDefault:
		if p.Inner != nil {
			inner := renamePattern(*p.Inner, renameID)
			out.Inner = &inner
		}
	}
	return out
}

// substituteAndRename rewrites e: identifiers bound to a formal parameter
// become the actual argument expression, every other local identifier is
// alpha-renamed to a fresh id, and dependency sets are recomputed as the
// union of the rewritten sub-parts (spec.md §4.4 step 3).
func substituteAndRename(e *ir.Expr, subst map[ir.ID]*ir.Expr, renameID func(ir.ID) ir.ID) *ir.Expr {
	if e == nil {
		return nil
	}
	out := &ir.Expr{Tag: e.Tag, Type: e.Type, Loc: e.Loc, Const: e.Const, Op: e.Op, Field: e.Field,
		Index: e.Index, Callee: e.Callee, OutputName: e.OutputName, EnumType: e.EnumType, EnumElem: e.EnumElem,
		InitConst: e.InitConst}

	switch e.Tag {
	case ir.ExIdentifier:
		if repl, ok := subst[e.Ident]; ok {
			return repl
		}
		out.Ident = renameID(e.Ident)
	case ir.ExUnop, ir.ExFieldAccess, ir.ExTupleElementAccess, ir.ExMap, ir.ExSort, ir.ExFollowedBy:
		out.Sub = substituteAndRename(e.Sub, subst, renameID)
		out.Fn = substituteAndRename(e.Fn, subst, renameID)
	case ir.ExBinop:
		out.Lhs = substituteAndRename(e.Lhs, subst, renameID)
		out.Rhs = substituteAndRename(e.Rhs, subst, renameID)
	case ir.ExIfThenElse:
		out.Cond = substituteAndRename(e.Cond, subst, renameID)
		out.Then = substituteAndRename(e.Then, subst, renameID)
		out.Else = substituteAndRename(e.Else, subst, renameID)
	case ir.ExApplication:
		for _, a := range e.Args {
			out.Args = append(out.Args, substituteAndRename(a, subst, renameID))
		}
	case ir.ExStructure:
		out.Fields = map[string]*ir.Expr{}
		for k, v := range e.Fields {
			out.Fields[k] = substituteAndRename(v, subst, renameID)
		}
	case ir.ExArray, ir.ExTuple, ir.ExZip:
		for _, v := range e.Elems {
			out.Elems = append(out.Elems, substituteAndRename(v, subst, renameID))
		}
	case ir.ExFold:
		out.InitExpr = substituteAndRename(e.InitExpr, subst, renameID)
		for _, v := range e.Elems {
			out.Elems = append(out.Elems, substituteAndRename(v, subst, renameID))
		}
	case ir.ExMatch:
		out.Scrutinee = substituteAndRename(e.Scrutinee, subst, renameID)
		for _, arm := range e.Arms {
			out.Arms = append(out.Arms, ir.MatchArm{
				Pattern: renamePattern(arm.Pattern, renameID),
				Result:  substituteAndRename(arm.Result, subst, renameID),
			})
		}
	case ir.ExWhen:
		out.InitArm = substituteAndRename(e.InitArm, subst, renameID)
		for _, br := range e.Branches {
			out.Branches = append(out.Branches, ir.WhenBranch{
				Pattern: renamePattern(br.Pattern, renameID),
				Branch:  substituteAndRename(br.Branch, subst, renameID),
			})
		}
	}

	out.Deps = recomputeDeps(out)
	return out
}

// recomputeDeps unions the already-rewritten sub-parts' dependency sets,
// the same union rule depgraph.Builder uses — kept local to avoid a second
// full dependency pass over the substituted body (spec.md §4.4 step 3).
func recomputeDeps(e *ir.Expr) ir.DepSet {
	var all ir.DepSet
	switch e.Tag {
	case ir.ExIdentifier:
		return ir.DepSet{{Signal: e.Ident, Depth: 0}}
	case ir.ExUnop, ir.ExFieldAccess, ir.ExTupleElementAccess, ir.ExMap, ir.ExSort:
		return depsOrNil(e.Sub)
	case ir.ExFollowedBy:
		return depsOrNil(e.Sub).Shift()
	case ir.ExBinop:
		return depsOrNil(e.Lhs).Union(depsOrNil(e.Rhs))
	case ir.ExIfThenElse:
		return depsOrNil(e.Cond).Union(depsOrNil(e.Then), depsOrNil(e.Else))
	case ir.ExApplication:
		for _, a := range e.Args {
			all = all.Union(depsOrNil(a))
		}
	case ir.ExStructure:
		for _, v := range e.Fields {
			all = all.Union(depsOrNil(v))
		}
	case ir.ExArray, ir.ExTuple, ir.ExZip:
		for _, v := range e.Elems {
			all = all.Union(depsOrNil(v))
		}
	case ir.ExFold:
		all = depsOrNil(e.InitExpr)
		for _, v := range e.Elems {
			all = all.Union(depsOrNil(v))
		}
	}
	return all
}

func depsOrNil(e *ir.Expr) ir.DepSet {
	if e == nil {
		return nil
	}
	return e.Deps
}
