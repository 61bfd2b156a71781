// Package normalform implements the Normal-Former (spec.md §4.6): rewrite
// expressions so every component call sits at a statement root and every
// call argument is a simple identifier, hoisting fresh bindings bottom-up.
// Grounded on the teacher's statement-rewriting shape in
// analyzer/node.go's handleAssignment/handleCall (introducing synthetic
// entries for intermediate values).
package normalform

import "github.com/langrust/grust-sub010/internal/ir"

// Fresh mints new signal ids and names for hoisted bindings; the pipeline
// supplies an implementation backed by the real symbol registry.
type Fresh interface {
	NewSignal(typ ir.Type) (ir.ID, string)
}

// Former rewrites a unitary node's equations into normal form.
type Former struct {
	fresh     Fresh
	isComponentCall func(ir.ID) bool
}

// New returns a Former that treats callees for which isComponentCall
// reports true as component calls (vs. plain pure-function application,
// which normal form leaves nested).
func New(fresh Fresh, isComponentCall func(ir.ID) bool) *Former {
	return &Former{fresh: fresh, isComponentCall: isComponentCall}
}

// Normalize rewrites node.Equations in place, appending any hoisted
// bindings needed to keep every remaining component call at a statement
// root (spec.md §4.6 post-condition).
func (f *Former) Normalize(node *ir.UnitaryNode) {
	var out []ir.Equation
	for _, eq := range node.Equations {
		if eq.Expr.IsComponentCall(f.isComponentCall) {
			eq.Expr.Args, out = f.hoistArgs(eq.Expr.Args, out)
			out = append(out, eq)
			continue
		}
		var hoisted []ir.Equation
		eq.Expr, hoisted = f.hoistCallsIn(eq.Expr)
		out = append(out, hoisted...)
		out = append(out, eq)
	}
	node.Equations = out
}

// hoistArgs ensures every argument to a component call is a plain
// identifier, hoisting anything else into a fresh binding pushed onto acc
// before the call (spec.md §4.6 step: "every call argument is a simple
// identifier").
func (f *Former) hoistArgs(args []*ir.Expr, acc []ir.Equation) ([]*ir.Expr, []ir.Equation) {
	out := make([]*ir.Expr, len(args))
	for i, a := range args {
		var hoisted []ir.Equation
		a, hoisted = f.hoistCallsIn(a)
		acc = append(acc, hoisted...)
		if a.Tag != ir.ExIdentifier {
			id, _ := f.fresh.NewSignal(a.Type)
			acc = append(acc, ir.Equation{
				Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: id, Type: a.Type},
				Type:    a.Type,
				Expr:    a,
			})
			out[i] = &ir.Expr{Tag: ir.ExIdentifier, Type: a.Type, Ident: id, Deps: ir.DepSet{{Signal: id}}}
			continue
		}
		out[i] = a
	}
	return out, acc
}

// hoistCallsIn walks e bottom-up; when a sub-expression is itself a
// component call, or a composite containing one that cannot stay nested,
// it is hoisted to a fresh binding and replaced by an identifier reference
// (spec.md §4.6). Match-arm-local statements are pushed into the arm's own
// Body rather than hoisted to the caller's accumulator.
func (f *Former) hoistCallsIn(e *ir.Expr) (*ir.Expr, []ir.Equation) {
	if e == nil {
		return nil, nil
	}
	var acc []ir.Equation

	switch e.Tag {
	case ir.ExUnop, ir.ExFieldAccess, ir.ExTupleElementAccess, ir.ExMap, ir.ExSort, ir.ExFollowedBy:
		e.Sub, acc = f.hoistCallsIn(e.Sub)
	case ir.ExBinop:
		var a1, a2 []ir.Equation
		e.Lhs, a1 = f.hoistCallsIn(e.Lhs)
		e.Rhs, a2 = f.hoistCallsIn(e.Rhs)
		acc = append(a1, a2...)
	case ir.ExIfThenElse:
		var a1, a2, a3 []ir.Equation
		e.Cond, a1 = f.hoistCallsIn(e.Cond)
		e.Then, a2 = f.hoistCallsIn(e.Then)
		e.Else, a3 = f.hoistCallsIn(e.Else)
		acc = append(append(a1, a2...), a3...)
	case ir.ExStructure:
		for k, v := range e.Fields {
			var a []ir.Equation
			e.Fields[k], a = f.hoistCallsIn(v)
			acc = append(acc, a...)
		}
	case ir.ExArray, ir.ExTuple, ir.ExZip:
		for i, v := range e.Elems {
			var a []ir.Equation
			e.Elems[i], a = f.hoistCallsIn(v)
			acc = append(acc, a...)
		}
	case ir.ExFold:
		var a []ir.Equation
		e.InitExpr, a = f.hoistCallsIn(e.InitExpr)
		acc = append(acc, a...)
		for i, v := range e.Elems {
			var a2 []ir.Equation
			e.Elems[i], a2 = f.hoistCallsIn(v)
			acc = append(acc, a2...)
		}
	case ir.ExMatch:
		var a []ir.Equation
		e.Scrutinee, a = f.hoistCallsIn(e.Scrutinee)
		acc = append(acc, a...)
		for i := range e.Arms {
			var local []ir.Equation
			e.Arms[i].Result, local = f.hoistCallsIn(e.Arms[i].Result)
			e.Arms[i].Body = append(e.Arms[i].Body, local...)
		}
	case ir.ExWhen:
		var a []ir.Equation
		e.InitArm, a = f.hoistCallsIn(e.InitArm)
		acc = append(acc, a...)
		for i := range e.Branches {
			var local []ir.Equation
			e.Branches[i].Branch, local = f.hoistCallsIn(e.Branches[i].Branch)
			e.Branches[i].Body = append(e.Branches[i].Body, local...)
		}
	case ir.ExApplication:
		if f.isComponentCall(e.Callee) {
			e.Args, acc = f.hoistArgs(e.Args, acc)
			id, _ := f.fresh.NewSignal(e.Type)
			acc = append(acc, ir.Equation{
				Pattern: ir.Pattern{Tag: ir.PatIdentifier, Ident: id, Type: e.Type},
				Type:    e.Type,
				Expr:    e,
			})
			return &ir.Expr{Tag: ir.ExIdentifier, Type: e.Type, Ident: id, Deps: ir.DepSet{{Signal: id}}}, acc
		}
		for i, a := range e.Args {
			var argAcc []ir.Equation
			e.Args[i], argAcc = f.hoistCallsIn(a)
			acc = append(acc, argAcc...)
		}
	}

	e.Deps = recomputeDeps(e)
	return e, acc
}

func recomputeDeps(e *ir.Expr) ir.DepSet {
	var all ir.DepSet
	switch e.Tag {
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
		return all
	case ir.ExStructure:
		for _, v := range e.Fields {
			all = all.Union(depsOrNil(v))
		}
		return all
	case ir.ExArray, ir.ExTuple, ir.ExZip:
		for _, v := range e.Elems {
			all = all.Union(depsOrNil(v))
		}
		return all
	default:
		return e.Deps
	}
}

func depsOrNil(e *ir.Expr) ir.DepSet {
	if e == nil {
		return nil
	}
	return e.Deps
}
