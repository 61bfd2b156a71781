// Package memorize implements the Memorizer (spec.md §4.7): allocate state
// cells for every `fby`, every stateful component-call statement, and every
// `last`/call-bearing contract term, producing IR1 from the normalized
// tree. Grounded on the teacher's flat, id-keyed entity-store pattern in
// analyzer/package.go's Idents map.
package memorize

import (
	"strconv"

	"github.com/langrust/grust-sub010/internal/ir"
)

// IsStateful reports whether callee carries its own state (has a Memory
// with at least one cell after its own unitary node was memorized) —
// pure/stateless components need no cell, only stateful ones do (spec.md
// §4.7 "Stateful-call cells").
type IsStateful func(callee ir.ID) bool

// Fresh mints a new signal id for a cell's read reference; the pipeline
// supplies an implementation backed by the real symbol registry (the same
// one normalform.Fresh uses).
type Fresh interface {
	NewSignal(typ ir.Type) (ir.ID, string)
}

// Memorize rewrites node in place into IR1 shape: every FollowedBy
// subtree becomes a buffer cell plus an identifier reference, and every
// remaining stateful component-call statement becomes a called-node cell.
// Contract terms mentioning `last` or a component call get ghost cells.
func Memorize(node *ir.UnitaryNode, stateful IsStateful, contract ir.Contract, fresh Fresh) {
	if node.Memory.Buffers == nil {
		node.Memory = ir.NewMemory()
	}

	counter := 0
	for i := range node.Equations {
		node.Equations[i].Expr = replaceFby(node.Equations[i].Expr, &node.Memory, &counter, fresh)
	}

	for _, eq := range node.Equations {
		if eq.Expr.Tag != ir.ExApplication {
			continue
		}
		if !stateful(eq.Expr.Callee) {
			continue
		}
		bound := map[ir.ID]bool{}
		eq.Pattern.BoundIDs(bound)
		callSite := ir.Invalid
		for id := range bound {
			callSite = id
			break
		}
		name := "call_" + strconv.Itoa(counter)
		counter++
		node.Memory.AddCalledNode(&ir.CalledNodeCell{
			Name:     name,
			Callee:   eq.Expr.Callee,
			Output:   eq.Expr.OutputName,
			CallSite: callSite,
		})
	}

	memorizeGhosts(contract, &node.Memory, &counter)
}

// replaceFby walks e bottom-up, turning every FollowedBy node into an
// identifier referencing a newly allocated buffer cell whose Update holds
// the (already rewritten) tail expression (spec.md §4.7 rule 1). Each cell
// gets its own fresh signal id rather than reusing the enclosing equation's
// bound signal: a single equation can nest more than one `fby` (e.g.
// `o = 0 fby (i + (1 fby i))`), and reusing the equation's own output id for
// every nested cell would collapse them all onto one reference, making the
// inner cell's value unreachable and the outer cell's Update read the
// equation's own output instead of the inner cell.
func replaceFby(e *ir.Expr, mem *ir.Memory, counter *int, fresh Fresh) *ir.Expr {
	if e == nil {
		return nil
	}
	switch e.Tag {
	case ir.ExUnop, ir.ExFieldAccess, ir.ExTupleElementAccess, ir.ExMap, ir.ExSort:
		e.Sub = replaceFby(e.Sub, mem, counter, fresh)
	case ir.ExBinop:
		e.Lhs = replaceFby(e.Lhs, mem, counter, fresh)
		e.Rhs = replaceFby(e.Rhs, mem, counter, fresh)
	case ir.ExIfThenElse:
		e.Cond = replaceFby(e.Cond, mem, counter, fresh)
		e.Then = replaceFby(e.Then, mem, counter, fresh)
		e.Else = replaceFby(e.Else, mem, counter, fresh)
	case ir.ExStructure:
		for k, v := range e.Fields {
			e.Fields[k] = replaceFby(v, mem, counter, fresh)
		}
	case ir.ExArray, ir.ExTuple, ir.ExZip:
		for i, v := range e.Elems {
			e.Elems[i] = replaceFby(v, mem, counter, fresh)
		}
	case ir.ExApplication:
		for i, a := range e.Args {
			e.Args[i] = replaceFby(a, mem, counter, fresh)
		}
	case ir.ExFold:
		e.InitExpr = replaceFby(e.InitExpr, mem, counter, fresh)
		for i, v := range e.Elems {
			e.Elems[i] = replaceFby(v, mem, counter, fresh)
		}
	case ir.ExMatch:
		e.Scrutinee = replaceFby(e.Scrutinee, mem, counter, fresh)
		for i := range e.Arms {
			e.Arms[i].Result = replaceFby(e.Arms[i].Result, mem, counter, fresh)
		}
	case ir.ExWhen:
		e.InitArm = replaceFby(e.InitArm, mem, counter, fresh)
		for i := range e.Branches {
			e.Branches[i].Branch = replaceFby(e.Branches[i].Branch, mem, counter, fresh)
		}
	case ir.ExFollowedBy:
		e.Sub = replaceFby(e.Sub, mem, counter, fresh)
		name := "mem_" + strconv.Itoa(*counter)
		(*counter)++
		cellID, _ := fresh.NewSignal(e.Type)
		mem.AddBuffer(&ir.BufferCell{Name: name, Type: e.Type, Init: e.InitConst, Update: e.Sub, OwnerID: cellID})
		return &ir.Expr{Tag: ir.ExIdentifier, Type: e.Type, Ident: cellID, Deps: ir.DepSet{}}
	}
	return e
}

// memorizeGhosts allocates ghost cells for contract terms mentioning `last`
// or a component call (spec.md §4.7 "ghost memory cells"); these are never
// read by the runtime, only threaded into emitted annotations.
func memorizeGhosts(contract ir.Contract, mem *ir.Memory, counter *int) {
	for _, t := range contract.AllTerms() {
		walkGhosts(t, mem, counter)
	}
}

func walkGhosts(t *ir.Term, mem *ir.Memory, counter *int) {
	if t == nil {
		return
	}
	switch t.Tag {
	case ir.TermLast:
		name := "ghost_" + strconv.Itoa(*counter)
		(*counter)++
		mem.AddGhostCalledNode(&ir.CalledNodeCell{Name: name, CallSite: t.Signal})
	case ir.TermCall:
		name := "ghost_" + strconv.Itoa(*counter)
		(*counter)++
		mem.AddGhostCalledNode(&ir.CalledNodeCell{Name: name, Callee: t.Callee, Output: t.Output})
	case ir.TermNot:
		walkGhosts(t.Lhs, mem, counter)
	case ir.TermAnd, ir.TermOr, ir.TermImplies:
		walkGhosts(t.Lhs, mem, counter)
		walkGhosts(t.Rhs, mem, counter)
	}
}
