// Package causality implements the Causality Analyzer (spec.md §4.3):
// detect cycles in the current-value (weight-0) subgraph of a unitary node,
// and flag the component calls whose inlining would break a "shifted" loop.
// Grounded on the teacher's white/grey/black node-state discipline used to
// avoid aliasing re-entrant scope ids.
package causality

import "github.com/langrust/grust-sub010/internal/ir"

type color uint8

const (
	white color = iota
	grey
	black
)

// Result reports whether a unitary node is causal and, when it isn't
// purely because of hybrid cycles, which call sites must be inlined to fix
// it (spec.md §4.3 "Shifted loop handling").
type Result struct {
	Causal      bool
	MustInline  map[ir.ID]bool // signal ids bound by a call-site equation that must inline
	CycleSignal ir.ID          // first signal found on an unresolvable weight-0 cycle, if any
}

// Analyze restricts node.Graph to weight-0 edges and runs a standard
// DFS cycle check; hybrid cycles (mixing weight-0 and weight>=1 edges) are
// only tolerated when every weight-0 edge on the cycle passes through a
// call site the caller can inline (detected via callWeight, which reports
// the reduced-graph weight from a callee's called output back to the
// argument feeding the offending input — see spec.md §4.3).
func Analyze(node *ir.UnitaryNode, callWeight func(stmt ir.ID) int) Result {
	res := Result{Causal: true, MustInline: map[ir.ID]bool{}}
	if node.Graph == nil {
		return res
	}

	colors := map[ir.ID]color{}

	var visit func(id ir.ID) bool
	visit = func(id ir.ID) bool {
		colors[id] = grey
		for _, e := range node.Graph.Successors(id) {
			if e.Label != ir.LabelWeight || e.Depth != 0 {
				continue
			}
			switch colors[e.To] {
			case white:
				if visit(e.To) {
					return true
				}
			case grey:
				// found a weight-0 cycle: try to resolve via inlining.
				if w := callWeight(id); w >= 1 {
					res.MustInline[id] = true
					continue
				}
				res.Causal = false
				res.CycleSignal = e.To
				return true
			}
		}
		colors[id] = black
		return false
	}

	for _, id := range node.Graph.Nodes() {
		if colors[id] == white {
			if visit(id) {
				break
			}
		}
	}
	return res
}
