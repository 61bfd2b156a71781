// Package schedule implements the Scheduler (spec.md §4.5): topologically
// order a unitary node's equations using the weight-0 subgraph, breaking
// ties by original source order. Grounded on the determinism the teacher's
// own golden-fixture tests require of every traversal order.
package schedule

import "github.com/langrust/grust-sub010/internal/ir"

// Order reorders node.Equations in place into a topological order of the
// weight-0 dependency subgraph, ties broken by the equations' original
// index (spec.md §4.5 step 3).
func Order(node *ir.UnitaryNode) {
	if len(node.Equations) == 0 {
		return
	}

	boundOf := map[ir.ID]int{}
	for i, eq := range node.Equations {
		bound := map[ir.ID]bool{}
		eq.Pattern.BoundIDs(bound)
		for id := range bound {
			boundOf[id] = i
		}
	}

	indeg := make([]int, len(node.Equations))
	depends := make([][]int, len(node.Equations))
	for i, eq := range node.Equations {
		for _, d := range eq.Expr.Deps {
			if d.Depth != 0 {
				continue
			}
			if dependsOnIdx, ok := boundOf[d.Signal]; ok && dependsOnIdx != i {
				depends[dependsOnIdx] = append(depends[dependsOnIdx], i)
				indeg[i]++
			}
		}
	}

	ready := make([]int, 0, len(node.Equations))
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	var orderIdx []int
	for len(ready) > 0 {
		// pick the smallest original index among ready equations to keep
		// ties broken by source order (spec.md §4.5 step 3).
		minPos, minIdx := 0, ready[0]
		for k, idx := range ready {
			if idx < minIdx {
				minIdx, minPos = idx, k
			}
		}
		ready = append(ready[:minPos], ready[minPos+1:]...)
		orderIdx = append(orderIdx, minIdx)

		for _, next := range depends[minIdx] {
			indeg[next]--
			if indeg[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(orderIdx) != len(node.Equations) {
		// a residual weight-0 cycle slipped past the Causality Analyzer;
		// fall back to original order rather than dropping equations.
		return
	}

	reordered := make([]ir.Equation, len(node.Equations))
	for newPos, oldIdx := range orderIdx {
		reordered[newPos] = node.Equations[oldIdx]
	}
	node.Equations = reordered
}
