// Package unitary implements the Unitary Splitter (spec.md §4.2): for each
// component output, derive the minimal subset of equations and inputs that
// output actually needs, and report unused signals. Grounded on the
// teacher's reverse-reachability idiom for computing what a single
// identifier's lineage actually touches.
package unitary

import (
	"github.com/langrust/grust-sub010/internal/diag"
	"github.com/langrust/grust-sub010/internal/ir"
)

// Split derives one ir.UnitaryNode per output of comp, and reports every
// local signal and every declared input reached by no output as a Usage
// diagnostic.
func Split(comp *ir.Component, bag *diag.Bag) []*ir.UnitaryNode {
	var nodes []*ir.UnitaryNode
	reached := map[ir.ID]bool{}

	for _, outName := range comp.OutputOrder {
		outID := comp.OutputID(outName)
		used := reverseReach(comp, outID)
		for id := range used {
			reached[id] = true
		}

		node := &ir.UnitaryNode{ParentComponent: comp.ID, OutputName: outName}
		for _, in := range comp.Inputs {
			if used[in.ID] {
				node.Inputs = append(node.Inputs, in)
			}
		}
		for i := range comp.Equations {
			bound := map[ir.ID]bool{}
			comp.Equations[i].Pattern.BoundIDs(bound)
			for id := range bound {
				if used[id] {
					node.Equations = append(node.Equations, comp.Equations[i])
					break
				}
			}
		}
		node.Graph = restrictGraph(comp.Graph, used)
		nodes = append(nodes, node)
	}

	reportUnused(comp, reached, bag)
	return nodes
}

// reverseReach performs a reverse-BFS from out in comp.Graph, returning the
// visited signal-id set (spec.md §4.2 step 1).
func reverseReach(comp *ir.Component, out ir.ID) map[ir.ID]bool {
	visited := map[ir.ID]bool{out: true}
	queue := []ir.ID{out}
	if comp.Graph == nil {
		return visited
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, edge := range comp.Graph.Successors(cur) {
			if !visited[edge.To] {
				visited[edge.To] = true
				queue = append(queue, edge.To)
			}
		}
	}
	return visited
}

func restrictGraph(g *ir.Graph, used map[ir.ID]bool) *ir.Graph {
	out := ir.NewGraph()
	if g == nil {
		return out
	}
	for id, edges := range g.Edges {
		if !used[id] {
			continue
		}
		for _, e := range edges {
			if used[e.To] {
				out.AddEdge(e.From, e.To, e.Label, e.Depth)
			}
		}
	}
	return out
}

// reportUnused adds one KindUsage diagnostic for each local signal and each
// declared input reached by no unitary node. Both go into the same Bag with
// no separate warning severity; outputs are not checked, since every output
// is reached by its own unitary node.
func reportUnused(comp *ir.Component, reached map[ir.ID]bool, bag *diag.Bag) {
	for _, s := range comp.Locals {
		if !reached[s.ID] {
			bag.Add(diag.KindUsage, ir.Location{}, "unused local signal "+s.Name+" in component "+comp.Name, nil)
		}
	}
	for _, in := range comp.Inputs {
		if !reached[in.ID] {
			bag.Add(diag.KindUsage, ir.Location{}, "unused input "+in.Name+" in component "+comp.Name, nil)
		}
	}
}
