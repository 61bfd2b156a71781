// Package isle implements the Isle Analyzer (spec.md §4.8): per service
// event, compute the ordered, duplicate-free set of statement indices that
// must execute in reaction to it. Grounded on the teacher's forward
// transitive-reachability pass (analyzer/touchpoint.go
// applyTransitiveDependencies) composed with its dedup pass
// (removeDuplicateDependencies).
package isle

import (
	"sort"

	"github.com/langrust/grust-sub010/internal/ir"
)

// StatementKind distinguishes the kinds of flow statements the Flow Graph
// labels carry; only StatementCall statements survive into an isle
// (spec.md §4.8 step 3).
type StatementKind uint8

const (
	StatementCall StatementKind = iota
	StatementOther
)

// Build computes the full isle table for a service (spec.md §4.8).
//
// kindOf reports whether statement i is a component-call statement.
// triggers maps a flow id to the statement indices directly triggered by
// its arrival (component-call statements whose inputs include that event,
// or whose incoming edges include that timer — spec.md §4.8
// "Event-to-statements map").
// realEvents is the set of event/timer flow ids not producible by any
// component (spec.md §4.8 "Real events").
func Build(svc *ir.Service, kindOf func(stmt int) StatementKind, triggers map[ir.ID][]int, realEvents map[ir.ID]bool) *ir.IsleTable {
	table := &ir.IsleTable{ServiceID: svc.ID, Isles: map[ir.ID]ir.Isle{}}

	eventful := map[int]bool{}
	for _, stmts := range triggers {
		for _, s := range stmts {
			eventful[s] = true
		}
	}

	for event := range realEvents {
		topLevel := triggers[event]
		if len(topLevel) == 0 {
			table.Isles[event] = ir.Isle{}
			continue
		}
		table.Isles[event] = computeIsle(svc, topLevel, eventful, kindOf)
	}
	return table
}

// computeIsle runs the backward DFS from topLevel: the Flow Graph's edges
// point dependent -> dependency (spec.md §3 "From depends on To"), so
// cascading forward from an event-triggered statement to whatever reads
// its output means walking the graph in reverse — finding every statement
// that has an edge pointing at an already-reached one. The walk prunes at
// any statement that is itself eventful (directly triggered by some real
// event) but not part of this event's own top-level set: such a statement
// only fires on its own driving event's arrival, never as a pass-through
// consequence of a different one (spec.md §4.8 algorithm steps 1-4).
func computeIsle(svc *ir.Service, topLevel []int, eventful map[int]bool, kindOf func(int) StatementKind) ir.Isle {
	top := map[int]bool{}
	for _, s := range topLevel {
		top[s] = true
	}
	preds := predecessors(svc)

	visited := map[int]bool{}
	var visit func(stmt int)
	visit = func(stmt int) {
		if visited[stmt] {
			return
		}
		visited[stmt] = true
		for _, dependent := range preds[stmt] {
			if eventful[dependent] && !top[dependent] {
				continue
			}
			visit(dependent)
		}
	}
	for s := range top {
		visit(s)
	}

	var out []int
	for stmt := range visited {
		if kindOf(stmt) == StatementCall {
			out = append(out, stmt)
		}
	}
	sort.Ints(out)
	return ir.Isle(out)
}

// predecessors inverts svc.Graph: predecessors[to] lists every statement
// whose equation reads to's output (i.e. every "from" with an edge
// from -> to).
func predecessors(svc *ir.Service) map[int][]int {
	out := map[int][]int{}
	if svc.Graph == nil {
		return out
	}
	for from, edges := range svc.Graph.Edges {
		for _, e := range edges {
			out[int(e.To)] = append(out[int(e.To)], int(from))
		}
	}
	return out
}

// RealEvents computes the "real event" set: every import of Kind Event
// that is not also produced as a component output (spec.md §4.8 "Real
// events"). Each import is checked directly; no graph is walked, and
// timers count only when declared as Event imports. producedByComponent
// reports whether a flow id is ever produced as a component output inside
// the service.
func RealEvents(svc *ir.Service, producedByComponent func(ir.ID) bool) map[ir.ID]bool {
	out := map[ir.ID]bool{}
	for _, f := range svc.Imports {
		if f.Kind != ir.Event {
			continue
		}
		if !producedByComponent(f.ID) {
			out[f.ID] = true
		}
	}
	return out
}
