// Package pipeline orchestrates the full HIR-to-IR2 lowering in the order
// spec.md §1 lists: DepGraph Builder, Unitary Splitter, Causality Analyzer,
// Inliner, Scheduler, Normal-Former, Memorizer, Isle Analyzer, Weight &
// Parallelization, IR2 Builder. Grounded on the teacher's single top-level
// AnalyzeAll entry point in analyzer/package.go, which drives every pass
// over a project in one deterministic call.
package pipeline

import (
	"sort"
	"strconv"

	"github.com/langrust/grust-sub010/internal/causality"
	"github.com/langrust/grust-sub010/internal/config"
	"github.com/langrust/grust-sub010/internal/depgraph"
	"github.com/langrust/grust-sub010/internal/diag"
	"github.com/langrust/grust-sub010/internal/inline"
	"github.com/langrust/grust-sub010/internal/ir"
	"github.com/langrust/grust-sub010/internal/ir2"
	"github.com/langrust/grust-sub010/internal/isle"
	"github.com/langrust/grust-sub010/internal/memorize"
	"github.com/langrust/grust-sub010/internal/normalform"
	"github.com/langrust/grust-sub010/internal/schedule"
	"github.com/langrust/grust-sub010/internal/symtab"
	"github.com/langrust/grust-sub010/internal/unitary"
	"github.com/langrust/grust-sub010/internal/weight"
)

// maxInlinePasses bounds the causality/inline fixed-point loop; a shifted
// loop is resolved in one pass in every example this repository has seen,
// but a pathological nest of calls could need more, and a genuine
// non-causal cycle must still terminate rather than spin forever.
const maxInlinePasses = 8

// Compile lowers file end-to-end, returning the IR2 output and every
// diagnostic accumulated along the way (spec.md §7: never fail fast).
func Compile(file *ir.File, reg symtab.Registry, cfg config.Config) (*ir2.File, *diag.Bag) {
	bag := diag.NewBag()
	validateParallelization(file, cfg, bag)
	builder := depgraph.NewBuilder(reg, bag)

	byID := map[ir.ID]*ir.Component{}
	for i := range file.Components {
		byID[file.Components[i].ID] = &file.Components[i]
	}
	reach := func(id ir.ID) *ir.Component { return byID[id] }

	order := callOrder(file.Components, reg)

	externWeight := func(fn ir.ID) (int, bool) {
		for _, f := range file.Functions {
			if f.ID == fn && f.WeightPercent != nil {
				return *f.WeightPercent, true
			}
		}
		return 0, false
	}

	stateful := map[ir.ID]bool{}
	out := &ir2.File{}

	for _, comp := range order {
		if bag.IsFatal() {
			return out, bag
		}
		comp.Index()
		builder.Build(comp, reach)

		nodes := unitary.Split(comp, bag)
		compHasState := false

		for _, node := range nodes {
			runCausalityAndInline(builder, bag, node, reach)
			schedule.Order(node)

			fresh := &signalFresh{reg: reg, scope: "local"}
			former := normalform.New(fresh, func(id ir.ID) bool { return byID[id] != nil })
			former.Normalize(node)

			memorize.Memorize(node, func(callee ir.ID) bool { return stateful[callee] }, comp.Contract, fresh)
			if node.Memory.CellCount() > 0 {
				compHasState = true
			}

			block := weight.ClassifyBlock(node, externWeight, cfg.Bounds)

			contractText := comp.Contract.Render(func(id ir.ID) string { return reg.GetName(id) })
			out.Components = append(out.Components, ir2.BuildComponent(comp, node, contractText, block.Kind, block.Total, cfg.AlignHint))
		}
		stateful[comp.ID] = compHasState
	}

	if bag.IsFatal() {
		return out, bag
	}
	for i := range file.Interface.Services {
		svc := &file.Interface.Services[i]
		buildServiceGraph(svc)
		triggers := buildTriggers(svc)
		produced := producedFlows(svc)
		real := isle.RealEvents(svc, func(id ir.ID) bool { return produced[id] })
		table := isle.Build(svc, func(int) isle.StatementKind { return isle.StatementCall }, triggers, real)

		calleeName := func(id ir.ID) string {
			if c := byID[id]; c != nil {
				return c.Name
			}
			return reg.GetName(id)
		}
		out.Services = append(out.Services, ir2.BuildService(svc, table, calleeName))
	}

	return out, bag
}

// validateParallelization raises the compile-time Parallelization errors
// spec.md §7 mandates: non-monotone weight bounds, and a declared
// weight_percent exceeding 100 (spec.md §4.9 "undeclared extern calls
// default to a mid estimate" implies a declared one must be a valid
// percentage).
func validateParallelization(file *ir.File, cfg config.Config, bag *diag.Bag) {
	if !cfg.Bounds.Valid() {
		bag.Add(diag.KindParallelization, ir.Location{}, "weight bounds are not strictly increasing and positive", nil)
	}
	for _, fn := range file.Functions {
		if fn.WeightPercent != nil && *fn.WeightPercent > 100 {
			bag.Add(diag.KindParallelization, ir.Location{}, "weight_percent for "+fn.Name+" exceeds 100", nil)
		}
	}
}

// runCausalityAndInline iterates Causality Analyzer / Inliner to a fixed
// point (spec.md §4.3/§4.4): each inline pass can expose a new weight-0
// cycle that was hidden behind the inlined call, so the pair is re-run
// until no further must-inline sites remain or the node proves non-causal.
func runCausalityAndInline(builder *depgraph.Builder, bag *diag.Bag, node *ir.UnitaryNode, reach depgraph.ReachCallee) {
	inliner := inline.New(builder, bag)
	for pass := 0; pass < maxInlinePasses; pass++ {
		res := causality.Analyze(node, callWeight(builder, node, reach))
		if !res.Causal {
			bag.Add(diag.KindCausality, ir.Location{}, "non-causal dependency cycle on signal "+strconv.FormatUint(uint64(res.CycleSignal), 10), nil)
			return
		}
		if len(res.MustInline) == 0 {
			return
		}
		inliner.Inline(node, res.MustInline, reach)
	}
}

// callWeight reports, for the call-site equation bound to stmt, the
// largest reduced-graph weight from the callee's produced output back to
// any of its inputs — a weight-0 cycle that passes entirely through a call
// whose own output depends on its inputs at depth >= 1 is a shifted loop,
// resolvable by inlining (spec.md §4.3).
func callWeight(builder *depgraph.Builder, node *ir.UnitaryNode, reach depgraph.ReachCallee) func(ir.ID) int {
	return func(stmt ir.ID) int {
		eq := equationBinding(node, stmt)
		if eq == nil || eq.Expr.Tag != ir.ExApplication {
			return 0
		}
		callee := reach(eq.Expr.Callee)
		if callee == nil {
			return 0
		}
		rg := builder.ReducedGraphFor(callee, reach)
		max := 0
		for _, in := range callee.Inputs {
			if w := rg.Weight(eq.Expr.OutputName, in.ID); w > max {
				max = w
			}
		}
		return max
	}
}

func equationBinding(node *ir.UnitaryNode, id ir.ID) *ir.Equation {
	for i := range node.Equations {
		bound := map[ir.ID]bool{}
		node.Equations[i].Pattern.BoundIDs(bound)
		if bound[id] {
			return &node.Equations[i]
		}
	}
	return nil
}

// callOrder topologically sorts components by their call graph (callee
// before caller), the precondition depgraph.Builder.Build documents
// (spec.md §4.4 notes the call graph is checked acyclic separately).
func callOrder(comps []ir.Component, reg symtab.Registry) []*ir.Component {
	byID := map[ir.ID]*ir.Component{}
	for i := range comps {
		byID[comps[i].ID] = &comps[i]
	}

	var order []*ir.Component
	visited := map[ir.ID]bool{}
	var visit func(c *ir.Component)
	visit = func(c *ir.Component) {
		if visited[c.ID] {
			return
		}
		visited[c.ID] = true
		for _, callee := range calleesOf(c, reg, byID) {
			visit(callee)
		}
		order = append(order, c)
	}
	for i := range comps {
		visit(&comps[i])
	}
	return order
}

func calleesOf(c *ir.Component, reg symtab.Registry, byID map[ir.ID]*ir.Component) []*ir.Component {
	var out []*ir.Component
	seen := map[ir.ID]bool{}
	var walk func(e *ir.Expr)
	walk = func(e *ir.Expr) {
		if e == nil {
			return
		}
		if e.Tag == ir.ExApplication {
			if callee, ok := byID[e.Callee]; ok && !seen[callee.ID] {
				seen[callee.ID] = true
				out = append(out, callee)
			}
			for _, a := range e.Args {
				walk(a)
			}
			return
		}
		switch e.Tag {
		case ir.ExUnop, ir.ExFieldAccess, ir.ExTupleElementAccess, ir.ExMap, ir.ExSort, ir.ExFollowedBy:
			walk(e.Sub)
		case ir.ExBinop:
			walk(e.Lhs)
			walk(e.Rhs)
		case ir.ExIfThenElse:
			walk(e.Cond)
			walk(e.Then)
			walk(e.Else)
		case ir.ExStructure:
			for _, v := range e.Fields {
				walk(v)
			}
		case ir.ExArray, ir.ExTuple, ir.ExZip:
			for _, v := range e.Elems {
				walk(v)
			}
		case ir.ExFold:
			walk(e.InitExpr)
			for _, v := range e.Elems {
				walk(v)
			}
		case ir.ExMatch:
			walk(e.Scrutinee)
			for _, arm := range e.Arms {
				walk(arm.Result)
			}
		case ir.ExWhen:
			walk(e.InitArm)
			for _, br := range e.Branches {
				walk(br.Branch)
			}
		}
	}
	for i := range c.Equations {
		walk(c.Equations[i].Expr)
	}
	return out
}

// signalFresh adapts a symtab.Registry into normalform.Fresh, minting
// unique hoisted-binding names scoped under "local".
type signalFresh struct {
	reg   symtab.Registry
	scope string
	seq   int
}

func (f *signalFresh) NewSignal(typ ir.Type) (ir.ID, string) {
	f.seq++
	name := "hoist_" + strconv.Itoa(f.seq)
	return f.reg.InsertSignal(f.scope, name, typ), name
}

// buildServiceGraph populates svc.Graph: statement i depends on statement j
// when i reads a flow j produces (spec.md §3 "Flow Graph", service level).
func buildServiceGraph(svc *ir.Service) {
	producerOf := map[ir.ID]int{}
	for i, stmt := range svc.Statements {
		for _, id := range stmt.Outputs {
			producerOf[id] = i
		}
	}
	svc.Graph = ir.NewGraph()
	for i, stmt := range svc.Statements {
		for _, arg := range stmt.Args {
			if j, ok := producerOf[arg]; ok && j != i {
				svc.Graph.AddEdge(ir.ID(i), ir.ID(j), ir.LabelWeight, 0)
			}
		}
	}
}

// buildTriggers maps a real-event flow id to the statement indices it
// directly feeds as an argument (spec.md §4.8 "Event-to-statements map").
func buildTriggers(svc *ir.Service) map[ir.ID][]int {
	produced := producedFlows(svc)
	real := isle.RealEvents(svc, func(id ir.ID) bool { return produced[id] })
	out := map[ir.ID][]int{}
	for i, stmt := range svc.Statements {
		for _, arg := range stmt.Args {
			if !real[arg] {
				continue
			}
			out[arg] = append(out[arg], i)
		}
	}
	for id := range out {
		sort.Ints(out[id])
	}
	return out
}

// producedFlows is the set of flow ids bound as some statement's output.
func producedFlows(svc *ir.Service) map[ir.ID]bool {
	out := map[ir.ID]bool{}
	for _, stmt := range svc.Statements {
		for _, id := range stmt.Outputs {
			out[id] = true
		}
	}
	return out
}
