// Package weight implements Weight & Parallelization (spec.md §4.9):
// estimate a per-expression cost, sum it per statement, classify the
// result against the configured Bounds, and cluster the independent
// equations of a scheduled block into maximal anti-chains for
// parallel dispatch. Grounded on the teacher's bottom-up cost-folding
// shape in analyzer/node.go's metric accumulation.
package weight

import "github.com/langrust/grust-sub010/internal/ir"

// ExternWeight resolves a declared weight_percent for an extern function
// id; components and undeclared functions fall back to WeightMid (spec.md
// §4.9 "undeclared extern calls default to a mid estimate").
type ExternWeight func(fn ir.ID) (percent int, ok bool)

// Estimate computes the weight of a single expression, recursing into
// every subexpression and summing, except that if-then-else, match and
// when charge only their heaviest branch (spec.md §4.9 "Per-expression
// weight").
func Estimate(e *ir.Expr, extern ExternWeight) int {
	if e == nil {
		return 0
	}
	switch e.Tag {
	case ir.ExConstant, ir.ExIdentifier, ir.ExEnumeration:
		return ir.WeightZero
	case ir.ExUnop:
		return ir.WeightLo + Estimate(e.Sub, extern)
	case ir.ExFieldAccess, ir.ExTupleElementAccess:
		return ir.WeightZero + Estimate(e.Sub, extern)
	case ir.ExBinop:
		return ir.WeightLo + Estimate(e.Lhs, extern) + Estimate(e.Rhs, extern)
	case ir.ExIfThenElse:
		return ir.WeightLo + Estimate(e.Cond, extern) + max(Estimate(e.Then, extern), Estimate(e.Else, extern))
	case ir.ExApplication:
		return applicationWeight(e, extern)
	case ir.ExStructure:
		sum := ir.WeightZero
		for _, v := range e.Fields {
			sum += Estimate(v, extern)
		}
		return sum
	case ir.ExArray, ir.ExTuple:
		sum := ir.WeightZero
		for _, v := range e.Elems {
			sum += Estimate(v, extern)
		}
		return sum
	case ir.ExZip:
		sum := ir.WeightLo
		for _, v := range e.Elems {
			sum += Estimate(v, extern)
		}
		return sum
	case ir.ExMatch:
		sum := ir.WeightLo + Estimate(e.Scrutinee, extern)
		worst := 0
		for _, arm := range e.Arms {
			w := Estimate(arm.Result, extern)
			for _, body := range arm.Body {
				w += Estimate(body.Expr, extern)
			}
			if w > worst {
				worst = w
			}
		}
		return sum + worst
	case ir.ExWhen:
		sum := ir.WeightLo + Estimate(e.InitArm, extern)
		worst := 0
		for _, br := range e.Branches {
			w := Estimate(br.Branch, extern)
			for _, body := range br.Body {
				w += Estimate(body.Expr, extern)
			}
			if w > worst {
				worst = w
			}
		}
		return sum + worst
	case ir.ExMap, ir.ExSort:
		return ir.WeightMid + Estimate(e.Sub, extern)
	case ir.ExFold:
		sum := ir.WeightMid + Estimate(e.InitExpr, extern)
		for _, v := range e.Elems {
			sum += Estimate(v, extern)
		}
		return sum
	case ir.ExFollowedBy:
		return Estimate(e.Sub, extern)
	default:
		return ir.WeightZero
	}
}

func applicationWeight(e *ir.Expr, extern ExternWeight) int {
	sum := ir.WeightZero
	for _, a := range e.Args {
		sum += Estimate(a, extern)
	}
	if percent, ok := extern(e.Callee); ok {
		return sum + percent
	}
	return sum + ir.WeightMid
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Statement is a scheduled equation annotated with its estimated weight and
// the weight-0 signal ids it reads, the input needed to cluster the
// maximal anti-chain of a block (spec.md §4.9 "Clustering").
type Statement struct {
	Index  int
	Weight int
	Reads  map[ir.ID]bool
}

// StatementsOf estimates the weight of every equation in node, in the
// node's current (already scheduled) order.
func StatementsOf(node *ir.UnitaryNode, extern ExternWeight) []Statement {
	out := make([]Statement, len(node.Equations))
	for i, eq := range node.Equations {
		reads := map[ir.ID]bool{}
		for _, d := range eq.Expr.Deps {
			if d.Depth == 0 {
				reads[d.Signal] = true
			}
		}
		out[i] = Statement{Index: i, Weight: Estimate(eq.Expr, extern), Reads: reads}
	}
	return out
}

// TotalWeight sums a block's statement weights (spec.md §4.9 "statement
// weight summation").
func TotalWeight(stmts []Statement) int {
	sum := 0
	for _, s := range stmts {
		sum += s.Weight
	}
	return sum
}

// Cluster groups stmts (already in scheduled/topological order) into
// maximal anti-chains: consecutive runs of statements that share no
// read/bind dependency among each other, each run dispatched as one
// parallel unit (spec.md §4.9 "maximal anti-chain clustering"). boundBy
// maps a signal id to the index of the statement (within stmts) binding it.
func Cluster(stmts []Statement, boundBy map[ir.ID]int) [][]int {
	var clusters [][]int
	var current []int

	flush := func() {
		if len(current) > 0 {
			clusters = append(clusters, current)
			current = nil
		}
	}

	for _, s := range stmts {
		dependsOnCurrent := false
		for id := range s.Reads {
			if idx, ok := boundBy[id]; ok {
				for _, c := range current {
					if c == idx {
						dependsOnCurrent = true
					}
				}
			}
		}
		if dependsOnCurrent {
			flush()
		}
		current = append(current, s.Index)
	}
	flush()
	return clusters
}

// Block is one scheduled block's parallelization verdict: its total
// weight, the Kind it classifies to, and its independent-statement
// clustering (spec.md §4.9).
type Block struct {
	Total    int
	Kind     ir.ParaKind
	Clusters [][]int
}

// ClassifyBlock computes the full §4.9 verdict for a scheduled equation
// run.
func ClassifyBlock(node *ir.UnitaryNode, extern ExternWeight, bounds ir.Bounds) Block {
	stmts := StatementsOf(node, extern)
	total := TotalWeight(stmts)

	boundBy := map[ir.ID]int{}
	for i, eq := range node.Equations {
		bound := map[ir.ID]bool{}
		eq.Pattern.BoundIDs(bound)
		for id := range bound {
			boundBy[id] = i
		}
	}

	return Block{
		Total:    total,
		Kind:     ir.Classify(total, bounds),
		Clusters: Cluster(stmts, boundBy),
	}
}
