// Package ir2 implements the IR2 Builder (spec.md §4.10): lower each
// unitary node's IR1 shape into the final per-component Input/Output/State
// structs and step/init function shapes, and each service into a
// context/store/handler/dispatcher shape, in a form that marshals straight
// to JSON for hand-off to the external emitter (spec.md §6). Grounded on the
// named, field-indexed record shape of inspector/graph/types.go's Type and
// Field.
package ir2

import "github.com/langrust/grust-sub010/internal/ir"

// Field is one struct field of a generated Input/Output/State record.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// StateCell is one memory cell lowered into State-struct shape, tagged by
// its Memory origin (buffer, called node, or ghost).
type StateCell struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "buffer" | "called_node" | "ghost"
	Type string `json:"type,omitempty"`
}

// StateStruct is a component's generated state record: every memory cell
// plus an optional target-alignment hint (spec.md §3 "state struct ...
// aligned per a platform constant"; the precise layout is target-dependent
// per spec.md §4.10's closing note, so AlignHint is only populated when the
// config supplies one — the IR2 Builder never invents a default).
type StateStruct struct {
	Cells     []StateCell `json:"cells"`
	AlignHint *int        `json:"alignHint,omitempty"`
}

// Func is one generated function (a component's step/init, or a called
// node's forwarding shim).
type Func struct {
	Name    string   `json:"name"`
	Params  []Field  `json:"params"`
	Results []Field  `json:"results"`
}

// Component is one lowered component: its Input/Output/State record
// shapes and its step/init functions (spec.md §4.10).
type Component struct {
	Name   string      `json:"name"`
	Input  []Field     `json:"input"`
	Output []Field     `json:"output"`
	State  StateStruct `json:"state"`
	Init   Func        `json:"init"`
	Step   Func        `json:"step"`
	// Contract is the rendered pass-through annotation text, never
	// evaluated by the runtime (spec.md §9, SPEC_FULL.md §10).
	Contract string `json:"contract,omitempty"`
	// Parallelization is the step body's classified Kind (spec.md §4.9),
	// one of "sequential", "fast-rayon", "threads".
	Parallelization string `json:"parallelization"`
	// Weight is the step body's total estimated weight backing that Kind.
	Weight int `json:"weight"`
}

// Statement is one lowered service call-statement, carrying the isle ids
// it belongs to for the emitted dispatcher's reaction table.
type Statement struct {
	Index  int      `json:"index"`
	Callee string   `json:"callee"`
	Output string   `json:"output"`
	Isles  []ir.ID  `json:"isles,omitempty"`
}

// StoreField is one service_store slot: the latest arrived but unprocessed
// value of a non-event (signal) import, paired with the instant it arrived
// (spec.md §4.10/§6 "a service_store of 'latest arrived but unprocessed'
// inputs with their arrival instants"). Events don't need a store slot —
// they're consumed immediately by the handler they trigger — only signals
// read passively by a handler triggered by something else do.
type StoreField struct {
	Field
	InstantField string `json:"instantField"`
}

// Service is one lowered service: its context/store fields and its
// dispatcher's per-event statement set.
type Service struct {
	Name       string           `json:"name"`
	Context    []Field          `json:"context"`
	Store      []StoreField     `json:"store"`
	Statements []Statement      `json:"statements"`
	Dispatch   map[string][]int `json:"dispatch"` // event flow name -> statement indices
}

// File is the complete IR2 output for one source file (spec.md §4.10).
type File struct {
	Components []Component `json:"components"`
	Services   []Service   `json:"services"`
}

// typeName renders an ir.Type as the flat string name an IR2 Field carries;
// the concrete Go type mapping is a backend concern downstream of this
// repository, so a stable descriptive name is all IR2 promises.
func typeName(t ir.Type) string {
	switch {
	case t.Elem != nil:
		return "[]" + typeName(*t.Elem)
	case len(t.Elems) > 0:
		return "tuple"
	case len(t.Fields) > 0 && t.Name == "":
		return "struct"
	case t.Name != "":
		return t.Name
	default:
		return "unit"
	}
}

// BuildComponent lowers one memorized, scheduled unitary node into its IR2
// Component shape. block carries the Weight & Parallelization verdict
// computed for this node (spec.md §4.9). alignHint is threaded straight
// from config.Config into the generated state struct (SPEC_FULL.md §11);
// nil leaves the layout to the downstream emitter's own default.
func BuildComponent(comp *ir.Component, node *ir.UnitaryNode, contractText string, kind ir.ParaKind, totalWeight int, alignHint *int) Component {
	out := Component{
		Name:            comp.Name + "_" + node.OutputName,
		Contract:        contractText,
		Parallelization: kind.String(),
		Weight:          totalWeight,
	}

	for _, in := range node.Inputs {
		out.Input = append(out.Input, Field{Name: in.Name, Type: typeName(in.Type)})
	}
	if out.Input == nil {
		out.Input = []Field{}
	}

	if sig, ok := comp.Outputs[node.OutputName]; ok {
		out.Output = []Field{{Name: sig.Name, Type: typeName(sig.Type)}}
	}

	out.State.AlignHint = alignHint
	for _, name := range node.Memory.BufferOrder() {
		cell := node.Memory.Buffers[name]
		out.State.Cells = append(out.State.Cells, StateCell{Name: name, Kind: "buffer", Type: typeName(cell.Type)})
	}
	for _, name := range node.Memory.CalledNodeOrder() {
		out.State.Cells = append(out.State.Cells, StateCell{Name: name, Kind: "called_node"})
	}
	for _, name := range node.Memory.GhostNodeOrder() {
		out.State.Cells = append(out.State.Cells, StateCell{Name: name, Kind: "ghost"})
	}

	out.Init = Func{Name: out.Name + "_init", Results: []Field{{Name: "state", Type: out.Name + "State"}}}

	params := append([]Field{{Name: "state", Type: "*" + out.Name + "State"}}, out.Input...)
	out.Step = Func{Name: out.Name + "_step", Params: params, Results: out.Output}

	return out
}

// BuildService lowers a service and its precomputed isle table into the
// IR2 Service shape.
func BuildService(svc *ir.Service, isles *ir.IsleTable, calleeName func(ir.ID) string) Service {
	out := Service{Name: svc.Name, Dispatch: map[string][]int{}}

	for _, f := range svc.Imports {
		out.Context = append(out.Context, Field{Name: f.Name, Type: flowTypeName(f)})
		if f.Kind == ir.Signal {
			out.Store = append(out.Store, StoreField{
				Field:        Field{Name: f.Name, Type: flowTypeName(f)},
				InstantField: f.Name + "_instant",
			})
		}
	}

	stmtIsles := map[int][]ir.ID{}
	if isles != nil {
		for event, isle := range isles.Isles {
			for _, s := range isle {
				stmtIsles[s] = append(stmtIsles[s], event)
			}
		}
	}

	for i, stmt := range svc.Statements {
		s := Statement{Index: i, Callee: calleeName(stmt.Callee), Isles: stmtIsles[i]}
		for name := range stmt.Outputs {
			s.Output = name
			break
		}
		out.Statements = append(out.Statements, s)
	}

	if isles != nil {
		for event, isle := range isles.Isles {
			f, ok := svc.FlowByID(event)
			name := f.Name
			if !ok {
				continue
			}
			out.Dispatch[name] = append([]int(nil), isle...)
		}
	}

	return out
}

func flowTypeName(f ir.Flow) string {
	return typeName(f.Type)
}
