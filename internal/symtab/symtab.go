// Package symtab names the symbol registry contract spec.md §6 treats as an
// external collaborator (identifier interning, scope management, stable id
// assignment). It also ships a single in-memory implementation used by this
// repository's own tests and by any caller that has no registry of its own
// yet — production callers plug in the real service behind the same
// interface.
package symtab

import (
	"strconv"

	"github.com/langrust/grust-sub010/internal/ir"
)

// ScopeKind distinguishes the two nesting levels the registry tracks
// (spec.md §6 "scope enter/leave (local/global)").
type ScopeKind uint8

const (
	Global ScopeKind = iota
	Local
)

// Registry is the external symbol table contract (spec.md §6).
type Registry interface {
	InsertSignal(scope string, name string, typ ir.Type) ir.ID
	InsertFlow(scope string, name string, kind ir.FlowKind, typ ir.Type) ir.ID
	InsertFunction(name string) ir.ID
	InsertNode(name string) ir.ID

	GetID(scope, name string) (ir.ID, bool)
	GetName(id ir.ID) string
	GetType(id ir.ID) ir.Type

	GetNodeInputs(node ir.ID) []ir.ID
	GetNodeOutputs(node ir.ID) []ir.ID

	IsFunction(id ir.ID) bool
	IsEvent(id ir.ID) bool
	IsTimer(id ir.ID) bool

	EnterScope(kind ScopeKind) string
	LeaveScope()
}

type entry struct {
	id   ir.ID
	name string
	typ  ir.Type
	kind ir.Kind
}

// Table is an in-memory Registry implementation grounded on the teacher's
// hierarchical scope model (analyzer/linage/scope.go's Scope{ID,ParentID}
// and analyzer/package.go's pkgScope/fileScope stacking).
type Table struct {
	next      ir.ID
	entries   map[ir.ID]*entry
	byScope   map[string]map[string]ir.ID
	nodeIO    map[ir.ID]nodeIO
	scopeStack []string
	scopeSeq  int
}

type nodeIO struct {
	inputs  []ir.ID
	outputs []ir.ID
}

// NewTable returns an empty registry with the global scope entered.
func NewTable() *Table {
	t := &Table{
		next:    1,
		entries: map[ir.ID]*entry{},
		byScope: map[string]map[string]ir.ID{},
		nodeIO:  map[ir.ID]nodeIO{},
	}
	t.scopeStack = append(t.scopeStack, "global")
	return t
}

func (t *Table) alloc() ir.ID {
	id := t.next
	t.next++
	return id
}

func (t *Table) currentScope() string {
	return t.scopeStack[len(t.scopeStack)-1]
}

func (t *Table) insert(scope, name string, kind ir.Kind, typ ir.Type) ir.ID {
	id := t.alloc()
	t.entries[id] = &entry{id: id, name: name, typ: typ, kind: kind}
	if t.byScope[scope] == nil {
		t.byScope[scope] = map[string]ir.ID{}
	}
	t.byScope[scope][name] = id
	return id
}

func (t *Table) InsertSignal(scope, name string, typ ir.Type) ir.ID {
	return t.insert(scope, name, ir.KindSignal, typ)
}

func (t *Table) InsertFlow(scope, name string, kind ir.FlowKind, typ ir.Type) ir.ID {
	k := ir.KindSignal
	if kind == ir.Event {
		k = ir.KindEvent
	}
	return t.insert(scope, name, k, typ)
}

func (t *Table) InsertFunction(name string) ir.ID {
	return t.insert("global", name, ir.KindFunction, ir.Type{})
}

func (t *Table) InsertNode(name string) ir.ID {
	id := t.insert("global", name, ir.KindNode, ir.Type{})
	t.nodeIO[id] = nodeIO{}
	return id
}

// InsertTimer registers a timer flow, distinct from an event only in Kind.
func (t *Table) InsertTimer(scope, name string) ir.ID {
	return t.insert(scope, name, ir.KindTimer, ir.Type{})
}

// SetNodeSignature records a node's declared inputs/outputs, used by
// GetNodeInputs/GetNodeOutputs.
func (t *Table) SetNodeSignature(node ir.ID, inputs, outputs []ir.ID) {
	t.nodeIO[node] = nodeIO{inputs: inputs, outputs: outputs}
}

func (t *Table) GetID(scope, name string) (ir.ID, bool) {
	if m, ok := t.byScope[scope]; ok {
		if id, ok := m[name]; ok {
			return id, true
		}
	}
	return ir.Invalid, false
}

func (t *Table) GetName(id ir.ID) string {
	if e, ok := t.entries[id]; ok {
		return e.name
	}
	return ""
}

func (t *Table) GetType(id ir.ID) ir.Type {
	if e, ok := t.entries[id]; ok {
		return e.typ
	}
	return ir.Type{}
}

func (t *Table) GetNodeInputs(node ir.ID) []ir.ID  { return t.nodeIO[node].inputs }
func (t *Table) GetNodeOutputs(node ir.ID) []ir.ID { return t.nodeIO[node].outputs }

func (t *Table) IsFunction(id ir.ID) bool {
	e, ok := t.entries[id]
	return ok && e.kind == ir.KindFunction
}

func (t *Table) IsEvent(id ir.ID) bool {
	e, ok := t.entries[id]
	return ok && e.kind == ir.KindEvent
}

func (t *Table) IsTimer(id ir.ID) bool {
	e, ok := t.entries[id]
	return ok && e.kind == ir.KindTimer
}

func (t *Table) EnterScope(kind ScopeKind) string {
	t.scopeSeq++
	name := "local"
	if kind == Global {
		name = "global"
	}
	id := t.currentScope() + "." + name + strconv.Itoa(t.scopeSeq)
	t.scopeStack = append(t.scopeStack, id)
	return id
}

func (t *Table) LeaveScope() {
	if len(t.scopeStack) > 1 {
		t.scopeStack = t.scopeStack[:len(t.scopeStack)-1]
	}
}

var _ Registry = (*Table)(nil)
