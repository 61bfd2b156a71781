package ir

// Location is a source-span reference carried through for diagnostics; the
// frontend owns the actual source text, this repository only threads the
// span along.
type Location struct {
	File string
	Line int
	Col  int
}

// ExprTag is the closed sum of stream-expression shapes (spec.md §3).
type ExprTag uint8

const (
	ExConstant ExprTag = iota
	ExIdentifier
	ExEnumeration
	ExUnop
	ExBinop
	ExIfThenElse
	ExApplication
	ExStructure
	ExArray
	ExTuple
	ExMatch
	ExWhen
	ExFieldAccess
	ExTupleElementAccess
	ExMap
	ExFold
	ExSort
	ExZip
	ExFollowedBy
)

// Dep is one dependency edge out of an expression: the signal it depends on
// and the memory depth (number of fby barriers crossed) at which it does.
type Dep struct {
	Signal ID
	Depth  int
}

// DepSet is a multiset of Dep pairs. Entries keep the order in which they
// were added; the helpers below never sort, so two DepSets built from the
// same parts in a different order do not compare equal.
type DepSet []Dep

// Union returns the multiset union of the receiver and every operand,
// without deduplicating — a signal reached at two different depths through
// two different paths legitimately contributes two Dep entries, since the
// Memorizer and Isle Analyzer both care about the minimum depth, not the
// count, but dependency *sets* upstream (e.g. contract pairing) want every
// path preserved until the reduced graph collapses them.
func (d DepSet) Union(others ...DepSet) DepSet {
	size := len(d)
	for _, o := range others {
		size += len(o)
	}
	out := make(DepSet, 0, size)
	out = append(out, d...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// Shift increments every Dep's depth by one, the rule `fby` crossing applies
// (spec.md §4.1, §8 universal property).
func (d DepSet) Shift() DepSet {
	out := make(DepSet, len(d))
	for i, dep := range d {
		out[i] = Dep{Signal: dep.Signal, Depth: dep.Depth + 1}
	}
	return out
}

// Without filters out dependencies on any signal in bound, used when a
// Match arm strips its own pattern bindings from the arm body's deps
// (spec.md §4.1 Match row).
func (d DepSet) Without(bound map[ID]bool) DepSet {
	if len(bound) == 0 {
		return d
	}
	out := make(DepSet, 0, len(d))
	for _, dep := range d {
		if !bound[dep.Signal] {
			out = append(out, dep)
		}
	}
	return out
}

// MinDepths collapses the multiset into the minimum depth seen per signal.
func (d DepSet) MinDepths() map[ID]int {
	out := make(map[ID]int, len(d))
	for _, dep := range d {
		if cur, ok := out[dep.Signal]; !ok || dep.Depth < cur {
			out[dep.Signal] = dep.Depth
		}
	}
	return out
}

// MatchArm is one arm of a Match expression: the pattern it binds, an
// optional sequence of local statements (populated by the Normal-Former,
// §4.6, when a call must be hoisted inside the arm rather than out of it),
// and the arm's result expression.
type MatchArm struct {
	Pattern Pattern
	Body    []Equation
	Result  *Expr
}

// WhenBranch is one branch of a `when` surface form, already desugared to a
// pattern/default pair by the frontend.
type WhenBranch struct {
	Pattern Pattern
	Body    []Equation
	Branch  *Expr
}

// Expr is a stream expression: a tagged sum with a type annotation and a
// computed dependency set. Exactly one of the payload fields below is
// meaningful for a given Tag; callers switch on Tag, never on which fields
// are non-nil, to keep the type a closed variant in spirit.
type Expr struct {
	Tag  ExprTag
	Type Type
	Deps DepSet
	Loc  Location

	// ExConstant
	Const any
	// ExIdentifier
	Ident ID
	// ExEnumeration
	EnumType ID
	EnumElem ID
	// ExUnop / ExFieldAccess / ExTupleElementAccess / ExMap / ExSort: Sub is
	// the single operand; Field/Index/Fn carry the construct-specific extra.
	Sub   *Expr
	Op    string
	Field string
	Index int
	Fn    *Expr
	// ExBinop
	Lhs, Rhs *Expr
	// ExIfThenElse
	Cond, Then, Else *Expr
	// ExApplication / component call
	Callee ID
	Args   []*Expr
	// Output selected when Callee denotes a multi-output component.
	OutputName string
	// ExStructure
	Fields map[string]*Expr
	// ExArray / ExTuple / ExZip
	Elems []*Expr
	// ExMatch
	Scrutinee *Expr
	Arms      []MatchArm
	// ExWhen
	InitArm  *Expr
	Branches []WhenBranch
	// ExFold
	InitExpr *Expr
	// ExFollowedBy
	InitConst any
}

// IsComponentCall reports whether this expression directly applies a
// component (as opposed to a plain function), the distinction the
// Normal-Former and Memorizer both need.
func (e *Expr) IsComponentCall(isComponent func(ID) bool) bool {
	return e.Tag == ExApplication && isComponent(e.Callee)
}

// PatternTag is the closed sum of equation left-hand-side shapes.
type PatternTag uint8

const (
	PatIdentifier PatternTag = iota
	PatTyped
	PatStructure
	PatEnumeration
	PatTuple
	PatDefault
	PatConstant
)

// Pattern is an equation or match-arm left-hand side.
type Pattern struct {
	Tag   PatternTag
	Ident ID
	Type  Type
	// PatStructure / PatTuple
	Fields map[string]Pattern
	Elems  []Pattern
	// PatEnumeration
	EnumType ID
	EnumElem ID
	Inner    *Pattern
	// PatDefault wraps Inner as the catch-all arm.
	// PatConstant
	Const any
}

// BoundIDs returns every signal id a pattern introduces, used to strip
// arm-local bindings from a Match arm's stripped dependency set.
func (p Pattern) BoundIDs(out map[ID]bool) {
	switch p.Tag {
	case PatIdentifier, PatTyped:
		if p.Ident != Invalid {
			out[p.Ident] = true
		}
	case PatStructure:
		for _, f := range p.Fields {
			f.BoundIDs(out)
		}
	case PatTuple:
		for _, e := range p.Elems {
			e.BoundIDs(out)
		}
	case PatEnumeration:
		if p.Inner != nil {
			p.Inner.BoundIDs(out)
		}
	case PatDefault:
		if p.Inner != nil {
			p.Inner.BoundIDs(out)
		}
	}
}

// Equation is a single binding: pattern = stream expression.
type Equation struct {
	Pattern Pattern
	Type    Type
	Expr    *Expr
	Loc     Location
}
