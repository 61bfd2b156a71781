// Package diag implements the accumulated error channel spec.md §7
// describes: every phase appends diagnostics to a shared Bag rather than
// failing fast, so independent failures (a non-causal component, an unused
// input elsewhere) are all reported from a single compile invocation.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/langrust/grust-sub010/internal/ir"
)

// Kind is the exhaustive diagnostic kind list from spec.md §7. Parse/Name
// errors belong to the external frontend and are not produced here; this
// repository only ever raises the phases it owns.
type Kind uint8

const (
	KindType Kind = iota
	KindCausality
	KindUsage
	KindParallelization
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindCausality:
		return "causality"
	case KindUsage:
		return "usage"
	case KindParallelization:
		return "parallelization"
	default:
		return "unknown"
	}
}

// Diagnostic is one accumulated error: its kind, a human message, the
// source location it points at (when known), and the wrapped cause that
// produced it, captured with github.com/pkg/errors so a %+v format prints
// the phase stack, not just the leaf message.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Location ir.Location
	Cause    error
}

func (d *Diagnostic) Error() string {
	if d.Location.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.Location.File, d.Location.Line, d.Location.Col, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (d *Diagnostic) Unwrap() error { return d.Cause }

// Bag accumulates diagnostics across phases. It is not safe for concurrent
// use — the pipeline is single-threaded (spec.md §5) and each phase owns
// its Bag for the duration of its run.
type Bag struct {
	items  []*Diagnostic
	fatal  bool
}

// NewBag returns an empty diagnostics bag.
func NewBag() *Bag { return &Bag{} }

// Add accumulates a diagnostic built from kind/message/location, wrapping
// cause (which may be nil) with a stack-carrying error.
func (b *Bag) Add(kind Kind, loc ir.Location, message string, cause error) {
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrap(cause, message)
	} else {
		wrapped = errors.New(message)
	}
	b.items = append(b.items, &Diagnostic{Kind: kind, Message: message, Location: loc, Cause: wrapped})
}

// Fatal marks the bag so the pipeline stops running further phases; errors
// already queued are still reported (spec.md §7 policy).
func (b *Bag) Fatal() { b.fatal = true }

// IsFatal reports whether a phase requested early termination.
func (b *Bag) IsFatal() bool { return b.fatal }

// Empty reports whether no diagnostics have been accumulated; the
// user-visible exit code is 0 iff this holds at the end of a compile.
func (b *Bag) Empty() bool { return len(b.items) == 0 }

// All returns every accumulated diagnostic, in the order added.
func (b *Bag) All() []*Diagnostic { return append([]*Diagnostic(nil), b.items...) }

// Merge appends another bag's diagnostics into the receiver and propagates
// its fatal flag.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
	if other.fatal {
		b.fatal = true
	}
}
