package ir

// Component is a synchronous transform from inputs to outputs with
// internal state (spec.md §3).
type Component struct {
	ID          ID
	Name        string
	IsComponent bool // false denotes a pure function, carried the same way per spec.md §3

	// Inputs is ordered: argument position matters for call sites.
	Inputs []SigSignal

	// OutputOrder preserves declaration order for deterministic iteration;
	// Outputs holds the full signal record per output name.
	OutputOrder []string
	Outputs     map[string]SigSignal

	// Locals holds every local signal by name.
	Locals map[string]SigSignal

	Contract Contract
	// PeriodMS is set for periodic components; zero means event/signal driven.
	PeriodMS int

	// Equations is unordered at HIR construction time (spec.md §3); the
	// Scheduler reorders it in place once a unitary node is built.
	Equations []Equation

	// Graph is populated by the DepGraph Builder.
	Graph *Graph

	byID map[ID]SigSignal
}

// AllSignals returns every signal (input, output, local) the component
// declares, in a stable order: inputs first, then outputs, then locals.
func (c *Component) AllSignals() []SigSignal {
	out := make([]SigSignal, 0, len(c.Inputs)+len(c.Outputs)+len(c.Locals))
	out = append(out, c.Inputs...)
	for _, name := range c.OutputOrder {
		out = append(out, c.Outputs[name])
	}
	for _, s := range c.Locals {
		out = append(out, s)
	}
	return out
}

// Index builds the id-keyed lookup table from Inputs/Outputs/Locals;
// callers must invoke this once after populating those fields and before
// relying on SignalByID.
func (c *Component) Index() {
	c.byID = map[ID]SigSignal{}
	for _, s := range c.AllSignals() {
		c.byID[s.ID] = s
	}
}

// SignalByID returns the declared record for a signal id, zero value and
// false if unknown.
func (c *Component) SignalByID(id ID) (SigSignal, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// OutputID returns the signal id bound to output name, Invalid if no such
// output exists.
func (c *Component) OutputID(name string) ID {
	if s, ok := c.Outputs[name]; ok {
		return s.ID
	}
	return Invalid
}

// EquationFor returns the equation binding id, or nil if none does — a nil
// result after the Unitary Splitter and Usage-error checks have run
// indicates a bug upstream, never a legitimate absence.
func (c *Component) EquationFor(id ID) *Equation {
	for i := range c.Equations {
		if boundBy(c.Equations[i].Pattern, id) {
			return &c.Equations[i]
		}
	}
	return nil
}

func boundBy(p Pattern, id ID) bool {
	bound := map[ID]bool{}
	p.BoundIDs(bound)
	return bound[id]
}
