// Package config defines the compile-time configuration spec.md §6 names:
// weight bounds, per-component parallelization policy, and an optional
// graph-dump path. Loading it from disk or flags is the job of an external
// CLI layer; this package only models the struct and its YAML shape so that
// layer (and tests) can round-trip it.
package config

import "github.com/langrust/grust-sub010/internal/ir"

// Policy is a per-component parallelization policy (spec.md §6).
type Policy string

const (
	PolicyNone      Policy = "none"
	PolicyPara      Policy = "para"
	PolicyOnlyRayon Policy = "only-rayon"
	PolicyOnlyThreads Policy = "only-threads"
	PolicyMixed     Policy = "mixed"
)

// Config is a full compile invocation's configuration.
type Config struct {
	Bounds ir.Bounds `yaml:"weightBounds"`
	// ComponentPolicy maps component name to its parallelization policy;
	// components absent from the map use Policy default (PolicyPara).
	ComponentPolicy map[string]Policy `yaml:"componentPolicy,omitempty"`
	// GraphDumpPath is the optional JSON graph-dump destination; empty
	// disables dumping. This package never opens the file itself.
	GraphDumpPath string `yaml:"graphDumpPath,omitempty"`
	// AlignHint is the target-dependent state-struct memory alignment
	// (spec.md §4.10 closing note); nil lets the downstream emitter pick
	// its own default rather than this repository inventing one.
	AlignHint *int `yaml:"alignHint,omitempty"`
}

// Default returns the spec.md §6 default configuration.
func Default() Config {
	return Config{Bounds: ir.DefaultBounds}
}

// PolicyFor returns the effective policy for a component name.
func (c Config) PolicyFor(component string) Policy {
	if p, ok := c.ComponentPolicy[component]; ok {
		return p
	}
	return PolicyPara
}
