package depgraph

import (
	"encoding/binary"
	"sort"

	"github.com/minio/highwayhash"

	"github.com/langrust/grust-sub010/internal/ir"
)

// fingerprintKey is a fixed, non-secret 32-byte key: the fingerprint is a
// cache key, not a security boundary, so a constant key is appropriate
// (grounded on inspector/graph/hash.go's own constant key).
// highwayhash.New64 rejects any key whose length isn't exactly 32.
var fingerprintKey = []byte("GRUST0123456789ABCDEF0123456789X")

// ReducedGraph is the per-component output->input graph labeled with
// minimum memory depth (spec.md §3 "Reduced graph"), consulted whenever a
// caller computes a component-call's dependencies.
type ReducedGraph struct {
	component *ir.Component
	// weights[output][inputID] = minimum depth from output to that input.
	weights map[string]map[ir.ID]int
}

// Weight returns the minimum memory depth from output to inputID, or 0 if
// no edge exists (meaning the output doesn't depend on that input at all,
// which the caller treats as "no shift needed").
func (rg *ReducedGraph) Weight(output string, inputID ir.ID) int {
	if m, ok := rg.weights[output]; ok {
		return m[inputID]
	}
	return 0
}

// ReducedGraphFor builds (and caches) comp's reduced graph: for each output,
// a depth-first traversal from the output-bound equation, inlining
// intermediate signals' own edges with summed weights until a direct input
// is reached (spec.md §4.1 "Reduced graph").
func (b *Builder) ReducedGraphFor(comp *ir.Component, reach ReachCallee) *ReducedGraph {
	if rg, ok := b.reduced[comp.ID]; ok {
		return rg
	}
	rg := &ReducedGraph{component: comp, weights: map[string]map[ir.ID]int{}}
	inputSet := map[ir.ID]bool{}
	for _, in := range comp.Inputs {
		inputSet[in.ID] = true
	}

	for _, outName := range comp.OutputOrder {
		outID := comp.OutputID(outName)
		visited := map[ir.ID]int{}
		acc := map[ir.ID]int{}
		b.reduceDFS(comp, outID, 0, inputSet, visited, acc)
		rg.weights[outName] = acc
	}
	b.reduced[comp.ID] = rg
	return rg
}

// reduceDFS visits cur at the smallest accum seen so far: a diamond that
// reaches an input via a longer path first must not block the shorter path
// from updating out, so visited tracks the best accum reached per node
// rather than a one-shot visited flag (the "minimum memory depth" contract
// spec.md §3 "Reduced graph" requires).
func (b *Builder) reduceDFS(comp *ir.Component, cur ir.ID, accum int, inputs map[ir.ID]bool, visited map[ir.ID]int, out map[ir.ID]int) {
	if inputs[cur] {
		if prev, ok := out[cur]; !ok || accum < prev {
			out[cur] = accum
		}
		return
	}
	if prev, ok := visited[cur]; ok && prev <= accum {
		return
	}
	visited[cur] = accum
	if comp.Graph == nil {
		return
	}
	for _, edge := range comp.Graph.Successors(cur) {
		if edge.Label != ir.LabelWeight {
			continue
		}
		b.reduceDFS(comp, edge.To, accum+edge.Depth, inputs, visited, out)
	}
}

// Fingerprint returns a stable 64-bit content hash of the reduced graph,
// used by the Inliner to cheaply detect recursive call graphs (SPEC_FULL.md
// §9) without re-walking the full call graph on every inline step.
func (rg *ReducedGraph) Fingerprint() (uint64, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	outputs := make([]string, 0, len(rg.weights))
	for o := range rg.weights {
		outputs = append(outputs, o)
	}
	sort.Strings(outputs)

	var buf [8]byte
	for _, o := range outputs {
		hash.Write([]byte(o))
		m := rg.weights[o]
		ids := make([]ir.ID, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			binary.LittleEndian.PutUint64(buf[:], uint64(id))
			hash.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], uint64(m[id]))
			hash.Write(buf[:])
		}
	}
	return hash.Sum64(), nil
}
