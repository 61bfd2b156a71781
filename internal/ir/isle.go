package ir

// Isle is the ordered, duplicate-free set of statement indices a single
// event triggers across one service (spec.md §3 "Isle").
type Isle []int

// Sorted reports whether the isle is ascending and duplicate-free, the
// invariant spec.md §4.8/§8 require.
func (is Isle) Sorted() bool {
	for i := 1; i < len(is); i++ {
		if is[i-1] >= is[i] {
			return false
		}
	}
	return true
}

// IsleTable maps event flow id to its isle, one table per service.
type IsleTable struct {
	ServiceID ID
	Isles     map[ID]Isle
}

// Stats reports isle-count and size-distribution numbers purely derived
// from already-computed isles (SPEC_FULL.md §10, grounded on
// grust_compiler_ir2/src/ir1_into_ir2/isles.rs computing size inline).
type IsleStats struct {
	Count        int
	TotalStmts   int
	MaxSize      int
	MinSize      int
	AverageSize  float64
}

func (t *IsleTable) Stats() IsleStats {
	st := IsleStats{Count: len(t.Isles)}
	if st.Count == 0 {
		return st
	}
	st.MinSize = -1
	for _, isle := range t.Isles {
		n := len(isle)
		st.TotalStmts += n
		if n > st.MaxSize {
			st.MaxSize = n
		}
		if st.MinSize == -1 || n < st.MinSize {
			st.MinSize = n
		}
	}
	if st.MinSize == -1 {
		st.MinSize = 0
	}
	st.AverageSize = float64(st.TotalStmts) / float64(st.Count)
	return st
}
