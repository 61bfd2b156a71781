package isle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/langrust/grust-sub010/internal/ir"
)

// Three statements: 0 reads a real event and feeds 1, which feeds 2. A
// second real event only triggers statement 1 directly. Statement graph
// edges run dependent -> dependency ("from depends on to"), per ir.Graph's
// convention.
func buildFixture() (*ir.Service, ir.ID, ir.ID) {
	eventA := ir.ID(1)
	eventB := ir.ID(2)

	svc := &ir.Service{
		ID:   ir.ID(100),
		Name: "svc",
		Imports: []ir.Flow{
			{ID: eventA, Name: "a", Kind: ir.Event},
			{ID: eventB, Name: "b", Kind: ir.Event},
		},
		Statements: []ir.ComponentCall{
			{StatementID: 0, Callee: 10, Args: []ir.ID{eventA}, Outputs: map[string]ir.ID{"out": 200}},
			{StatementID: 1, Callee: 11, Args: []ir.ID{200, eventB}, Outputs: map[string]ir.ID{"out": 201}},
			{StatementID: 2, Callee: 12, Args: []ir.ID{201}, Outputs: map[string]ir.ID{"out": 202}},
		},
	}
	svc.Graph = ir.NewGraph()
	svc.Graph.AddEdge(1, 0, ir.LabelWeight, 0) // stmt 1 depends on stmt 0 (reads its output)
	svc.Graph.AddEdge(2, 1, ir.LabelWeight, 0) // stmt 2 depends on stmt 1

	return svc, eventA, eventB
}

func TestBuild(t *testing.T) {
	svc, eventA, eventB := buildFixture()

	triggers := map[ir.ID][]int{
		eventA: {0},
		eventB: {1},
	}
	real := map[ir.ID]bool{eventA: true, eventB: true}
	kindOf := func(int) StatementKind { return StatementCall }

	table := Build(svc, kindOf, triggers, real)

	// statement 1 reads eventB directly, so it is itself eventful and only
	// fires on eventB's own arrival — eventA's isle stops at statement 0.
	assert.True(t, table.Isles[eventA].Sorted())
	assert.Equal(t, ir.Isle{0}, table.Isles[eventA])

	// eventB's isle cascades forward through statement 2, which is a plain
	// (non-eventful) consumer of statement 1's output.
	assert.True(t, table.Isles[eventB].Sorted())
	assert.Equal(t, ir.Isle{1, 2}, table.Isles[eventB])
}

func TestBuildNoTopLevelStatements(t *testing.T) {
	svc, _, _ := buildFixture()
	unrelated := ir.ID(99)

	table := Build(svc, func(int) StatementKind { return StatementCall }, map[ir.ID][]int{}, map[ir.ID]bool{unrelated: true})

	assert.Equal(t, ir.Isle{}, table.Isles[unrelated])
}

func TestRealEvents(t *testing.T) {
	svc, eventA, eventB := buildFixture()
	produced := map[ir.ID]bool{200: true, 201: true, 202: true}

	real := RealEvents(svc, func(id ir.ID) bool { return produced[id] })

	assert.True(t, real[eventA])
	assert.True(t, real[eventB])
	assert.Len(t, real, 2)
}
