package graphdump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langrust/grust-sub010/internal/ir"
)

func TestFromGraphConvertsEdges(t *testing.T) {
	g := ir.NewGraph()
	g.AddEdge(1, 2, ir.LabelWeight, 0)
	g.AddEdge(1, 3, ir.LabelContract, 0)

	out := FromGraph(g)
	require.Len(t, out.Edges, 2)

	byTo := map[ir.ID]Edge{}
	for _, e := range out.Edges {
		byTo[e.To] = e
	}
	assert.Equal(t, "weight", byTo[2].Label)
	assert.Equal(t, "contract", byTo[3].Label)
}

func TestFromGraphNilIsEmpty(t *testing.T) {
	out := FromGraph(nil)
	assert.Empty(t, out.Nodes)
	assert.Empty(t, out.Edges)
}

func TestFromIsleTableKeysByDecimalID(t *testing.T) {
	table := &ir.IsleTable{ServiceID: 7, Isles: map[ir.ID]ir.Isle{42: {0, 1, 2}}}

	out := FromIsleTable(table)
	assert.Equal(t, ir.ID(7), out.ServiceID)
	require.Contains(t, out.Events, "42")
	assert.Equal(t, 3, out.Events["42"].Size)
	assert.Equal(t, []int{0, 1, 2}, out.Events["42"].Statements)
}

func TestDumpMarshalProducesJSON(t *testing.T) {
	d := NewDump()
	g := ir.NewGraph()
	g.AddEdge(1, 2, ir.LabelWeight, 0)
	d.AddComponent("limiter", g)
	d.AddIsles("svc", &ir.IsleTable{ServiceID: 1, Isles: map[ir.ID]ir.Isle{5: {0}}})

	out, err := d.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"limiter"`)
	assert.Contains(t, string(out), `"svc"`)
}
