package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circuitsim/pkg/geometry"
	"circuitsim/pkg/schematic"
)

func edge(id string, kind schematic.Kind, n1, n2 geometry.NodeID) Edge {
	return Edge{Element: &schematic.Element{ID: id, Kind: kind}, N1: n1, N2: n2}
}

func TestReduceSeriesChain(t *testing.T) {
	// V1 n1->n2, R1 n2->n3, R2 n3->n1.
	leaves := []*Tree{
		Leaf(edge("V1", schematic.Battery, "n1", "n2"), 0, 12),
		Leaf(edge("R1", schematic.Resistor, "n2", "n3"), 6, 0),
		Leaf(edge("R2", schematic.Resistor, "n3", "n1"), 4, 0),
	}
	red := Reduce(leaves)
	require.True(t, red.OK)

	// Both resistors fold into one load edge; the source keeps its own.
	assert.InDelta(t, 10, red.Load.R, 1e-12)
	assert.InDelta(t, 0, red.Source.R, 1e-12)
	assert.InDelta(t, 12, red.Source.EMF, 1e-12)
	assert.Equal(t, geometry.NodeID("n1"), red.Source.A)
}

func TestReduceParallelPair(t *testing.T) {
	leaves := []*Tree{
		Leaf(edge("V1", schematic.Battery, "n1", "n2"), 0, 10),
		Leaf(edge("R1", schematic.Resistor, "n2", "n1"), 10, 0),
		Leaf(edge("R2", schematic.Resistor, "n2", "n1"), 20, 0),
	}
	red := Reduce(leaves)
	require.True(t, red.OK)

	// 10 || 20 = 6.667
	assert.InDelta(t, 200.0/30.0, red.Load.R, 1e-9)
	assert.Equal(t, ContractParallel, red.Load.Op)
	assert.Len(t, red.Load.Children, 2)
}

func TestReduceMixedLadder(t *testing.T) {
	// R1 in series with (R2 || R3): total 5 + 5 = 10.
	leaves := []*Tree{
		Leaf(edge("V1", schematic.Battery, "n1", "n2"), 0, 9),
		Leaf(edge("R1", schematic.Resistor, "n2", "n3"), 5, 0),
		Leaf(edge("R2", schematic.Resistor, "n3", "n1"), 10, 0),
		Leaf(edge("R3", schematic.Resistor, "n3", "n1"), 10, 0),
	}
	red := Reduce(leaves)
	require.True(t, red.OK)
	assert.InDelta(t, 10, red.Load.R, 1e-9)
}

func TestReduceOrderIndependentResistance(t *testing.T) {
	build := func(perm []int) []*Tree {
		base := []*Tree{
			Leaf(edge("V1", schematic.Battery, "n1", "n2"), 0, 12),
			Leaf(edge("R1", schematic.Resistor, "n2", "n3"), 3, 0),
			Leaf(edge("R2", schematic.Resistor, "n3", "n4"), 7, 0),
			Leaf(edge("R3", schematic.Resistor, "n4", "n1"), 2, 0),
		}
		out := make([]*Tree, len(base))
		for i, p := range perm {
			out[i] = base[p]
		}
		return out
	}

	perms := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, p := range perms {
		red := Reduce(build(p))
		require.True(t, red.OK, p)
		assert.InDelta(t, 12, red.Load.R, 1e-9, p)
	}
}

func TestReduceSeriesEMFOrientation(t *testing.T) {
	// Two batteries in series, the second flipped so their EMFs oppose.
	leaves := []*Tree{
		Leaf(edge("V1", schematic.Battery, "n1", "n2"), 0, 12),
		Leaf(edge("V2", schematic.Battery, "n3", "n2"), 0, 5),
		Leaf(edge("R1", schematic.Resistor, "n3", "n1"), 7, 0),
	}
	red := Reduce(leaves)
	require.True(t, red.OK)

	// Along n1->n2->n3: V1 contributes +12, V2 (reversed) -5.
	emf := red.Source.EMF
	if red.Source.A != "n1" {
		emf = -emf
	}
	assert.InDelta(t, 7, emf, 1e-12)
}

func TestReduceBridgeGetsStuck(t *testing.T) {
	// Wheatstone bridge: no degree-2 node, no parallel group.
	leaves := []*Tree{
		Leaf(edge("V1", schematic.Battery, "n1", "n2"), 0, 10),
		Leaf(edge("R1", schematic.Resistor, "n2", "n3"), 100, 0),
		Leaf(edge("R2", schematic.Resistor, "n2", "n4"), 100, 0),
		Leaf(edge("R3", schematic.Resistor, "n3", "n1"), 100, 0),
		Leaf(edge("R4", schematic.Resistor, "n4", "n1"), 100, 0),
		Leaf(edge("R5", schematic.Resistor, "n3", "n4"), 100, 0),
	}
	red := Reduce(leaves)
	assert.False(t, red.OK)
	assert.NotEmpty(t, red.Stuck)
}

func TestReduceParallelSourcesNotReducible(t *testing.T) {
	leaves := []*Tree{
		Leaf(edge("V1", schematic.Battery, "n1", "n2"), 0, 12),
		Leaf(edge("V2", schematic.Battery, "n1", "n2"), 0, 12),
		Leaf(edge("R1", schematic.Resistor, "n2", "n1"), 6, 0),
	}
	red := Reduce(leaves)
	assert.False(t, red.OK)
}
