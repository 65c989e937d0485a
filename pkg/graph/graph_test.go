package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circuitsim/pkg/geometry"
	"circuitsim/pkg/schematic"
	"circuitsim/pkg/snapshot"
)

func pt(x, y float64) schematic.Point { return schematic.Point{X: x, Y: y} }

func buildScene(elements ...schematic.Element) *schematic.Scene {
	return &schematic.Scene{Elements: elements}
}

func ringScene() *schematic.Scene {
	return buildScene(
		schematic.Element{ID: "V1", Kind: schematic.Battery, Value: 12, Terminals: [2]schematic.Point{pt(0, 0), pt(0, 80)}},
		schematic.Element{ID: "R1", Kind: schematic.Resistor, Value: 6, Terminals: [2]schematic.Point{pt(0, 80), pt(60, 80)}},
		schematic.Element{ID: "R2", Kind: schematic.Resistor, Value: 4, Terminals: [2]schematic.Point{pt(60, 80), pt(0, 0)}},
	)
}

func TestBuildRing(t *testing.T) {
	scene := ringScene()
	idx := geometry.BuildIndex(scene.Elements, scene.Wires, 15)
	g, diags := Build(scene, idx)

	assert.Empty(t, diags)
	require.Len(t, g.Edges, 3)
	assert.Len(t, g.Nodes(), 3)
	assert.Equal(t, Series, Classify(g))
}

func TestBuildShortedElement(t *testing.T) {
	scene := buildScene(
		schematic.Element{ID: "R1", Kind: schematic.Resistor, Value: 5, Terminals: [2]schematic.Point{pt(0, 0), pt(5, 0)}},
	)
	idx := geometry.BuildIndex(scene.Elements, scene.Wires, 15)
	g, diags := Build(scene, idx)

	assert.Empty(t, g.Edges)
	require.Len(t, diags, 1)
	assert.Equal(t, snapshot.ShortedElement, diags[0].Kind)
	assert.Equal(t, "R1", diags[0].Element)
}

func TestBuildDanglingFixpoint(t *testing.T) {
	// V1 and R1 form a loop; R2 hangs off it, and R3 hangs off R2. Removing
	// R3 strands R2's far terminal, so both must be pruned.
	scene := buildScene(
		schematic.Element{ID: "V1", Kind: schematic.Battery, Value: 12, Terminals: [2]schematic.Point{pt(0, 0), pt(0, 80)}},
		schematic.Element{ID: "R1", Kind: schematic.Resistor, Value: 6, Terminals: [2]schematic.Point{pt(0, 80), pt(0, 0)}},
		schematic.Element{ID: "R2", Kind: schematic.Resistor, Value: 5, Terminals: [2]schematic.Point{pt(0, 80), pt(100, 80)}},
		schematic.Element{ID: "R3", Kind: schematic.Resistor, Value: 5, Terminals: [2]schematic.Point{pt(100, 80), pt(200, 80)}},
	)
	idx := geometry.BuildIndex(scene.Elements, scene.Wires, 15)
	g, diags := Build(scene, idx)

	require.Len(t, g.Edges, 2)
	for _, e := range g.Edges {
		assert.Contains(t, []string{"V1", "R1"}, e.Element.ID)
	}

	dangling := 0
	for _, d := range diags {
		if d.Kind == snapshot.DanglingTerminal {
			dangling++
		}
	}
	assert.Equal(t, 2, dangling)
}

func TestAutoSeriesWires(t *testing.T) {
	elements := []schematic.Element{
		{ID: "B1", Kind: schematic.Bulb, Value: 6, Terminals: [2]schematic.Point{pt(200, 0), pt(260, 0)}},
		{ID: "V1", Kind: schematic.Battery, Value: 12, Terminals: [2]schematic.Point{pt(0, 0), pt(60, 0)}},
		{ID: "S1", Kind: schematic.Switch, Closed: true, Terminals: [2]schematic.Point{pt(100, 0), pt(160, 0)}},
	}
	wires := AutoSeriesWires(elements)
	require.Len(t, wires, 3)

	// Chained left to right by first-terminal x: V1 -> S1 -> B1 -> V1.
	assert.Equal(t, pt(60, 0), wires[0].A)
	assert.Equal(t, pt(100, 0), wires[0].B)
	assert.Equal(t, pt(160, 0), wires[1].A)
	assert.Equal(t, pt(200, 0), wires[1].B)
	assert.Equal(t, pt(260, 0), wires[2].A)
	assert.Equal(t, pt(0, 0), wires[2].B)

	assert.Nil(t, AutoSeriesWires(elements[:1]))
}

func TestClassifyParallel(t *testing.T) {
	scene := buildScene(
		schematic.Element{ID: "V1", Kind: schematic.Battery, Value: 10, Terminals: [2]schematic.Point{pt(0, 0), pt(0, 100)}},
		schematic.Element{ID: "R1", Kind: schematic.Resistor, Value: 10, Terminals: [2]schematic.Point{pt(0, 100), pt(0, 0)}},
		schematic.Element{ID: "R2", Kind: schematic.Resistor, Value: 20, Terminals: [2]schematic.Point{pt(0, 100), pt(0, 0)}},
	)
	idx := geometry.BuildIndex(scene.Elements, scene.Wires, 15)
	g, diags := Build(scene, idx)

	assert.Empty(t, diags)
	assert.Equal(t, Parallel, Classify(g))
}

func TestClassifyMixed(t *testing.T) {
	// Series resistor feeding a parallel pair: three nodes, a degree-3 node.
	scene := buildScene(
		schematic.Element{ID: "V1", Kind: schematic.Battery, Value: 9, Terminals: [2]schematic.Point{pt(0, 0), pt(0, 100)}},
		schematic.Element{ID: "R1", Kind: schematic.Resistor, Value: 5, Terminals: [2]schematic.Point{pt(0, 100), pt(100, 100)}},
		schematic.Element{ID: "R2", Kind: schematic.Resistor, Value: 10, Terminals: [2]schematic.Point{pt(100, 100), pt(0, 0)}},
		schematic.Element{ID: "R3", Kind: schematic.Resistor, Value: 10, Terminals: [2]schematic.Point{pt(100, 100), pt(0, 0)}},
	)
	idx := geometry.BuildIndex(scene.Elements, scene.Wires, 15)
	g, diags := Build(scene, idx)

	assert.Empty(t, diags)
	assert.Equal(t, Mixed, Classify(g))
}

func TestClassifyDegenerate(t *testing.T) {
	assert.Equal(t, Degenerate, Classify(&Graph{}))
}

func TestComponents(t *testing.T) {
	scene := buildScene(
		schematic.Element{ID: "V1", Kind: schematic.Battery, Value: 12, Terminals: [2]schematic.Point{pt(0, 0), pt(0, 80)}},
		schematic.Element{ID: "R1", Kind: schematic.Resistor, Value: 6, Terminals: [2]schematic.Point{pt(0, 80), pt(0, 0)}},
		schematic.Element{ID: "V2", Kind: schematic.Battery, Value: 5, Terminals: [2]schematic.Point{pt(500, 0), pt(500, 80)}},
		schematic.Element{ID: "R2", Kind: schematic.Resistor, Value: 6, Terminals: [2]schematic.Point{pt(500, 80), pt(500, 0)}},
	)
	idx := geometry.BuildIndex(scene.Elements, scene.Wires, 15)
	g, _ := Build(scene, idx)

	labels := g.Components()
	assert.Len(t, labels, 4)
	assert.Equal(t, 2, componentCount(g))
}
