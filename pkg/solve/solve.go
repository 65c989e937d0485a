// Package solve runs one circuit analysis: geometry index, graph build,
// topology classification, series/parallel reduction, current distribution
// and the component physics stage. A solve is synchronous and pure: scene
// in, snapshot out. It never returns an error; problems become snapshot
// diagnostics.
package solve

import (
	"fmt"
	"math"

	"circuitsim/pkg/geometry"
	"circuitsim/pkg/graph"
	"circuitsim/pkg/physics"
	"circuitsim/pkg/schematic"
	"circuitsim/pkg/snapshot"
)

// rawSolution is the solver-internal result before the physics stage.
// Currents are signed, terminal 1 -> terminal 2. Drops are v(n1) - v(n2).
type rawSolution struct {
	currents  map[string]float64
	drops     map[string]float64
	nodeVolts map[geometry.NodeID]float64
	emfTotal  float64
	rTotal    float64
	rInternal float64
}

// Solve analyzes one scene. The returned snapshot always covers every
// element and node; excluded or unsolved elements report zeros.
func Solve(scene *schematic.Scene, opts Options) (snap *snapshot.Snapshot) {
	snap = snapshot.New()
	defer func() {
		if r := recover(); r != nil {
			snap.AddDiagnostic(snapshot.NumericInconsistency, "", fmt.Sprintf("solver failure: %v", r))
		}
	}()

	wires := scene.Wires
	if opts.AutoSeriesOnNoWires && len(wires) == 0 && len(scene.Elements) >= 2 {
		wires = graph.AutoSeriesWires(scene.Elements)
	}

	idx := geometry.BuildIndex(scene.Elements, wires, opts.NodeMergeTolerance)
	g, diags := graph.Build(scene, idx)
	snap.Diagnostics = append(snap.Diagnostics, diags...)

	for _, n := range idx.Nodes() {
		snap.Nodes[string(n)] = snapshot.NodeResult{}
	}

	raw := solveGraph(g, opts, snap)
	publish(scene, g, raw, opts, snap)
	return snap
}

// solveGraph picks the battery, restricts to its connected component,
// reduces and distributes. A nil return means the zero solution.
func solveGraph(g *graph.Graph, opts Options, snap *snapshot.Snapshot) *rawSolution {
	var batteries []graph.Edge
	for _, e := range g.Edges {
		if e.Element.Kind == schematic.Battery {
			batteries = append(batteries, e)
		}
	}
	if len(batteries) == 0 {
		snap.AddDiagnostic(snapshot.NoSource, "", "no battery is connected to a load")
		return nil
	}

	comps := g.Components()
	srcComp := comps[batteries[0].N1]
	var live []graph.Edge
	stranded := false
	for _, e := range g.Edges {
		if comps[e.N1] == srcComp {
			live = append(live, e)
		} else {
			stranded = true
		}
	}
	if stranded {
		snap.AddDiagnostic(snapshot.OpenCircuit, "", "part of the circuit is not connected to the source")
	}

	if opts.NodalFallback {
		raw, err := solveNodal(live, batteries, opts.Physics)
		if err != nil {
			snap.AddDiagnostic(snapshot.NumericInconsistency, "", err.Error())
			return nil
		}
		checkResiduals(live, raw, opts, snap)
		return raw
	}

	leaves := make([]*graph.Tree, 0, len(live))
	for _, e := range live {
		leaves = append(leaves, graph.Leaf(e, opts.Physics.Resistance(e.Element), opts.Physics.EMF(e.Element)))
	}
	red := graph.Reduce(leaves)
	if !red.OK {
		snap.AddDiagnostic(snapshot.NonReducibleTopology, "",
			"circuit cannot be reduced by series/parallel rules; try simplifying")
		return nil
	}

	raw := distribute(red, live, batteries, opts.Physics)
	checkResiduals(live, raw, opts, snap)
	return raw
}

// distribute inverts the contraction tree: series children carry the
// parent's current, parallel children split it inversely to resistance.
func distribute(red *graph.Reduction, live []graph.Edge, batteries []graph.Edge, model physics.Model) *rawSolution {
	raw := &rawSolution{
		currents:  make(map[string]float64),
		drops:     make(map[string]float64),
		nodeVolts: make(map[geometry.NodeID]float64),
	}

	raw.emfTotal = red.Source.EMF
	raw.rTotal = red.Source.R + red.Load.R
	for _, b := range batteries {
		raw.rInternal += model.Resistance(b.Element)
	}

	loop := 0.0
	if raw.rTotal > 0 {
		loop = raw.emfTotal / raw.rTotal
	}
	assign(red.Source, loop, raw.currents)

	loadCurrent := loop
	if red.Load.A == red.Source.A {
		loadCurrent = -loop
	}
	assign(red.Load, loadCurrent, raw.currents)

	for _, e := range live {
		i := raw.currents[e.Element.ID]
		raw.drops[e.Element.ID] = i*model.Resistance(e.Element) - model.EMF(e.Element)
	}

	propagateVoltages(live, batteries[0].N1, raw)
	return raw
}

func assign(t *graph.Tree, current float64, out map[string]float64) {
	switch t.Op {
	case graph.ContractLeaf:
		out[t.Element.ID] = current
	case graph.ContractSeries:
		for i, c := range t.Children {
			assign(c, flip(current, t.Reversed[i]), out)
		}
	case graph.ContractParallel:
		v := current * t.R
		for i, c := range t.Children {
			ci := 0.0
			if c.R > 0 {
				ci = v / c.R
			}
			assign(c, flip(ci, t.Reversed[i]), out)
		}
	}
}

func flip(v float64, reversed bool) float64 {
	if reversed {
		return -v
	}
	return v
}

// propagateVoltages accumulates element drops outward from ground, the
// negative terminal of the chosen source.
func propagateVoltages(live []graph.Edge, ground geometry.NodeID, raw *rawSolution) {
	raw.nodeVolts[ground] = 0
	queue := []geometry.NodeID{ground}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range live {
			d := raw.drops[e.Element.ID]
			if e.N1 == cur {
				if _, ok := raw.nodeVolts[e.N2]; !ok {
					raw.nodeVolts[e.N2] = raw.nodeVolts[cur] - d
					queue = append(queue, e.N2)
				}
			} else if e.N2 == cur {
				if _, ok := raw.nodeVolts[e.N1]; !ok {
					raw.nodeVolts[e.N1] = raw.nodeVolts[cur] + d
					queue = append(queue, e.N1)
				}
			}
		}
	}
}

// checkResiduals verifies KCL at every node and KVL on every edge against
// the propagated node voltages. A violation is an internal error, surfaced
// as a diagnostic rather than a panic.
func checkResiduals(live []graph.Edge, raw *rawSolution, opts Options, snap *snapshot.Snapshot) {
	sums := make(map[geometry.NodeID]float64)
	for _, e := range live {
		i := raw.currents[e.Element.ID]
		sums[e.N1] -= i
		sums[e.N2] += i
	}
	for n, s := range sums {
		if math.Abs(s) > opts.KCLTolerance {
			snap.AddDiagnostic(snapshot.NumericInconsistency, "",
				fmt.Sprintf("KCL residual %.3g A at node %s", s, n))
			return
		}
	}
	for _, e := range live {
		v1, ok1 := raw.nodeVolts[e.N1]
		v2, ok2 := raw.nodeVolts[e.N2]
		if !ok1 || !ok2 {
			continue
		}
		if r := math.Abs((v1 - v2) - raw.drops[e.Element.ID]); r > opts.KVLTolerance {
			snap.AddDiagnostic(snapshot.NumericInconsistency, e.Element.ID,
				fmt.Sprintf("KVL residual %.3g V across %s", r, e.Element.ID))
			return
		}
	}
}

// publish runs the component physics stage and fills the snapshot. Gating:
// currents below the publish tolerance snap to zero, so an open switch
// yields exactly I=0 on its branch.
func publish(scene *schematic.Scene, g *graph.Graph, raw *rawSolution, opts Options, snap *snapshot.Snapshot) {
	solved := make(map[string]bool)
	for _, e := range g.Edges {
		solved[e.Element.ID] = true
	}

	for i := range scene.Elements {
		el := &scene.Elements[i]
		res := snapshot.ElementResult{}

		if raw != nil && solved[el.ID] {
			cur := raw.currents[el.ID]
			drop := math.Abs(raw.drops[el.ID])
			if math.Abs(cur) < opts.Publish.I {
				cur = 0
			}
			res.I = cur
			res.V = drop
			res.P = drop * math.Abs(cur)
		}

		switch el.Kind {
		case schematic.Bulb:
			rated := el.Value
			if rated <= 0 {
				rated = opts.Physics.BulbRatedWatts
			}
			b := physics.Brightness(res.P, rated)
			res.Observables.Brightness = &b
		case schematic.Resistor:
			over := physics.Overloaded(res.I, res.V, res.P, opts.Physics.ResistorLimits)
			res.Observables.Overloaded = &over
		case schematic.Battery:
			hint := physics.BoostVoltage(el.Value)
			res.Observables.BoostHint = &hint
		}

		snap.PerElement[el.ID] = res
	}

	if raw != nil {
		for n, v := range raw.nodeVolts {
			snap.Nodes[string(n)] = snapshot.NodeResult{Voltage: v}
		}
		vsrc := math.Abs(raw.emfTotal)
		itotal := 0.0
		if raw.rTotal > 0 {
			itotal = vsrc / raw.rTotal
		}
		snap.Totals = snapshot.Totals{
			VSrc:   vsrc,
			ITotal: itotal,
			REq:    raw.rTotal - raw.rInternal,
			PTotal: vsrc * itotal,
		}
	}
}
