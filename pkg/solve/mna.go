package solve

import (
	"fmt"
	"math"
	"sort"

	"circuitsim/pkg/geometry"
	"circuitsim/pkg/graph"
	"circuitsim/pkg/matrix"
	"circuitsim/pkg/physics"
	"circuitsim/pkg/schematic"
)

// solveNodal is the full modified-nodal-analysis path used when the graph
// is not series/parallel reducible: node equations for every non-ground
// node, one branch equation per battery, solved with sparse LU. It handles
// bridge circuits and parallel sources that the contraction rules cannot.
func solveNodal(live []graph.Edge, batteries []graph.Edge, model physics.Model) (*rawSolution, error) {
	ground := batteries[0].N1

	nodeSet := make(map[geometry.NodeID]bool)
	for _, e := range live {
		nodeSet[e.N1] = true
		nodeSet[e.N2] = true
	}
	nodes := make([]geometry.NodeID, 0, len(nodeSet))
	for n := range nodeSet {
		if n != ground {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(a, b int) bool { return nodes[a] < nodes[b] })

	index := make(map[geometry.NodeID]int, len(nodes)+1)
	index[ground] = 0
	for i, n := range nodes {
		index[n] = i + 1
	}

	size := len(nodes) + len(batteries)
	sys, err := matrix.NewSystem(size)
	if err != nil {
		return nil, err
	}
	defer sys.Destroy()

	for _, e := range live {
		if e.Element.Kind == schematic.Battery {
			continue
		}
		r := model.Resistance(e.Element)
		if r <= 0 {
			return nil, fmt.Errorf("non-positive resistance on %s", e.Element.ID)
		}
		sys.StampConductance(index[e.N1], index[e.N2], 1/r)
	}

	// Branch equation per battery b between p (terminal 1) and q
	// (terminal 2): v_p - v_q - Rs*i_b = -EMF, with i_b the current
	// through the source from p to q.
	for k, b := range batteries {
		row := len(nodes) + k + 1
		p, q := index[b.N1], index[b.N2]
		sys.Stamp(p, row, 1)
		sys.Stamp(q, row, -1)
		sys.Stamp(row, p, 1)
		sys.Stamp(row, q, -1)
		sys.Stamp(row, row, -model.Resistance(b.Element))
		sys.AddRHS(row, -model.EMF(b.Element))
	}

	if err := sys.Solve(); err != nil {
		return nil, err
	}
	x := sys.Solution()

	raw := &rawSolution{
		currents:  make(map[string]float64),
		drops:     make(map[string]float64),
		nodeVolts: make(map[geometry.NodeID]float64),
	}
	raw.nodeVolts[ground] = 0
	for _, n := range nodes {
		raw.nodeVolts[n] = x[index[n]]
	}

	voltAt := func(n geometry.NodeID) float64 {
		if i := index[n]; i > 0 {
			return x[i]
		}
		return 0
	}
	for _, e := range live {
		d := voltAt(e.N1) - voltAt(e.N2)
		raw.drops[e.Element.ID] = d
		if e.Element.Kind != schematic.Battery {
			raw.currents[e.Element.ID] = d / model.Resistance(e.Element)
		}
	}
	for k, b := range batteries {
		raw.currents[b.Element.ID] = x[len(nodes)+k+1]
		raw.rInternal += model.Resistance(b.Element)
	}

	// Totals are reported against the first source, the only meaningful
	// reference once superposition is out of scope.
	raw.emfTotal = model.EMF(batteries[0].Element)
	if i := math.Abs(raw.currents[batteries[0].Element.ID]); i > 0 {
		raw.rTotal = math.Abs(raw.emfTotal) / i
	}
	return raw, nil
}
